package detect

import "github.com/iamasky/tx-observer/internal/market"

const (
	// baselineToleranceMillis is how far before the target instant a point
	// may sit and still serve as baseline. Polling ticks rarely line up with
	// the exact window boundary, and the feed can have 1-2 minute gaps.
	baselineToleranceMillis = 120_000

	// fallbackSpanRatio: when no point lands inside the tolerance, the
	// earliest point still stands in as an approximate baseline provided the
	// series already spans at least this fraction of the window.
	fallbackSpanRatio = 0.9
)

// ResolveBaseline finds the price point anchoring the rolling look-back
// window ending at currentTime (epoch ms). ok is false when history is too
// short to support the window; that is the expected state early in a session,
// not an error, and the caller skips alert evaluation for the tick.
func ResolveBaseline(series market.Series, currentTime int64, windowMinutes int) (market.PricePoint, bool) {
	if len(series) == 0 {
		return market.PricePoint{}, false
	}

	windowMillis := int64(windowMinutes) * 60_000
	targetTime := currentTime - windowMillis

	// Scan backward: the target usually sits near the tail. The first point
	// at or before the target is the candidate; anything earlier is older
	// still, so the scan stops there either way.
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Timestamp > targetTime {
			continue
		}
		if targetTime-series[i].Timestamp <= baselineToleranceMillis {
			return series[i], true
		}
		break
	}

	// Approximate baseline: the series nearly covers the window but no point
	// falls inside the tolerance band.
	if float64(series.SpanMillis()) >= fallbackSpanRatio*float64(windowMillis) {
		return series[0], true
	}

	return market.PricePoint{}, false
}
