package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is a single bar of the TXF price feed. Timestamp is epoch
// milliseconds; only Timestamp and Close participate in alert evaluation,
// the remaining OHLCV fields ride along for charting and export.
type PricePoint struct {
	Time      string          `json:"time,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
}

// At returns the point's timestamp as a time.Time in the given location.
func (p PricePoint) At(loc *time.Location) time.Time {
	return time.UnixMilli(p.Timestamp).In(loc)
}

// Series is an ascending, deduplicated sequence of price points.
type Series []PricePoint

// Last returns the newest point. ok is false for an empty series.
func (s Series) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// SpanMillis is the duration covered by the series in milliseconds.
func (s Series) SpanMillis() int64 {
	if len(s) < 2 {
		return 0
	}
	return s[len(s)-1].Timestamp - s[0].Timestamp
}
