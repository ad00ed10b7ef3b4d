package detect

import (
	"github.com/iamasky/tx-observer/internal/market"
	"github.com/shopspring/decimal"
)

// Detect evaluates the displacement of currentPrice against the rolling
// window baseline and returns the triggered alert, if any. Pure function:
// identical inputs always produce identical output.
//
// RISE is checked before FALL. With a zero threshold and direction BOTH a
// zero delta satisfies both conditions; evaluation order resolves that in
// favour of RISE, matching the long-standing behaviour.
func Detect(series market.Series, currentPrice decimal.Decimal, currentTime int64, settings Settings) (AlertEvent, bool) {
	baseline, ok := ResolveBaseline(series, currentTime, settings.TimeWindowMinutes)
	if !ok {
		return AlertEvent{}, false
	}

	delta := currentPrice.Sub(baseline.Close)

	if settings.Direction == Rise || settings.Direction == Both {
		if delta.GreaterThanOrEqual(settings.ThresholdPoints) {
			return newEvent(Rise, delta, baseline, currentPrice, currentTime, settings), true
		}
	}

	if settings.Direction == Fall || settings.Direction == Both {
		if delta.Neg().GreaterThanOrEqual(settings.ThresholdPoints) {
			return newEvent(Fall, delta.Neg(), baseline, currentPrice, currentTime, settings), true
		}
	}

	return AlertEvent{}, false
}

func newEvent(typ Direction, magnitude decimal.Decimal, baseline market.PricePoint, currentPrice decimal.Decimal, currentTime int64, settings Settings) AlertEvent {
	return AlertEvent{
		Type:         typ,
		Points:       magnitude.Round(0).IntPart(),
		FromPrice:    baseline.Close,
		ToPrice:      currentPrice,
		Time:         currentTime,
		BaselineTime: baseline.Timestamp,
		TimeWindow:   settings.TimeWindowMinutes,
	}
}
