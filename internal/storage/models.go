package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iamasky/tx-observer/internal/market"
)

// PriceSample is a persisted price point of one monitored session. Samples
// feed the show/export commands; alert events themselves are kept in memory
// only and never persisted.
type PriceSample struct {
	TS        time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
	Session   string
	CreatedAt time.Time
}

// FromPoint converts an ingested price point into a persistable sample.
func FromPoint(p market.PricePoint, session string) PriceSample {
	return PriceSample{
		TS:      time.UnixMilli(p.Timestamp).UTC(),
		Open:    p.Open,
		High:    p.High,
		Low:     p.Low,
		Close:   p.Close,
		Volume:  p.Volume,
		Session: session,
	}
}

// Point converts a sample back into the in-memory representation.
func (s PriceSample) Point() market.PricePoint {
	return market.PricePoint{
		Time:      s.TS.Format(time.RFC3339),
		Timestamp: s.TS.UnixMilli(),
		Open:      s.Open,
		High:      s.High,
		Low:       s.Low,
		Close:     s.Close,
		Volume:    s.Volume,
	}
}
