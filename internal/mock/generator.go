package mock

import (
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iamasky/tx-observer/internal/market"
)

// Resolution is the fixed sampling interval of generated data.
const Resolution = 10 * time.Second

// Generator produces synthetic TXF bars with a random walk, used by the
// serve command for demo feeds and by tests.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator seeds a generator. The same seed yields the same series.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// SeedForSession derives a deterministic seed from a session identity, so a
// given date/session always replays the same synthetic day.
func SeedForSession(date string, night bool) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(date))
	if night {
		_, _ = h.Write([]byte("night"))
	}
	return int64(h.Sum64())
}

// GenerateSession produces one full session of bars at the generator
// resolution. Day session runs 08:45-13:45, night session 15:00-05:00 the
// next day.
func (g *Generator) GenerateSession(date time.Time, night bool) market.Series {
	y, m, d := date.Date()
	loc := date.Location()

	var start, end time.Time
	if night {
		start = time.Date(y, m, d, 15, 0, 0, 0, loc)
		end = time.Date(y, m, d, 5, 0, 0, 0, loc).AddDate(0, 0, 1)
	} else {
		start = time.Date(y, m, d, 8, 45, 0, 0, loc)
		end = time.Date(y, m, d, 13, 45, 0, 0, loc)
	}

	price := 20000 + g.rng.Float64()*1000 - 500

	var series market.Series
	for ts := start; !ts.After(end); ts = ts.Add(Resolution) {
		open := price
		change := (g.rng.Float64() - 0.5) * 10
		closePx := open + change
		high := maxFloat(open, closePx) + g.rng.Float64()*5
		low := minFloat(open, closePx) - g.rng.Float64()*5

		series = append(series, market.PricePoint{
			Time:      ts.Format(time.RFC3339),
			Timestamp: ts.UnixMilli(),
			Open:      roundPrice(open),
			High:      roundPrice(high),
			Low:       roundPrice(low),
			Close:     roundPrice(closePx),
			Volume:    int64(g.rng.Intn(100)),
		})
		price = closePx
	}
	return series
}

// NextBar simulates the next live bar following last at the given instant.
func (g *Generator) NextBar(last market.PricePoint, at time.Time) market.PricePoint {
	open, _ := last.Close.Float64()
	change := (g.rng.Float64() - 0.5) * 5
	closePx := open + change

	return market.PricePoint{
		Time:      at.Format(time.RFC3339),
		Timestamp: at.UnixMilli(),
		Open:      roundPrice(open),
		High:      roundPrice(maxFloat(open, closePx)),
		Low:       roundPrice(minFloat(open, closePx)),
		Close:     roundPrice(closePx),
		Volume:    int64(g.rng.Intn(100)),
	}
}

func roundPrice(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(0)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
