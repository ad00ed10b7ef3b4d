package fetcher

import (
	"context"
	"errors"

	"github.com/iamasky/tx-observer/internal/market"
)

// ErrNoData indicates the upstream returned no points for the request.
var ErrNoData = errors.New("fetcher: no data returned")

// LiveResult is one poll of the live market-data endpoint.
type LiveResult struct {
	Connected bool
	Points    []market.PricePoint
}

// LiveFetcher polls the current session's price feed.
type LiveFetcher interface {
	FetchLive(ctx context.Context) (LiveResult, error)
}

// HistoryFetcher retrieves the full series of one historical session.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, date string, night bool) (market.Series, error)
}
