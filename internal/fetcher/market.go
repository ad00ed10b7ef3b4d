package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamasky/tx-observer/internal/market"
)

const (
	marketDataPath  = "/api/market-data"
	historyDataPath = "/api/history-data"
)

// Options parameterise the market-data client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the market-data server over HTTP.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a market-data client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "market_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type liveResponse struct {
	Status struct {
		Connected bool `json:"connected"`
	} `json:"status"`
	Data []market.PricePoint `json:"data"`
}

// FetchLive polls the current session feed. An empty data array is not an
// error; the caller treats it as a no-op tick.
func (c *Client) FetchLive(ctx context.Context) (LiveResult, error) {
	payload, err := c.get(ctx, c.baseURL+marketDataPath)
	if err != nil {
		return LiveResult{}, err
	}

	var res liveResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return LiveResult{}, fmt.Errorf("decode market data: %w", err)
	}

	return LiveResult{Connected: res.Status.Connected, Points: res.Data}, nil
}

type historyResponse struct {
	Data []market.PricePoint `json:"data"`
}

// FetchHistory retrieves the full series for one date/session. The points
// are re-sorted ascending before use; a missing or empty series surfaces as
// ErrNoData so the caller can report "no data for this date".
func (c *Client) FetchHistory(ctx context.Context, date string, night bool) (market.Series, error) {
	endpoint := fmt.Sprintf("%s%s?date=%s&night=%s",
		c.baseURL, historyDataPath, url.QueryEscape(date), strconv.FormatBool(night))

	payload, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var res historyResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode history data: %w", err)
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("%w: %s (night=%t)", ErrNoData, date, night)
	}

	series := market.Series(res.Data)
	sort.Slice(series, func(i, j int) bool { return series[i].Timestamp < series[j].Timestamp })
	return series, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "tx-observer/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}
	return payload, nil
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Error != "" {
			return fmt.Errorf("market api error (%d): %s", status, apiErr.Error)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("market api error (%d): %s", status, apiErr.Message)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("market api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("market api error (%d)", status)
}

var _ LiveFetcher = (*Client)(nil)
var _ HistoryFetcher = (*Client)(nil)
