package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iamasky/tx-observer/internal/market"
	"github.com/iamasky/tx-observer/internal/mock"
)

// liveCapacity bounds the in-memory live feed, roughly matching the client
// side buffer.
const liveCapacity = 3600

// Options parameterise the data server.
type Options struct {
	Addr string
	// Resolution is the cadence of the synthetic live feed.
	Resolution time.Duration
}

// Server exposes the market-data, history-data, and telegram-relay endpoints
// consumed by the monitoring engine. The live feed is synthetic: a seeded
// random walk appended once per resolution interval.
type Server struct {
	opts   Options
	logger zerolog.Logger
	sender TelegramSender

	mu        sync.Mutex
	feed      market.Series
	connected bool
	gen       *mock.Generator
}

// New constructs a data server. sender may be nil, in which case the default
// Telegram Bot API sender is used.
func New(opts Options, sender TelegramSender, logger zerolog.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = ":5000"
	}
	if opts.Resolution <= 0 {
		opts.Resolution = mock.Resolution
	}
	if sender == nil {
		sender = botSender{}
	}
	return &Server{
		opts:   opts,
		logger: logger.With().Str("component", "server").Logger(),
		sender: sender,
		gen:    mock.NewGenerator(time.Now().UnixNano()),
	}
}

// Handler builds the HTTP route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/market-data", s.handleMarketData)
	mux.HandleFunc("GET /api/history-data", s.handleHistoryData)
	mux.HandleFunc("POST /api/send-telegram", s.handleSendTelegram)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

// Run serves HTTP and drives the synthetic live feed until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.opts.Addr, Handler: s.Handler()}

	go s.driveFeed(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info().Str("addr", s.opts.Addr).Msg("data server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// driveFeed appends one synthetic bar per resolution interval.
func (s *Server) driveFeed(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.appendBar(now)
		}
	}
}

func (s *Server) appendBar(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.feed.Last()
	if !ok {
		last = market.PricePoint{Close: decimal.NewFromInt(20000)}
	}
	s.feed = market.Bound(append(s.feed, s.gen.NextBar(last, now)), liveCapacity)
	s.connected = true
}

func (s *Server) snapshot() (market.Series, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(market.Series, len(s.feed))
	copy(out, s.feed)
	return out, s.connected
}
