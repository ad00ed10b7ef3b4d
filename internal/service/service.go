package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamasky/tx-observer/internal/alerting"
	"github.com/iamasky/tx-observer/internal/detect"
	"github.com/iamasky/tx-observer/internal/fetcher"
	"github.com/iamasky/tx-observer/internal/market"
	"github.com/iamasky/tx-observer/internal/scheduler"
	"github.com/iamasky/tx-observer/internal/storage"
)

// Options carry the detection and buffering parameters of the live monitor.
type Options struct {
	Settings       detect.Settings
	BufferCapacity int
	Cooldown       time.Duration
	NotifyEnabled  bool
}

// Service is the live monitoring loop: one tick fetches the feed, reconciles
// it into the session buffer, evaluates the newest point, and routes any
// alert through the gate. The buffer, gate, and connectivity flag have this
// service as their single writer; ticks are serialized by the scheduler, so
// no mutation ever interleaves.
type Service struct {
	sched    *scheduler.Scheduler
	fetch    fetcher.LiveFetcher
	store    storage.PriceSampleStore
	notifier alerting.Notifier
	logger   zerolog.Logger
	opts     Options

	gate         *alerting.Gate
	buffer       market.Series
	sessionStart int64
	connected    bool
}

// New constructs the monitoring service. store and notifier may be nil.
func New(opts Options, sched *scheduler.Scheduler, fetch fetcher.LiveFetcher, store storage.PriceSampleStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	if opts.BufferCapacity <= 0 {
		opts.BufferCapacity = 3600
	}
	return &Service{
		sched:    sched,
		fetch:    fetch,
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("component", "service").Logger(),
		opts:     opts,
		gate:     alerting.NewGate(opts.Cooldown),
	}
}

// Run begins the polling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.sched == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.sched.Run(ctx, s.Tick)
}

// Tick executes one live-ingestion cycle at the given wall-clock instant.
func (s *Service) Tick(ctx context.Context, at time.Time) error {
	session := market.DescribeSession(at)
	if session.StartMillis() != s.sessionStart {
		s.rollSession(session)
	}

	res, err := s.fetch.FetchLive(ctx)
	if err != nil {
		// Keep the buffer untouched and retry on the next tick.
		s.connected = false
		return fmt.Errorf("fetch market data: %w", err)
	}
	s.connected = res.Connected

	if len(res.Points) == 0 {
		return nil
	}

	before := len(s.buffer)
	s.buffer = market.MergeBatch(s.buffer, res.Points, session.StartMillis())
	appended := s.buffer[before:]
	if len(appended) == 0 {
		return nil
	}

	if s.store != nil {
		if err := s.store.UpsertPricePoints(ctx, string(session.Type), appended); err != nil {
			s.logger.Error().Err(err).Int("points", len(appended)).Msg("failed to persist samples")
		}
	}

	s.buffer = market.Bound(s.buffer, s.opts.BufferCapacity)

	latest := s.buffer[len(s.buffer)-1]
	ev, ok := detect.Detect(s.buffer, latest.Close, latest.Timestamp, s.opts.Settings)
	if !ok || !s.gate.Admit(ev) {
		return nil
	}

	s.logger.Info().
		Str("type", string(ev.Type)).
		Int64("points", ev.Points).
		Str("price", ev.ToPrice.String()).
		Int64("baseline_time", ev.BaselineTime).
		Msg("alert detected")

	if s.opts.NotifyEnabled && s.notifier != nil && s.gate.ShouldNotify(ev, at) {
		// The gate advances before the send resolves: a failing relay must
		// not re-arm the notification on every tick.
		s.gate.MarkNotified(ev, at)
		if err := s.notifier.Notify(ctx, alerting.Notification{Event: ev}); err != nil {
			s.logger.Error().Err(err).Msg("failed to dispatch alert")
		}
	}

	return nil
}

func (s *Service) rollSession(session market.Session) {
	if s.sessionStart != 0 {
		s.logger.Info().
			Str("session", string(session.Type)).
			Time("start", session.Start).
			Msg("session rolled over; clearing buffer and alert log")
	}
	s.sessionStart = session.StartMillis()
	s.buffer = nil
	s.gate.Reset()
}

// Connected reports the upstream connectivity observed on the last tick.
func (s *Service) Connected() bool { return s.connected }

// Alerts returns the alert log of the current session.
func (s *Service) Alerts() []detect.AlertEvent { return s.gate.Alerts() }

// Buffer returns the current session buffer.
func (s *Service) Buffer() market.Series { return s.buffer }
