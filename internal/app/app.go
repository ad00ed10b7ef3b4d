package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iamasky/tx-observer/internal/alerting"
	"github.com/iamasky/tx-observer/internal/config"
	"github.com/iamasky/tx-observer/internal/detect"
	"github.com/iamasky/tx-observer/internal/fetcher"
	"github.com/iamasky/tx-observer/internal/scheduler"
	"github.com/iamasky/tx-observer/internal/service"
	"github.com/iamasky/tx-observer/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newClient() *fetcher.Client {
	return fetcher.NewClient(fetcher.Options{
		BaseURL:   a.Config.Upstream.BaseURL,
		Timeout:   a.Config.Upstream.RequestTimeout,
		UserAgent: a.Config.Upstream.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	n := a.Config.Alerting.Notification
	if !n.Enabled {
		return nil
	}
	return alerting.NewRelayNotifier(
		a.Config.Upstream.BaseURL,
		n.Token,
		n.ChatID,
		a.Config.Upstream.RequestTimeout,
		a.Logger,
	)
}

func (a *App) detectorSettings() detect.Settings {
	return detect.Settings{
		ThresholdPoints:   decimal.NewFromFloat(a.Config.Alerting.ThresholdPoints),
		TimeWindowMinutes: a.Config.Alerting.TimeWindowMinutes,
		Direction:         detect.Direction(a.Config.Alerting.Direction),
	}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running live monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	settings := a.detectorSettings()
	if err := settings.Validate(); err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; sample persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Poller.Interval,
		AlignToStart: true,
		StartupDelay: a.Config.Poller.StartupDelay,
	}, a.Logger)

	var sampleStore storage.PriceSampleStore
	if store != nil {
		sampleStore = store
	}

	svc := service.New(service.Options{
		Settings:       settings,
		BufferCapacity: a.Config.Poller.BufferCapacity,
		Cooldown:       a.Config.Alerting.Cooldown,
		NotifyEnabled:  a.Config.Alerting.Notification.Enabled,
	}, sched, a.newClient(), sampleStore, a.newNotifier(), a.Logger)

	a.Logger.Info().Msg("starting live monitoring service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("live monitoring service stopped")
	return nil
}

// ExportOptions hold parameters for exporting persisted samples.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// ReplayOptions configure a headless replay run.
type ReplayOptions struct {
	Date  string
	Night bool
}
