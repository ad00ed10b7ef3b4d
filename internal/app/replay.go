package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/iamasky/tx-observer/internal/replay"
)

// Replay plays one historical session back at the configured virtual speed,
// logging alerts exactly as the live monitor would have raised them.
func (a *App) Replay(ctx context.Context, opts ReplayOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if _, err := time.Parse("2006-01-02", opts.Date); err != nil {
		return errors.New("--date 格式应为 YYYY-MM-DD")
	}

	client := a.newClient()
	series, err := client.FetchHistory(ctx, opts.Date, opts.Night)
	if err != nil {
		return err
	}

	player, err := replay.NewPlayer(series, replay.Options{
		Speed: replay.Speed{
			Value: a.Config.Replay.SpeedValue,
			Unit:  replay.SpeedUnit(a.Config.Replay.SpeedUnit),
		},
		DataResolution: a.Config.Replay.DataResolution,
		TickInterval:   a.Config.Replay.TickInterval,
		Settings:       a.detectorSettings(),
		Cooldown:       a.Config.Alerting.Cooldown,
	}, a.newNotifier(), a.Logger)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Str("date", opts.Date).
		Bool("night", opts.Night).
		Int("points", len(series)).
		Msg("starting replay")

	player.Play()
	err = player.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.Logger.Info().
		Int("alerts", len(player.Alerts())).
		Str("phase", string(player.Phase())).
		Msg("replay stopped")
	return nil
}
