package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/iamasky/tx-observer/internal/server"
)

// Serve runs the market-data and telegram-relay HTTP server.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(server.Options{
		Addr:       a.Config.Server.Addr,
		Resolution: a.Config.Server.Resolution,
	}, nil, a.Logger)

	err := srv.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
