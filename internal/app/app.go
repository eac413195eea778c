package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/onetimechat/relay-server/internal/config"
	"github.com/onetimechat/relay-server/internal/core"
	"github.com/onetimechat/relay-server/internal/store"
	"github.com/onetimechat/relay-server/internal/store/sqlite"
	transporthttp "github.com/onetimechat/relay-server/internal/transport/http"
	"github.com/rs/zerolog"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	cleanupInterval time.Duration
	roomTTL         time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	hub := core.NewHub(st, cfg.StoreTimeout, logger)
	server := transporthttp.NewServer(hub, st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		cleanupInterval: cfg.CleanupInterval,
		roomTTL:         cfg.RoomTTL,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)
	go a.janitor(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// janitor periodically deletes rooms past their TTL, messages included.
func (a *App) janitor(ctx context.Context) {
	if a.cleanupInterval <= 0 || a.roomTTL <= 0 {
		return
	}

	ticker := time.NewTicker(a.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-a.roomTTL)
			deleted, err := a.store.DeleteExpiredRooms(ctx, cutoff)
			if err != nil {
				a.log.Warn().Err(err).Msg("expired room cleanup failed")
				continue
			}
			if deleted > 0 {
				a.log.Info().Int64("rooms", deleted).Msg("expired rooms deleted")
			}
		case <-ctx.Done():
			return
		}
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
