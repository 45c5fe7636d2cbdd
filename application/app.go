// Package application wires tokenauthd: config loading, the service container
// and the HTTP server lifecycle.
package application

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-tokenauth/auth"
	"github.com/KOMKZ/go-yogan-tokenauth/database"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/KOMKZ/go-yogan-tokenauth/session"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App one process worth of services
type App struct {
	cfg      *AppConfig
	injector *do.RootScope
	logger   *logger.CtxZapLogger
}

// New validates cfg and initialises the global logger manager. No connection is opened yet.
func New(cfg *AppConfig) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger.InitManager(cfg.Logger)

	return &App{
		cfg:      cfg,
		injector: newContainer(cfg),
		logger:   logger.GetLogger("app"),
	}, nil
}

// Injector exposes the container, mainly for tests
func (a *App) Injector() do.Injector {
	return a.injector
}

// HTTPServer builds (once) and returns the API server
func (a *App) HTTPServer() (*HTTPServer, error) {
	return do.Invoke[*HTTPServer](a.injector)
}

// Run serves HTTP and the index sweeper until ctx is cancelled or the listener fails,
// then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	srv, err := a.HTTPServer()
	if err != nil {
		a.shutdown(ctx, nil, nil)
		return fmt.Errorf("build http server: %w", err)
	}
	client := do.MustInvoke[*goredis.Client](a.injector)

	sweeper, err := do.Invoke[*session.IndexSweeper](a.injector)
	if err != nil {
		a.shutdown(ctx, nil, client)
		return fmt.Errorf("build sweeper: %w", err)
	}
	if err := sweeper.Start(ctx); err != nil {
		a.shutdown(ctx, nil, client)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down", zap.Duration("timeout", a.cfg.HTTP.ShutdownTimeout))

		sctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	a.shutdown(ctx, sweeper, client)
	return err
}

// Migrate creates or updates the user table and closes the database
func (a *App) Migrate(ctx context.Context) error {
	defer a.shutdown(ctx, nil, nil)

	db, err := do.Invoke[*database.DB](a.injector)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := auth.Migrate(db.Gorm().WithContext(ctx)); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	a.logger.InfoCtx(ctx, "migration finished", zap.String("driver", a.cfg.Database.Driver))
	return nil
}

// Sweep runs a single session index cleanup pass
func (a *App) Sweep(ctx context.Context) (int, error) {
	sweeper, err := do.Invoke[*session.IndexSweeper](a.injector)
	if err != nil {
		a.shutdown(ctx, nil, nil)
		return 0, fmt.Errorf("build sweeper: %w", err)
	}
	client := do.MustInvoke[*goredis.Client](a.injector)
	defer a.shutdown(ctx, nil, client)

	return sweeper.Sweep(ctx)
}

// shutdown order: sweeper, container (http, database, telemetry), redis
func (a *App) shutdown(ctx context.Context, sweeper *session.IndexSweeper, client *goredis.Client) {
	if sweeper != nil {
		if err := sweeper.Stop(); err != nil {
			a.logger.ErrorCtx(ctx, "sweeper stop failed", zap.Error(err))
		}
	}
	if err := a.injector.Shutdown(); err != nil {
		a.logger.ErrorCtx(ctx, "container shutdown failed", zap.Error(err))
	}
	if client != nil {
		if err := client.Close(); err != nil {
			a.logger.ErrorCtx(ctx, "redis close failed", zap.Error(err))
		}
	}
	a.logger.InfoCtx(ctx, "all components stopped")
}
