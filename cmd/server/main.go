package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spinkonweb-dotcom/booxclash-pro/internal/api"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/audit"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/curriculum"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/lookup"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/platform/cache"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/platform/config"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/platform/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Log.NewLogger(os.Stdout))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	deps, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.close()

	handler, err := newHandler(ctx, cfg, deps)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "backend", cfg.Curriculum.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

// dependencies are the optional backing services. Nil fields are not
// configured.
type dependencies struct {
	db    *database.DB
	cache *cache.Cache
}

func connect(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{}
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		deps.db = db
	}
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			deps.close()
			return nil, err
		}
		deps.cache = c
	}
	return deps, nil
}

func (d *dependencies) close() {
	if d.cache != nil {
		d.cache.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}

func (d *dependencies) checks() []api.Checker {
	var checks []api.Checker
	if d.db != nil {
		checks = append(checks, d.db)
	}
	if d.cache != nil {
		checks = append(checks, d.cache)
	}
	return checks
}

// newHandler assembles the lookup pipeline and HTTP routes.
func newHandler(ctx context.Context, cfg *config.Config, deps *dependencies) (http.Handler, error) {
	store, err := newStore(ctx, cfg, deps)
	if err != nil {
		return nil, err
	}

	events, err := newEventLogger(ctx, cfg, deps)
	if err != nil {
		return nil, err
	}

	svc, err := lookup.NewService(lookup.ServiceConfig{Store: store, Events: events})
	if err != nil {
		return nil, err
	}

	h, err := api.NewHandler(api.HandlerConfig{
		Lookup:     svc,
		Checks:     deps.checks(),
		APIKeyHash: cfg.Auth.APIKeyHash,
	})
	if err != nil {
		return nil, err
	}
	return h.Routes(), nil
}

func newStore(ctx context.Context, cfg *config.Config, deps *dependencies) (curriculum.Store, error) {
	var store curriculum.Store
	switch cfg.Curriculum.Backend {
	case config.BackendPostgres:
		if deps.db == nil {
			return nil, fmt.Errorf("postgres backend requires a database")
		}
		pg, err := curriculum.NewPostgresStore(deps.db.Pool)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		store = pg
	default:
		loader, err := curriculum.NewLoader(cfg.Curriculum.Path)
		if err != nil {
			return nil, err
		}
		store = loader
	}

	if deps.cache != nil {
		store = curriculum.NewCachedStore(store, deps.cache.Client, deps.cache.TTL)
	}
	return store, nil
}

func newEventLogger(ctx context.Context, cfg *config.Config, deps *dependencies) (audit.Logger, error) {
	if !cfg.Audit.Enabled || deps.db == nil {
		return audit.NopLogger{}, nil
	}
	events := audit.NewPostgresLogger(deps.db.Pool)
	if err := events.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return events, nil
}
