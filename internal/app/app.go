// Package app wires configuration, storage, the upstream client and the
// services into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/recipe-stock/internal/adapter/postgres"
	actorrepo "github.com/heartmarshall/recipe-stock/internal/adapter/postgres/actor"
	auditrepo "github.com/heartmarshall/recipe-stock/internal/adapter/postgres/audit"
	quotarepo "github.com/heartmarshall/recipe-stock/internal/adapter/postgres/quota"
	reciperepo "github.com/heartmarshall/recipe-stock/internal/adapter/postgres/recipe"
	"github.com/heartmarshall/recipe-stock/internal/adapter/provider/rakuten"
	"github.com/heartmarshall/recipe-stock/internal/config"
	"github.com/heartmarshall/recipe-stock/internal/metrics"
	"github.com/heartmarshall/recipe-stock/internal/service/actor"
	"github.com/heartmarshall/recipe-stock/internal/service/catalog"
	"github.com/heartmarshall/recipe-stock/internal/service/ingest"
	"github.com/heartmarshall/recipe-stock/internal/service/quota"
	"github.com/heartmarshall/recipe-stock/internal/transport/middleware"
	"github.com/heartmarshall/recipe-stock/internal/transport/rest"
)

// App holds the wired services. Close releases the database pool.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Clock   clockwork.Clock

	Quota   *quota.Manager
	Actors  *actor.Service
	Catalog *catalog.Service
	Ingest  *ingest.Service

	pool *pgxpool.Pool
}

// New connects to the database, applies migrations when AutoMigrate is set
// and builds every service.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.Database.AutoMigrate {
		if err := migrateUp(ctx, cfg.Database.DSN, logger); err != nil {
			return nil, err
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	clock := clockwork.NewRealClock()
	m := metrics.New()

	txm := postgres.NewTxManager(pool)
	recipes := reciperepo.New(pool)

	quotaMgr := quota.NewManager(logger, quotarepo.New(pool), txm, clock, quota.Config{
		MaxBalance:  cfg.Quota.MaxBalance,
		DailyRefill: cfg.Quota.DailyRefill,
		RefillHour:  cfg.Quota.RefillHour,
		Location:    cfg.Quota.Location,
	}, m)

	client := rakuten.NewClient(cfg.Rakuten, m, logger)

	ingestSvc := ingest.NewService(logger, client, recipes, quotaMgr, txm, clock, m, cfg.Catalog.StockPause)
	ingestSvc.SetJournal(auditrepo.New(pool))

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Clock:   clock,
		Quota:   quotaMgr,
		Actors:  actor.NewService(logger, actorrepo.New(pool), quotaMgr, clock),
		Catalog: catalog.NewService(logger, client, cfg.Catalog.CacheTTL, cfg.Catalog.SuggestLimit),
		Ingest:  ingestSvc,
		pool:    pool,
	}, nil
}

// Close releases the database pool.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// OpsHandler returns the health and metrics endpoints wrapped in the
// request id, logging and recovery middleware.
func (a *App) OpsHandler() http.Handler {
	health := rest.NewHealthHandler(
		[]rest.Check{{Name: "postgres", Pinger: a.pool}},
		a.Quota,
		a.Clock,
		BuildVersion(),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.HandleFunc("GET /health", health.Health)
	mux.Handle("GET /metrics", a.Metrics.Handler())

	return middleware.Chain(
		middleware.RequestID(),
		middleware.Logger(a.Logger),
		middleware.Recovery(a.Logger),
	)(mux)
}

// Serve runs the ops HTTP server until ctx is done, then shuts it down
// within the configured timeout.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config.Server
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           a.OpsHandler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("ops server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("app: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down ops server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	return nil
}

// Run loads configuration, builds the application and serves the ops
// endpoints until ctx is done.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log, nil)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	a, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(ctx)
}

func migrateUp(ctx context.Context, dsn string, logger *slog.Logger) error {
	m, err := postgres.NewMigrator(ctx, dsn)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	defer m.Close()

	applied, err := m.Up(ctx)
	if err != nil {
		return fmt.Errorf("app: migrate: %w", err)
	}
	logger.Info("migrations applied", slog.Int("count", len(applied)))
	return nil
}
