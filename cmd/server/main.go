package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shipment-dashboard/internal/adapters/cache"
	"shipment-dashboard/internal/adapters/metricsapi"
	"shipment-dashboard/internal/adapters/snapshots"
	"shipment-dashboard/internal/api"
	"shipment-dashboard/internal/config"
	"shipment-dashboard/internal/platform/db"
	"shipment-dashboard/internal/platform/logging"
	"shipment-dashboard/internal/platform/metrics"
	"shipment-dashboard/internal/ports"
	"shipment-dashboard/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (metrics API, snapshot store, overview cache)
// behind ports and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, loadedDotenv, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	if !loadedDotenv {
		logger.Info("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	client, err := metricsapi.NewClient(cfg.MetricsAPIURL, metricsapi.Options{
		Timeout:     cfg.RequestTimeout,
		MaxAttempts: cfg.RetryMaxAttempts,
		Logger:      logger,
		Metrics:     m,
	})
	if err != nil {
		return err
	}

	store, closeStore, err := openSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	overviewCache, closeCache, err := openOverviewCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	engine, err := services.NewEngine(services.EngineConfig{
		PageSize:        cfg.PageSize,
		ExportDir:       cfg.ExportDir,
		AbortSuperseded: cfg.AbortSuperseded,
		OverviewTTL:     cfg.OverviewTTL,
	}, services.Deps{
		API:     client,
		Store:   store,
		Cache:   overviewCache,
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	if restored, err := engine.Restore(ctx); err != nil {
		logger.Warn("snapshot restore failed", zap.Error(err))
	} else if restored {
		logger.Info("restored last good page from snapshot store")
	}
	// Initial load; the outcome shows up in GET /state.
	go func() { _ = engine.Refresh(ctx) }()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(engine, m, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * cfg.RequestTimeout * time.Duration(cfg.RetryMaxAttempts),
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("metrics_api", cfg.MetricsAPIURL))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// openSnapshotStore prefers Postgres, then SQLite, and runs without
// persistence when neither is configured.
func openSnapshotStore(ctx context.Context, cfg config.Config) (ports.SnapshotStore, func(), error) {
	var (
		conn  *sql.DB
		store ports.SnapshotStore
		err   error
	)
	switch {
	case cfg.DatabaseURL != "":
		if conn, err = db.Open(cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
		store = snapshots.NewPostgresStore(conn)
	case cfg.SnapshotSQLite != "":
		if conn, err = db.OpenSQLite(cfg.SnapshotSQLite); err != nil {
			return nil, nil, err
		}
		store = snapshots.NewSqliteStore(conn)
	default:
		return nil, func() {}, nil
	}

	if err := snapshots.InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return store, func() { _ = conn.Close() }, nil
}

func openOverviewCache(ctx context.Context, cfg config.Config) (ports.OverviewCache, func(), error) {
	if cfg.RedisURL == "" {
		return nil, func() {}, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedisOverviewCache(client, ""), func() { _ = client.Close() }, nil
}
