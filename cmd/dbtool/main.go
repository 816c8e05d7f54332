package main

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shipment-dashboard/internal/adapters/snapshots"
	"shipment-dashboard/internal/config"
	"shipment-dashboard/internal/platform/db"
	"shipment-dashboard/internal/platform/logging"
)

type purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// dbtool prepares the snapshot store schema and optionally purges
// snapshots older than SNAPSHOT_RETENTION (e.g. "720h").
func main() {
	loaded := godotenv.Load() == nil

	logger, err := logging.New(config.Get("LOG_LEVEL", "info"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	if !loaded {
		logger.Info("no .env file found, using environment variables")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	sqlitePath := config.Get("SNAPSHOT_SQLITE_PATH", "")
	if strings.TrimSpace(databaseURL) == "" && strings.TrimSpace(sqlitePath) == "" {
		logger.Fatal("DATABASE_URL or SNAPSHOT_SQLITE_PATH is required")
	}

	var retention time.Duration
	if raw := config.Get("SNAPSHOT_RETENTION", ""); raw != "" {
		if retention, err = time.ParseDuration(raw); err != nil || retention <= 0 {
			logger.Fatal("SNAPSHOT_RETENTION must be a positive duration", zap.String("value", raw), zap.Error(err))
		}
	}

	ctx := context.Background()
	if databaseURL != "" {
		conn, err := db.Open(databaseURL)
		if err != nil {
			logger.Fatal("open postgres", zap.Error(err))
		}
		defer conn.Close()

		if err := prepare(ctx, logger.With(zap.String("store", "postgres")), conn, snapshots.NewPostgresStore(conn), retention); err != nil {
			logger.Fatal("postgres snapshot store not ready", zap.Error(err))
		}
	}
	if sqlitePath != "" {
		conn, err := db.OpenSQLite(sqlitePath)
		if err != nil {
			logger.Fatal("open sqlite", zap.Error(err))
		}
		defer conn.Close()

		if err := prepare(ctx, logger.With(zap.String("store", "sqlite")), conn, snapshots.NewSqliteStore(conn), retention); err != nil {
			logger.Fatal("sqlite snapshot store not ready", zap.Error(err))
		}
	}
}

func prepare(ctx context.Context, logger *zap.Logger, conn *sql.DB, store purger, retention time.Duration) error {
	logger.Info("initializing snapshot schema")
	if err := snapshots.InitSchema(ctx, conn); err != nil {
		return err
	}
	logger.Info("schema ready")

	if retention == 0 {
		return nil
	}
	cutoff := time.Now().Add(-retention)
	n, err := store.Purge(ctx, cutoff)
	if err != nil {
		return err
	}
	logger.Info("purged old snapshots", zap.Int64("rows", n), zap.Time("cutoff", cutoff))
	return nil
}
