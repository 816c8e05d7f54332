package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"shipment-dashboard/internal/domain"
)

// InitSchema creates the page_snapshots table. The DDL is valid for both
// Postgres and SQLite.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createSnapshotsQuery := `
	CREATE TABLE IF NOT EXISTS page_snapshots (
		cache_key TEXT PRIMARY KEY,
		page INTEGER NOT NULL,
		total_count INTEGER NOT NULL,
		payload TEXT NOT NULL,
		saved_at BIGINT NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_page_snapshots_saved_at
	ON page_snapshots(saved_at);
	`

	statements := []string{
		createSnapshotsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

func encodePage(key string, p domain.PageResult) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("empty cache key")
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal page: %w", err)
	}
	return string(b), nil
}

func decodePage(payload string) (domain.PageResult, error) {
	var p domain.PageResult
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return domain.PageResult{}, fmt.Errorf("unmarshal page: %w", err)
	}
	if p.Items == nil {
		p.Items = []domain.ShipmentRecord{}
	}
	return p, nil
}
