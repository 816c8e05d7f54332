package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/ports"
)

var _ ports.SnapshotStore = (*SqliteStore)(nil)

// SqliteStore persists last good pages in a local SQLite file.
type SqliteStore struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSqliteStore(db *sql.DB) *SqliteStore {
	return &SqliteStore{DB: db, now: time.Now}
}

func (s *SqliteStore) SavePage(ctx context.Context, key string, p domain.PageResult) error {
	if s.DB == nil {
		return errors.New("snapshot store: db is nil")
	}
	payload, err := encodePage(key, p)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", key, err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO page_snapshots (
		cache_key,
		page,
		total_count,
		payload,
		saved_at
	)
	VALUES (?, ?, ?, ?, ?)
	`, key, p.Page, p.TotalCount, payload, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", key, err)
	}
	return nil
}

func (s *SqliteStore) LoadPage(ctx context.Context, key string) (domain.PageResult, bool, error) {
	if s.DB == nil {
		return domain.PageResult{}, false, errors.New("snapshot store: db is nil")
	}

	var payload string
	err := s.DB.QueryRowContext(ctx, `SELECT payload FROM page_snapshots WHERE cache_key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PageResult{}, false, nil
	}
	if err != nil {
		return domain.PageResult{}, false, fmt.Errorf("load snapshot %q: %w", key, err)
	}

	p, err := decodePage(payload)
	if err != nil {
		return domain.PageResult{}, false, fmt.Errorf("load snapshot %q: %w", key, err)
	}
	return p, true, nil
}

// LoadMany fetches several snapshots in one query.
func (s *SqliteStore) LoadMany(ctx context.Context, keys []string) (map[string]domain.PageResult, error) {
	uniq := uniqueKeys(keys)
	if len(uniq) == 0 {
		return map[string]domain.PageResult{}, nil
	}

	ph := make([]string, len(uniq))
	args := make([]any, len(uniq))
	for i, k := range uniq {
		ph[i] = "?"
		args[i] = k
	}

	// SQLite cannot bind a slice to IN (...); only placeholders are interpolated.
	q := fmt.Sprintf(`
	SELECT cache_key, payload
	FROM page_snapshots
	WHERE cache_key IN (%s);
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: query page_snapshots table: %w", err)
	}
	defer rows.Close()

	return scanPages(rows)
}

func (s *SqliteStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM page_snapshots WHERE saved_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge snapshots: %w", err)
	}
	return res.RowsAffected()
}

func uniqueKeys(keys []string) []string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	return uniq
}

func scanPages(rows *sql.Rows) (map[string]domain.PageResult, error) {
	out := map[string]domain.PageResult{}
	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("load snapshots: scan rows: %w", err)
		}
		p, err := decodePage(payload)
		if err != nil {
			return nil, fmt.Errorf("load snapshots %q: %w", key, err)
		}
		out[key] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshots: row iteration: %w", err)
	}
	return out, nil
}
