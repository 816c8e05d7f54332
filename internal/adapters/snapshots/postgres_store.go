package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/platform/obs"
	"shipment-dashboard/internal/ports"
)

var _ ports.SnapshotStore = (*PostgresStore)(nil)

// PostgresStore persists last good pages in Postgres.
type PostgresStore struct {
	DB  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db, now: time.Now}
}

func (s *PostgresStore) SavePage(ctx context.Context, key string, p domain.PageResult) (err error) {
	defer obs.Time(ctx, "snapshots.pg.SavePage")(&err)

	if s.DB == nil {
		return errors.New("snapshot store: db is nil")
	}
	payload, err := encodePage(key, p)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", key, err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO page_snapshots (cache_key, page, total_count, payload, saved_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (cache_key) DO UPDATE
	SET page = EXCLUDED.page,
		total_count = EXCLUDED.total_count,
		payload = EXCLUDED.payload,
		saved_at = EXCLUDED.saved_at;
	`, key, p.Page, p.TotalCount, payload, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) LoadPage(ctx context.Context, key string) (_ domain.PageResult, _ bool, err error) {
	defer obs.Time(ctx, "snapshots.pg.LoadPage")(&err)

	if s.DB == nil {
		return domain.PageResult{}, false, errors.New("snapshot store: db is nil")
	}

	var payload string
	err = s.DB.QueryRowContext(ctx, `
	SELECT payload
	FROM page_snapshots
	WHERE cache_key = $1;
	`, key).Scan(&payload)
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

// LoadMany fetches several snapshots in one query. Missing keys are absent
// from the result.
func (s *PostgresStore) LoadMany(ctx context.Context, keys []string) (_ map[string]domain.PageResult, err error) {
	defer obs.Time(ctx, "snapshots.pg.LoadMany")(&err)

	uniq := uniqueKeys(keys)
	if len(uniq) == 0 {
		return map[string]domain.PageResult{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT cache_key, payload
	FROM page_snapshots
	WHERE cache_key = ANY($1::text[]);
	`, uniq)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: query page_snapshots table: %w", err)
	}
	defer rows.Close()

	return scanPages(rows)
}

// Purge deletes snapshots saved before cutoff.
func (s *PostgresStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM page_snapshots WHERE saved_at < $1;`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge snapshots: %w", err)
	}
	return res.RowsAffected()
}
