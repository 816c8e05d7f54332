package snapshots

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/platform/db"
	"shipment-dashboard/internal/ports"
	"shipment-dashboard/internal/testutil"
)

type snapshotStore interface {
	ports.SnapshotStore
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

func samplePage() domain.PageResult {
	return domain.PageResult{Page: 2, PageSize: 3, TotalCount: 7, Items: testutil.Shipments(3)}
}

func exerciseStore(t *testing.T, store snapshotStore) {
	ctx := context.Background()
	f := domain.NewFilterState(3)
	f.Page = 2
	key := f.CacheKey()

	_, ok, err := store.LoadPage(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SavePage(ctx, key, samplePage()))
	got, ok, err := store.LoadPage(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, got.TotalCount)
	require.Len(t, got.Items, 3)
	assert.Equal(t, int64(2), got.Items[1].ID)
	assert.Equal(t, "2025-02-01", got.Items[1].ArrivalDate.String())
	assert.True(t, got.Items[1].DeliveredDate.IsZero())

	updated := samplePage()
	updated.TotalCount = 9
	require.NoError(t, store.SavePage(ctx, key, updated))
	got, _, err = store.LoadPage(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 9, got.TotalCount, "saving the same key replaces the snapshot")

	invalid := samplePage()
	invalid.Page = 10
	assert.Error(t, store.SavePage(ctx, "other", invalid))
	assert.Error(t, store.SavePage(ctx, " ", samplePage()))

	many, err := store.LoadMany(ctx, []string{key, key, "missing", ""})
	require.NoError(t, err)
	assert.Len(t, many, 1)
	assert.Contains(t, many, key)

	n, err := store.Purge(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, ok, err = store.LoadPage(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSqliteStore(t *testing.T) {
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, InitSchema(context.Background(), conn))
	require.NoError(t, InitSchema(context.Background(), conn), "schema init is idempotent")

	exerciseStore(t, NewSqliteStore(conn))
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	conn, err := db.Open(url)
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, InitSchema(ctx, conn))
	_, err = conn.ExecContext(ctx, `DELETE FROM page_snapshots`)
	require.NoError(t, err)

	exerciseStore(t, NewPostgresStore(conn))
}
