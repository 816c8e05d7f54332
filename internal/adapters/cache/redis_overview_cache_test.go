package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/testutil"
)

func newTestCache(t *testing.T) (*RedisOverviewCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisOverviewCache(client, "test:"), mr
}

func sampleOverview() domain.Overview {
	return domain.Overview{
		Summary: domain.Summary{
			TotalShipments: 12, OnTime: 9, Delayed: 3,
			WarehouseUtilization: domain.WarehouseUtilization{TotalVolume: 420.5, UtilizationPercent: 0.84},
		},
		Carriers:   []domain.CarrierCount{{ArrivalDate: domain.MustParseDate("2025-01-05"), Carrier: "DHL", Count: 4}},
		Modes:      []domain.ModeVolume{{Mode: "air", TotalVolume: 120}},
		Throughput: testutil.Daily(),
		FetchedAt:  time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisOverviewCachePutGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "overview::")
	require.NoError(t, err)
	assert.False(t, ok)

	want := sampleOverview()
	require.NoError(t, c.Put(ctx, "overview::", want, time.Minute))
	assert.True(t, mr.Exists("test:overview::"))

	got, ok, err := c.Get(ctx, "overview::")
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(want.Summary, got.Summary); diff != "" {
		t.Fatalf("summary (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Throughput, got.Throughput); diff != "" {
		t.Fatalf("throughput (-want +got):\n%s", diff)
	}
	assert.Equal(t, "2025-01-05", got.Carriers[0].ArrivalDate.String())
	assert.True(t, want.FetchedAt.Equal(got.FetchedAt))
}

func TestRedisOverviewCacheExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", sampleOverview(), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisOverviewCacheInvalidateKeepsForeignKeys(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, c.Put(ctx, k, sampleOverview(), time.Minute))
	}
	require.NoError(t, mr.Set("other:key", "v"))

	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, mr.Exists("test:a"))
	assert.False(t, mr.Exists("test:c"))
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisOverviewCacheCorruptPayload(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("test:bad", "not msgpack"))

	_, ok, err := c.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}
