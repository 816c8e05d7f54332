package ports

import (
	"context"
	"shipment-dashboard/internal/domain"
	"time"
)

// Optional short-lived cache for overview payloads.
type OverviewCache interface {
	Get(ctx context.Context, key string) (domain.Overview, bool, error)
	Put(ctx context.Context, key string, o domain.Overview, ttl time.Duration) error
	// Drop every cached overview, e.g. after a bulk ingest.
	Invalidate(ctx context.Context) error
}
