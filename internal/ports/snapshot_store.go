package ports

import (
	"context"
	"shipment-dashboard/internal/domain"
)

// Port: persistence for the last good page of each filter snapshot, so a
// restarted dashboard can show stale data while the first query loads.
type SnapshotStore interface {
	SavePage(ctx context.Context, key string, page domain.PageResult) error
	// Return the stored page and whether one existed.
	LoadPage(ctx context.Context, key string) (domain.PageResult, bool, error)
	// Return the stored pages for keys. Missing keys are absent.
	LoadMany(ctx context.Context, keys []string) (map[string]domain.PageResult, error)
}
