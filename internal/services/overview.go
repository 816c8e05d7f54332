package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/platform/logging"
	"shipment-dashboard/internal/platform/metrics"
	"shipment-dashboard/internal/platform/obs"
	"shipment-dashboard/internal/ports"
)

// OverviewLoader fetches the dashboard KPIs and chart series. cache may be nil.
type OverviewLoader struct {
	source  ports.OverviewSource
	cache   ports.OverviewCache
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewOverviewLoader(source ports.OverviewSource, cache ports.OverviewCache, ttl time.Duration, now func() time.Time, logger *zap.Logger, m *metrics.Metrics) *OverviewLoader {
	if now == nil {
		now = time.Now
	}
	return &OverviewLoader{
		source:  source,
		cache:   cache,
		ttl:     ttl,
		now:     now,
		logger:  logging.OrNop(logger),
		metrics: m,
	}
}

func overviewKey(r domain.DateRange) string {
	return fmt.Sprintf("overview:%s:%s", r.Start, r.End)
}

// Load fetches the four overview endpoints concurrently. r bounds the
// carrier breakdown only. A cache failure never fails the load.
func (l *OverviewLoader) Load(ctx context.Context, r domain.DateRange) (o domain.Overview, err error) {
	defer obs.Time(ctx, "overview.load")(&err)

	key := overviewKey(r)
	if l.cache != nil {
		cached, ok, cerr := l.cache.Get(ctx, key)
		if cerr != nil {
			l.logger.Warn("overview cache get failed", zap.String("key", key), zap.Error(cerr))
		}
		l.metrics.OverviewCache(ok)
		if ok {
			return cached, nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := l.source.Summary(gctx)
		o.Summary = s
		return err
	})
	g.Go(func() error {
		c, err := l.source.ReceivedByCarrier(gctx, r)
		o.Carriers = c
		return err
	})
	g.Go(func() error {
		m, err := l.source.VolumeByMode(gctx)
		o.Modes = m
		return err
	})
	g.Go(func() error {
		t, err := l.source.Throughput(gctx)
		o.Throughput = t
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Overview{}, fmt.Errorf("load overview: %w", err)
	}
	o.FetchedAt = l.now().UTC()

	if l.cache != nil && l.ttl > 0 {
		if perr := l.cache.Put(ctx, key, o, l.ttl); perr != nil {
			l.logger.Warn("overview cache put failed", zap.String("key", key), zap.Error(perr))
		}
	}
	return o, nil
}

// Invalidate drops cached overviews. It is a no-op without a cache.
func (l *OverviewLoader) Invalidate(ctx context.Context) error {
	if l.cache == nil {
		return nil
	}
	if err := l.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate overview cache: %w", err)
	}
	return nil
}
