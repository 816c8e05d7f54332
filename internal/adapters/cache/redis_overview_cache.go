package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/platform/obs"
	"shipment-dashboard/internal/ports"
)

var _ ports.OverviewCache = (*RedisOverviewCache)(nil)

const defaultPrefix = "dashboard:"

// RedisOverviewCache stores overview payloads in Redis as msgpack with a TTL.
// Keys are namespaced by prefix so Invalidate only touches this cache.
type RedisOverviewCache struct {
	client *redis.Client
	prefix string
}

func NewRedisOverviewCache(client *redis.Client, prefix string) *RedisOverviewCache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisOverviewCache{client: client, prefix: prefix}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisOverviewCache) Get(ctx context.Context, key string) (_ domain.Overview, _ bool, err error) {
	defer obs.Time(ctx, "overview.cache.Get")(&err)

	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Overview{}, false, nil
	}
	if err != nil {
		return domain.Overview{}, false, fmt.Errorf("get overview cache %q: %w", key, err)
	}

	var w overviewWire
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return domain.Overview{}, false, fmt.Errorf("decode overview cache %q: %w", key, err)
	}
	o, err := w.toDomain()
	if err != nil {
		return domain.Overview{}, false, fmt.Errorf("decode overview cache %q: %w", key, err)
	}
	return o, true, nil
}

func (c *RedisOverviewCache) Put(ctx context.Context, key string, o domain.Overview, ttl time.Duration) (err error) {
	defer obs.Time(ctx, "overview.cache.Put")(&err)

	b, err := msgpack.Marshal(fromDomain(o))
	if err != nil {
		return fmt.Errorf("encode overview cache %q: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, b, ttl).Err(); err != nil {
		return fmt.Errorf("put overview cache %q: %w", key, err)
	}
	return nil
}

// Invalidate deletes every key under the prefix using SCAN, never KEYS.
func (c *RedisOverviewCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("invalidate overview cache: scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("invalidate overview cache: del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// overviewWire is the msgpack form of domain.Overview; dates travel as
// YYYY-MM-DD strings.
type overviewWire struct {
	TotalShipments     int           `msgpack:"total_shipments"`
	OnTime             int           `msgpack:"on_time"`
	Delayed            int           `msgpack:"delayed"`
	TotalVolume        float64       `msgpack:"total_volume"`
	UtilizationPercent float64       `msgpack:"utilization_percent"`
	Carriers           []carrierWire `msgpack:"carriers"`
	Modes              []modeWire    `msgpack:"modes"`
	Throughput         []dailyWire   `msgpack:"throughput"`
	FetchedAt          time.Time     `msgpack:"fetched_at"`
}

type carrierWire struct {
	ArrivalDate string `msgpack:"arrival_date"`
	Carrier     string `msgpack:"carrier"`
	Count       int    `msgpack:"count"`
}

type modeWire struct {
	Mode        string  `msgpack:"mode"`
	TotalVolume float64 `msgpack:"total_volume"`
}

type dailyWire struct {
	ArrivalDate      string `msgpack:"arrival_date"`
	PackagesReceived int    `msgpack:"packages_received"`
}

func fromDomain(o domain.Overview) overviewWire {
	w := overviewWire{
		TotalShipments:     o.Summary.TotalShipments,
		OnTime:             o.Summary.OnTime,
		Delayed:            o.Summary.Delayed,
		TotalVolume:        o.Summary.WarehouseUtilization.TotalVolume,
		UtilizationPercent: o.Summary.WarehouseUtilization.UtilizationPercent,
		FetchedAt:          o.FetchedAt,
	}
	for _, c := range o.Carriers {
		w.Carriers = append(w.Carriers, carrierWire{ArrivalDate: c.ArrivalDate.String(), Carrier: c.Carrier, Count: c.Count})
	}
	for _, m := range o.Modes {
		w.Modes = append(w.Modes, modeWire{Mode: m.Mode, TotalVolume: m.TotalVolume})
	}
	for _, p := range o.Throughput {
		w.Throughput = append(w.Throughput, dailyWire{ArrivalDate: p.ArrivalDate.String(), PackagesReceived: p.PackagesReceived})
	}
	return w
}

func (w overviewWire) toDomain() (domain.Overview, error) {
	o := domain.Overview{
		Summary: domain.Summary{
			TotalShipments: w.TotalShipments,
			OnTime:         w.OnTime,
			Delayed:        w.Delayed,
			WarehouseUtilization: domain.WarehouseUtilization{
				TotalVolume:        w.TotalVolume,
				UtilizationPercent: w.UtilizationPercent,
			},
		},
		Carriers:   make([]domain.CarrierCount, 0, len(w.Carriers)),
		Modes:      make([]domain.ModeVolume, 0, len(w.Modes)),
		Throughput: make([]domain.DailyPoint, 0, len(w.Throughput)),
		FetchedAt:  w.FetchedAt,
	}
	for _, c := range w.Carriers {
		d, err := domain.ParseDate(c.ArrivalDate)
		if err != nil {
			return domain.Overview{}, err
		}
		o.Carriers = append(o.Carriers, domain.CarrierCount{ArrivalDate: d, Carrier: c.Carrier, Count: c.Count})
	}
	for _, m := range w.Modes {
		o.Modes = append(o.Modes, domain.ModeVolume{Mode: m.Mode, TotalVolume: m.TotalVolume})
	}
	for _, p := range w.Throughput {
		d, err := domain.ParseDate(p.ArrivalDate)
		if err != nil {
			return domain.Overview{}, err
		}
		o.Throughput = append(o.Throughput, domain.DailyPoint{ArrivalDate: d, PackagesReceived: p.PackagesReceived})
	}
	return o, nil
}
