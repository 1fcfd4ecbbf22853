// Package cache is a redis read-through cache for catalog reads. Every
// failure is logged and bypassed; callers always fall back to the loader.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// CatalogPrefix namespaces every catalog key.
const CatalogPrefix = "planto:catalog:"

var cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "planto_catalog_cache_requests_total",
	Help: "Catalog cache lookups by result (hit, miss, error).",
}, []string{"result"})

// Cache stores JSON-encoded values in redis with a fixed TTL. A nil *Cache is
// valid and never caches.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a cache over client. A non-positive ttl disables caching.
func New(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Key joins parts under the catalog prefix.
func Key(parts ...string) string {
	return CatalogPrefix + strings.Join(parts, ":")
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Errors from load are returned unchanged and never cached.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	if v, ok := get[T](ctx, c, key); ok {
		return v, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.set(ctx, key, v)
	return v, nil
}

func get[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var v T
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			cacheRequests.WithLabelValues("miss").Inc()
		} else {
			cacheRequests.WithLabelValues("error").Inc()
			c.logger.WarnContext(ctx, "catalog cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return v, false
	}

	if err := json.Unmarshal(data, &v); err != nil {
		cacheRequests.WithLabelValues("error").Inc()
		c.logger.WarnContext(ctx, "catalog cache entry corrupt",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return v, false
	}
	cacheRequests.WithLabelValues("hit").Inc()
	return v, true
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.WarnContext(ctx, "catalog cache encode failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "catalog cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// InvalidateCatalog drops every catalog key and returns how many were removed.
func (c *Cache) InvalidateCatalog(ctx context.Context) int {
	if c == nil {
		return 0
	}

	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, CatalogPrefix+"*", 100).Result()
		if err != nil {
			c.logger.WarnContext(ctx, "catalog cache scan failed", slog.String("error", err.Error()))
			return removed
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				c.logger.WarnContext(ctx, "catalog cache invalidation failed", slog.String("error", err.Error()))
				return removed
			}
			removed += int(n)
		}
		if next == 0 {
			return removed
		}
		cursor = next
	}
}
