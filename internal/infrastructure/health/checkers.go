package health

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/dashboard-cache/internal/core/ports"
)

const probeKey = "__health__:probe"

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client redis.Cmdable }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// cacheHealthChecker exercises the cache contract itself. Expire on the probe key is a no-op
// for an absent key, leaves the statistics alone, and still reports a store failure.
type cacheHealthChecker struct {
	name  string
	cache ports.Cache
}

func (c *cacheHealthChecker) Name() string { return c.name }
func (c *cacheHealthChecker) Check(ctx context.Context) error {
	return c.cache.Expire(ctx, probeKey, time.Second)
}

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client redis.Cmdable) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewCacheHealthChecker creates a health checker that probes c through the cache contract.
func NewCacheHealthChecker(name string, c ports.Cache) ports.HealthChecker {
	return &cacheHealthChecker{name: name, cache: c}
}
