package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
	"github.com/avatarctic/dashboard-cache/internal/core/ports"
)

const defaultScanCount = 100

// RedisCache implements ports.Cache using a Redis client shared across processes.
// Reads fail open (a store failure is a miss); writes fail closed (the error is returned).
type RedisCache struct {
	r   redis.Cmdable
	cfg cache.Config

	logger    *logrus.Logger
	timeout   time.Duration
	scanCount int64
	retries   uint64
	breaker   *gobreaker.CircuitBreaker[any]

	stats cache.Counters
}

// Option customizes a RedisCache.
type Option func(*RedisCache)

// WithLogger sets the logger used for warnings and debug traces.
func WithLogger(l *logrus.Logger) Option { return func(c *RedisCache) { c.logger = l } }

// WithOpTimeout bounds every store call. Zero leaves calls bounded only by the caller's context
// and the client's own socket timeouts.
func WithOpTimeout(d time.Duration) Option { return func(c *RedisCache) { c.timeout = d } }

// WithScanCount sets the SCAN batch hint and the DEL batch size.
func WithScanCount(n int64) Option { return func(c *RedisCache) { c.scanCount = n } }

// WithSetRetries retries failed writes with exponential backoff before surfacing the error.
func WithSetRetries(n uint64) Option { return func(c *RedisCache) { c.retries = n } }

// WithCircuitBreaker stops calling the store after repeated failures.
// While open, reads miss immediately and writes return cache.ErrUnavailable.
func WithCircuitBreaker(st gobreaker.Settings) Option {
	return func(c *RedisCache) {
		if st.IsSuccessful == nil {
			st.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, redis.Nil) }
		}
		c.breaker = gobreaker.NewCircuitBreaker[any](st)
	}
}

// NewRedisCache creates a new Redis-backed cache. The client's lifecycle stays with the caller.
func NewRedisCache(r redis.Cmdable, cfg cache.Config, opts ...Option) *RedisCache {
	c := &RedisCache{r: r, cfg: cfg, scanCount: defaultScanCount}
	for _, opt := range opts {
		opt(c)
	}
	if c.scanCount <= 0 {
		c.scanCount = defaultScanCount
	}
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetOutput(io.Discard)
	}
	return c
}

func (c *RedisCache) namespaced(key string) string {
	return cache.Namespace(c.cfg.KeyPrefix, key)
}

// Set implements Cache.Set. The entry, its TTL and its tag memberships are written in one
// MULTI/EXEC so a failure never leaves a tagged key behind without its tags.
func (c *RedisCache) Set(ctx context.Context, key string, value any, opts ...cache.SetOption) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}
	o := cache.ResolveSetOptions(c.cfg, opts...)
	data, err := encodeValue(value, o.Compress)
	if err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	ns := c.namespaced(key)
	write := func() error {
		return c.call(ctx, func(ctx context.Context) error {
			_, err := c.r.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				// A zero TTL issues a plain SET, which also drops any previous expiration.
				pipe.Set(ctx, ns, data, o.TTL)
				for _, tag := range o.Tags {
					pipe.SAdd(ctx, cache.TagKey(c.cfg.KeyPrefix, tag), ns)
				}
				return nil
			})
			return err
		})
	}
	if err := c.retry(ctx, write); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	c.stats.Set()
	c.trace("set", ns, logrus.Fields{"ttl": o.TTL.String(), "tags": o.Tags, "compressed": o.Compress, "bytes": len(data)})
	return nil
}

// Get implements Cache.Get.
func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}
	if err := cache.ValidateDestination(dst); err != nil {
		return false, err
	}
	ns := c.namespaced(key)
	var data []byte
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.r.Get(ctx, ns).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		c.stats.Miss()
		c.trace("get", ns, logrus.Fields{"hit": false})
		return false, nil
	}
	if err != nil {
		c.logger.WithFields(logrus.Fields{"key": ns}).WithError(err).Warn("redis cache get failed, treating as miss")
		c.stats.Miss()
		return false, nil
	}
	if err := decodeValue(data, dst); err != nil {
		c.stats.Miss()
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}
	c.stats.Hit()
	c.trace("get", ns, logrus.Fields{"hit": true})
	return true, nil
}

// Has implements Cache.Has.
func (c *RedisCache) Has(ctx context.Context, key string) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}
	ns := c.namespaced(key)
	var n int64
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		n, err = c.r.Exists(ctx, ns).Result()
		return err
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{"key": ns}).WithError(err).Warn("redis cache exists failed, treating as absent")
		return false, nil
	}
	c.trace("has", ns, logrus.Fields{"found": n > 0})
	return n > 0, nil
}

// Delete implements Cache.Delete.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}
	ns := c.namespaced(key)
	n, err := c.del(ctx, ns)
	if err != nil {
		return fmt.Errorf("cache delete %q: %w", key, err)
	}
	c.stats.Deleted(n)
	c.trace("delete", ns, logrus.Fields{"removed": n})
	return nil
}

// DeletePattern implements Cache.DeletePattern by walking the keyspace with SCAN so the shared
// store is never blocked by a single KEYS call.
func (c *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	if pattern == "" {
		return cache.ErrInvalidPattern
	}
	match := cache.RedisMatchPattern(c.namespaced(pattern))
	n, err := c.scanAndDelete(ctx, match)
	c.stats.Deleted(n)
	if err != nil {
		return fmt.Errorf("cache delete pattern %q: %w", pattern, err)
	}
	c.trace("deletePattern", match, logrus.Fields{"removed": n})
	return nil
}

// DeleteByTag implements Cache.DeleteByTag through the "<prefix>tag:<tag>" member set.
// Members may point at keys that already expired or were deleted elsewhere; deleting
// them again is a no-op.
func (c *RedisCache) DeleteByTag(ctx context.Context, tag string) error {
	if tag == "" {
		return cache.ErrInvalidTag
	}
	tagKey := cache.TagKey(c.cfg.KeyPrefix, tag)
	var members []string
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		members, err = c.r.SMembers(ctx, tagKey).Result()
		return err
	})
	if err != nil {
		return fmt.Errorf("cache delete tag %q: %w", tag, err)
	}
	var removed int64
	for start := 0; start < len(members); start += int(c.scanCount) {
		end := start + int(c.scanCount)
		if end > len(members) {
			end = len(members)
		}
		n, err := c.del(ctx, members[start:end]...)
		removed += n
		if err != nil {
			c.stats.Deleted(removed)
			return fmt.Errorf("cache delete tag %q: %w", tag, err)
		}
	}
	c.stats.Deleted(removed)
	if _, err := c.del(ctx, tagKey); err != nil {
		return fmt.Errorf("cache delete tag index %q: %w", tag, err)
	}
	c.trace("deleteByTag", tagKey, logrus.Fields{"members": len(members), "removed": removed})
	return nil
}

// Clear implements Cache.Clear. Without a key prefix this flushes the whole database.
func (c *RedisCache) Clear(ctx context.Context) error {
	if c.cfg.KeyPrefix == "" {
		c.logger.Warn("redis cache has no key prefix; clear flushes the entire redis database")
		if err := c.call(ctx, func(ctx context.Context) error { return c.r.FlushDB(ctx).Err() }); err != nil {
			return fmt.Errorf("cache clear: %w", err)
		}
	} else {
		if _, err := c.scanAndDelete(ctx, cache.RedisMatchPattern(c.namespaced(""))+"*"); err != nil {
			return fmt.Errorf("cache clear: %w", err)
		}
		if _, err := c.scanAndDelete(ctx, cache.TagKeyPattern(c.cfg.KeyPrefix)); err != nil {
			return fmt.Errorf("cache clear tags: %w", err)
		}
	}
	c.stats.Reset()
	c.trace("clear", c.cfg.KeyPrefix, nil)
	return nil
}

// TTL implements Cache.TTL.
func (c *RedisCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := cache.ValidateKey(key); err != nil {
		return cache.NoTTL, err
	}
	ns := c.namespaced(key)
	var d time.Duration
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		d, err = c.r.TTL(ctx, ns).Result()
		return err
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{"key": ns}).WithError(err).Warn("redis cache ttl failed")
		return cache.NoTTL, nil
	}
	// the store answers -2 for a missing key and -1 for a key without expiration
	if d < 0 {
		return cache.NoTTL, nil
	}
	return d, nil
}

// Expire implements Cache.Expire. ttl <= 0 persists the key, matching a Set without TTL.
func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}
	ns := c.namespaced(key)
	err := c.call(ctx, func(ctx context.Context) error {
		if ttl <= 0 {
			return c.r.Persist(ctx, ns).Err()
		}
		return c.r.PExpire(ctx, ns, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("cache expire %q: %w", key, err)
	}
	c.trace("expire", ns, logrus.Fields{"ttl": ttl.String()})
	return nil
}

// Stats implements Cache.Stats. Size is the store's used_memory in bytes, or 0 when the
// store does not report it.
func (c *RedisCache) Stats(ctx context.Context) cache.Stats {
	var info string
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		info, err = c.r.Info(ctx, "memory").Result()
		return err
	})
	var size int64
	if err != nil {
		c.logger.WithError(err).Warn("redis memory usage unavailable")
	} else {
		size = parseUsedMemory(info)
	}
	return c.stats.Snapshot(size)
}

// Close implements Cache.Close. The injected client is left open.
func (c *RedisCache) Close() error { return nil }

func (c *RedisCache) del(ctx context.Context, keys ...string) (int64, error) {
	var n int64
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		n, err = c.r.Del(ctx, keys...).Result()
		return err
	})
	return n, err
}

// scanAndDelete removes every key matching match in batches until the cursor wraps to 0.
func (c *RedisCache) scanAndDelete(ctx context.Context, match string) (int64, error) {
	var cursor uint64
	var removed int64
	for {
		var keys []string
		next := cursor
		err := c.call(ctx, func(ctx context.Context) error {
			var err error
			keys, next, err = c.r.Scan(ctx, cursor, match, c.scanCount).Result()
			return err
		})
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := c.del(ctx, keys...)
			removed += n
			if err != nil {
				return removed, err
			}
		}
		cursor = next
		if cursor == 0 { // done scanning all keys
			return removed, nil
		}
	}
}

// call runs fn under the per-call timeout and the circuit breaker, when configured.
func (c *RedisCache) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.breaker == nil {
		return fn(ctx)
	}
	_, err := c.breaker.Execute(func() (any, error) { return nil, fn(ctx) })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", cache.ErrUnavailable, err)
	}
	return err
}

func (c *RedisCache) retry(ctx context.Context, op func() error) error {
	if c.retries == 0 {
		return op()
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.retries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if errors.Is(err, cache.ErrUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func (c *RedisCache) trace(op, key string, extra logrus.Fields) {
	if !c.cfg.Debug {
		return
	}
	fields := logrus.Fields{"backend": "redis", "op": op, "key": key}
	for k, v := range extra {
		fields[k] = v
	}
	c.logger.WithFields(fields).Debug("cache operation")
}

func parseUsedMemory(info string) int64 {
	for _, line := range strings.Split(info, "\n") {
		v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:")
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

var (
	_ ports.Cache         = (*RedisCache)(nil)
	_ ports.TagReconciler = (*RedisCache)(nil)
)
