package memory

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
	"github.com/avatarctic/dashboard-cache/internal/core/ports"
)

const (
	defaultMaxEntries    = 1000
	defaultSweepInterval = time.Minute
)

// Cache is a bounded in-process implementation of ports.Cache with least-recently-used eviction.
// Values are deep-copied on the way in and on the way out.
type Cache struct {
	cfg        cache.Config
	maxEntries int
	interval   time.Duration
	logger     *logrus.Logger
	now        func() time.Time

	mu    sync.Mutex
	items *simplelru.LRU[string, *cache.Entry] // oldest first, most recently used last
	stats cache.Counters

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Option customizes a memory Cache.
type Option func(*Cache)

// WithMaxEntries bounds the number of stored entries.
func WithMaxEntries(n int) Option { return func(c *Cache) { c.maxEntries = n } }

// WithSweepInterval sets how often expired entries are purged. Zero disables the sweep.
func WithSweepInterval(d time.Duration) Option { return func(c *Cache) { c.interval = d } }

// WithLogger sets the logger used for warnings and debug traces.
func WithLogger(l *logrus.Logger) Option { return func(c *Cache) { c.logger = l } }

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

// New creates a memory cache and starts its expiry sweep. Call Close to stop it.
func New(cfg cache.Config, opts ...Option) (*Cache, error) {
	c := &Cache{
		cfg:        cfg,
		maxEntries: defaultMaxEntries,
		interval:   defaultSweepInterval,
		now:        time.Now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxEntries <= 0 {
		return nil, fmt.Errorf("memory cache: max entries must be positive, got %d", c.maxEntries)
	}
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetOutput(io.Discard)
	}
	items, err := simplelru.NewLRU[string, *cache.Entry](c.maxEntries, nil)
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w", err)
	}
	c.items = items

	if c.interval > 0 {
		go c.run()
	} else {
		close(c.done)
	}
	return c, nil
}

// Set implements ports.Cache.
func (c *Cache) Set(ctx context.Context, key string, value any, opts ...cache.SetOption) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}
	o := cache.ResolveSetOptions(c.cfg, opts...)
	v, err := deepCopy(value)
	if err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	k := c.key(key)
	e := &cache.Entry{Value: v, ExpireAt: cache.ExpireAt(c.now(), o.TTL), Tags: o.Tags}

	var evicted string
	c.mu.Lock()
	// Add refreshes an existing key in place, so only a new key can overflow the bound.
	if !c.items.Contains(k) && c.items.Len() >= c.maxEntries {
		if oldest, _, ok := c.items.RemoveOldest(); ok {
			evicted = oldest
			c.stats.Evicted()
		}
	}
	c.items.Add(k, e)
	c.mu.Unlock()

	c.stats.Set()
	c.trace("set", k, logrus.Fields{"ttl": o.TTL.String(), "tags": o.Tags, "evicted": evicted})
	return nil
}

// Get implements ports.Cache.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}
	if err := cache.ValidateDestination(dst); err != nil {
		return false, err
	}
	k := c.key(key)

	c.mu.Lock()
	e, ok := c.lookup(k)
	var stored any
	if ok {
		stored = e.Value
	}
	c.mu.Unlock()

	if !ok {
		c.stats.Miss()
		c.trace("get", k, logrus.Fields{"hit": false})
		return false, nil
	}
	// Stored values are never mutated after insertion, so copying outside the lock is safe.
	// A value that cannot be delivered counts as a miss.
	v, err := deepCopy(stored)
	if err == nil {
		err = assign(dst, v)
	}
	if err != nil {
		c.stats.Miss()
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}
	c.stats.Hit()
	c.trace("get", k, logrus.Fields{"hit": true})
	return true, nil
}

// Has implements ports.Cache.
func (c *Cache) Has(ctx context.Context, key string) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}
	k := c.key(key)
	c.mu.Lock()
	_, ok := c.lookup(k)
	c.mu.Unlock()
	c.trace("has", k, logrus.Fields{"found": ok})
	return ok, nil
}

// Delete implements ports.Cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}
	k := c.key(key)
	c.mu.Lock()
	removed := c.items.Remove(k)
	c.mu.Unlock()
	if removed {
		c.stats.Deleted(1)
	}
	c.trace("delete", k, logrus.Fields{"removed": removed})
	return nil
}

// DeletePattern implements ports.Cache with a full scan of the stored keys.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	if pattern == "" {
		return cache.ErrInvalidPattern
	}
	p, err := cache.CompilePattern(c.key(pattern))
	if err != nil {
		return err
	}
	n := c.removeWhere(func(k string, _ *cache.Entry) bool { return p.Match(k) })
	c.trace("deletePattern", p.String(), logrus.Fields{"removed": n})
	return nil
}

// DeleteByTag implements ports.Cache with a full scan of the stored entries.
func (c *Cache) DeleteByTag(ctx context.Context, tag string) error {
	if tag == "" {
		return cache.ErrInvalidTag
	}
	n := c.removeWhere(func(_ string, e *cache.Entry) bool { return e.HasTag(tag) })
	c.trace("deleteByTag", tag, logrus.Fields{"removed": n})
	return nil
}

// Clear implements ports.Cache.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.items.Purge()
	c.stats.Reset()
	c.mu.Unlock()
	c.trace("clear", c.cfg.KeyPrefix, nil)
	return nil
}

// TTL implements ports.Cache. Partial seconds round up, so a fresh 10s entry reports 10s.
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := cache.ValidateKey(key); err != nil {
		return cache.NoTTL, err
	}
	k := c.key(key)
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.peekLive(k, now)
	if !ok || e.ExpireAt.IsZero() {
		return cache.NoTTL, nil
	}
	secs := math.Ceil(e.ExpireAt.Sub(now).Seconds())
	return time.Duration(secs) * time.Second, nil
}

// Expire implements ports.Cache. ttl <= 0 makes the entry permanent, matching Set.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}
	k := c.key(key)
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.peekLive(k, now)
	if !ok {
		return nil
	}
	e.ExpireAt = cache.ExpireAt(now, ttl)
	c.trace("expire", k, logrus.Fields{"ttl": ttl.String()})
	return nil
}

// Stats implements ports.Cache. Size is the number of stored entries.
func (c *Cache) Stats(ctx context.Context) cache.Stats {
	c.mu.Lock()
	n := c.items.Len()
	c.mu.Unlock()
	return c.stats.Snapshot(int64(n))
}

// Close stops the expiry sweep and waits for it to exit. It is safe to call more than once.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

func (c *Cache) key(key string) string {
	return cache.Namespace(c.cfg.KeyPrefix, key)
}

// lookup returns the live entry for k and marks it most recently used.
// An expired entry is removed and counted as a delete. Must be called with mu held.
func (c *Cache) lookup(k string) (*cache.Entry, bool) {
	if _, ok := c.peekLive(k, c.now()); !ok {
		return nil, false
	}
	return c.items.Get(k)
}

// peekLive is lookup without the recency refresh. Must be called with mu held.
func (c *Cache) peekLive(k string, now time.Time) (*cache.Entry, bool) {
	e, ok := c.items.Peek(k)
	if !ok {
		return nil, false
	}
	if e.Expired(now) {
		c.items.Remove(k)
		c.stats.Deleted(1)
		return nil, false
	}
	return e, true
}

func (c *Cache) removeWhere(match func(k string, e *cache.Entry) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, k := range c.items.Keys() {
		e, ok := c.items.Peek(k)
		if ok && match(k, e) {
			c.items.Remove(k)
			removed++
		}
	}
	c.stats.Deleted(int64(removed))
	return removed
}

func (c *Cache) run() {
	defer close(c.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if n := c.sweep(); n > 0 {
				c.logger.WithFields(logrus.Fields{"backend": "memory", "removed": n}).Debug("swept expired cache entries")
			}
		}
	}
}

// sweep removes every expired entry and returns how many it removed.
func (c *Cache) sweep() int {
	now := c.now()
	return c.removeWhere(func(_ string, e *cache.Entry) bool { return e.Expired(now) })
}

func (c *Cache) trace(op, key string, extra logrus.Fields) {
	if !c.cfg.Debug {
		return
	}
	fields := logrus.Fields{"backend": "memory", "op": op, "key": key}
	for k, v := range extra {
		fields[k] = v
	}
	c.logger.WithFields(fields).Debug("cache operation")
}

var _ ports.Cache = (*Cache)(nil)
