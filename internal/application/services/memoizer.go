package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
	"github.com/avatarctic/dashboard-cache/internal/core/ports"
)

// Memoizer is a cache-aside helper for expensive computations such as dashboard queries,
// forecasts and rendered widgets. Concurrent misses for the same key run the loader once.
type Memoizer struct {
	cache  ports.Cache
	logger *logrus.Logger
	sf     singleflight.Group
}

func NewMemoizer(c ports.Cache, logger *logrus.Logger) *Memoizer {
	return &Memoizer{cache: c, logger: logger}
}

// Key builds a cache key from a readable namespace and arbitrary parameters, which are hashed
// so that unbounded input (filters, prompts) yields a short key.
func (m *Memoizer) Key(namespace string, params ...string) string {
	if len(params) == 0 {
		return namespace
	}
	return cache.BuildKey(namespace, cache.HashKey(params...))
}

// Remember returns the cached value for key, or runs loader, caches its result and returns it.
// Cache failures never fail the call: a broken read is a miss and a broken write is logged.
func Remember[V any](ctx context.Context, m *Memoizer, key string, loader func(ctx context.Context) (V, error), opts ...cache.SetOption) (V, error) {
	if v, ok := m.lookup(ctx, key, new(V)); ok {
		return *v.(*V), nil
	}
	res, err, _ := m.sf.Do(key, func() (any, error) {
		if v, ok := m.lookup(ctx, key, new(V)); ok {
			return *v.(*V), nil
		}
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		m.setSilently(ctx, key, v, opts...)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	v, _ := res.(V)
	return v, nil
}

// Invalidate drops every memoized value stored with tag.
func (m *Memoizer) Invalidate(ctx context.Context, tag string) error {
	return m.cache.DeleteByTag(ctx, tag)
}

// Forget drops the memoized value for key.
func (m *Memoizer) Forget(ctx context.Context, key string) error {
	return m.cache.Delete(ctx, key)
}

func (m *Memoizer) lookup(ctx context.Context, key string, dst any) (any, bool) {
	ok, err := m.cache.Get(ctx, key, dst)
	if err != nil {
		if m.logger != nil {
			m.logger.WithFields(logrus.Fields{"key": key}).WithError(err).Warn("memoized value unreadable, recomputing")
		}
		return nil, false
	}
	return dst, ok
}

func (m *Memoizer) setSilently(ctx context.Context, key string, v any, opts ...cache.SetOption) {
	if err := m.cache.Set(ctx, key, v, opts...); err != nil && m.logger != nil {
		m.logger.WithFields(logrus.Fields{"key": key}).WithError(err).Warn("failed to cache computed value")
	}
}
