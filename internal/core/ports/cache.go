package ports

import (
	"context"
	"time"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
)

// Cache defines the key-value cache contract every backend honors identically.
// Implementations should degrade gracefully (reads fall back to a miss without crashing callers)
// so that application logic can recompute from the primary source.
type Cache interface {
	// Set stores value under key, replacing any previous value, tags and TTL.
	Set(ctx context.Context, key string, value any, opts ...cache.SetOption) error
	// Get copies the live value for key into dst, which must be a non-nil pointer.
	// ok=false if the key is unset or expired.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Has reports whether key is live without touching hit/miss counters.
	Has(ctx context.Context, key string) (bool, error)
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePattern removes every key matching pattern, where '*' matches any substring.
	// The pattern is namespaced like a key before matching.
	DeletePattern(ctx context.Context, pattern string) error
	// DeleteByTag removes every entry stored with tag.
	DeleteByTag(ctx context.Context, tag string) error
	// Clear removes everything in the backend's namespace and resets its stats.
	Clear(ctx context.Context) error
	// TTL returns the whole seconds left for key, or cache.NoTTL when the key is missing
	// or has no expiration.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Expire changes the expiration of an existing key. ttl <= 0 removes the expiration.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Stats returns a snapshot of the backend counters.
	Stats(ctx context.Context) cache.Stats
	// Close releases resources owned by the backend.
	Close() error
}

// TagReconciler is implemented by backends whose tag index can go stale.
type TagReconciler interface {
	// ReconcileTags drops tag memberships that point at keys which no longer exist
	// and returns how many were dropped.
	ReconcileTags(ctx context.Context) (int, error)
}

// CacheGet reads key into a fresh V.
func CacheGet[V any](ctx context.Context, c Cache, key string) (V, bool, error) {
	var v V
	ok, err := c.Get(ctx, key, &v)
	if err != nil || !ok {
		var zero V
		return zero, false, err
	}
	return v, true, nil
}

// CacheSet stores v under key. The type parameter documents what a matching CacheGet expects.
func CacheSet[V any](ctx context.Context, c Cache, key string, v V, opts ...cache.SetOption) error {
	return c.Set(ctx, key, v, opts...)
}
