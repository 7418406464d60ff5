package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
)

func TestResolveSetOptions_Defaults(t *testing.T) {
	cfg := cache.Config{DefaultTTL: time.Minute, EnableCompression: true}

	o := cache.ResolveSetOptions(cfg)
	require.Equal(t, time.Minute, o.TTL)
	require.True(t, o.Compress)
	require.Nil(t, o.Tags)
}

func TestResolveSetOptions_Overrides(t *testing.T) {
	cfg := cache.Config{DefaultTTL: time.Minute, EnableCompression: true}

	o := cache.ResolveSetOptions(cfg, cache.WithTTL(0), cache.WithCompression(false))
	require.Zero(t, o.TTL)
	require.False(t, o.Compress)

	o = cache.ResolveSetOptions(cfg, cache.WithTTL(-time.Second))
	require.Zero(t, o.TTL)

	o = cache.ResolveSetOptions(cfg, cache.WithTags("a", "", "b"), cache.WithTags("a"), nil)
	require.Equal(t, []string{"a", "b"}, o.Tags)

	o = cache.ResolveSetOptions(cfg, cache.WithTags(""))
	require.Nil(t, o.Tags)
}

func TestEntry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := cache.Entry{ExpireAt: cache.ExpireAt(now, time.Second), Tags: []string{"x"}}
	require.False(t, e.Expired(now))
	require.False(t, e.Expired(now.Add(time.Second)))
	require.True(t, e.Expired(now.Add(time.Second+1)))
	require.True(t, e.HasTag("x"))
	require.False(t, e.HasTag("y"))

	forever := cache.Entry{ExpireAt: cache.ExpireAt(now, 0)}
	require.True(t, forever.ExpireAt.IsZero())
	require.False(t, forever.Expired(now.Add(24*time.Hour)))
}
