package metrics_test

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
	"github.com/avatarctic/dashboard-cache/internal/infrastructure/memory"
	"github.com/avatarctic/dashboard-cache/internal/infrastructure/metrics"
)

func TestCacheCollector(t *testing.T) {
	ctx := context.Background()
	c, err := memory.New(cache.Config{}, memory.WithMaxEntries(1), memory.WithSweepInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Set(ctx, "a", 1))
	require.NoError(t, c.Set(ctx, "b", 2))
	var v int
	_, err = c.Get(ctx, "b", &v)
	require.NoError(t, err)
	_, err = c.Get(ctx, "a", &v)
	require.NoError(t, err)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(metrics.NewCacheCollector("memory", c)))

	expected := `
# HELP dashboard_cache_evictions Entries evicted to stay within capacity
# TYPE dashboard_cache_evictions gauge
dashboard_cache_evictions{backend="memory"} 1
# HELP dashboard_cache_hit_ratio hits / (hits + misses) since the last clear
# TYPE dashboard_cache_hit_ratio gauge
dashboard_cache_hit_ratio{backend="memory"} 0.5
# HELP dashboard_cache_hits Lookups that found a live entry
# TYPE dashboard_cache_hits gauge
dashboard_cache_hits{backend="memory"} 1
# HELP dashboard_cache_misses Lookups that found nothing live
# TYPE dashboard_cache_misses gauge
dashboard_cache_misses{backend="memory"} 1
# HELP dashboard_cache_sets Successful writes
# TYPE dashboard_cache_sets gauge
dashboard_cache_sets{backend="memory"} 2
# HELP dashboard_cache_size Backend size: entries for memory, used bytes for redis
# TYPE dashboard_cache_size gauge
dashboard_cache_size{backend="memory"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"dashboard_cache_evictions",
		"dashboard_cache_hit_ratio",
		"dashboard_cache_hits",
		"dashboard_cache_misses",
		"dashboard_cache_sets",
		"dashboard_cache_size",
	))
	require.Equal(t, 7, testutil.CollectAndCount(metrics.NewCacheCollector("memory", c)))
}
