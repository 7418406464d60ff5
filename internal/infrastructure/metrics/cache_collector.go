package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/avatarctic/dashboard-cache/internal/core/ports"
)

const namespace = "dashboard_cache"

// CacheCollector exports a cache's Stats snapshot on every scrape.
type CacheCollector struct {
	cache   ports.Cache
	timeout time.Duration

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	sets      *prometheus.Desc
	deletes   *prometheus.Desc
	evictions *prometheus.Desc
	size      *prometheus.Desc
	hitRate   *prometheus.Desc
}

// NewCacheCollector creates a collector for c labelled with backend ("memory" or "redis").
func NewCacheCollector(backend string, c ports.Cache) *CacheCollector {
	labels := prometheus.Labels{"backend": backend}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, labels)
	}
	return &CacheCollector{
		cache:     c,
		timeout:   2 * time.Second,
		hits:      desc("hits", "Lookups that found a live entry"),
		misses:    desc("misses", "Lookups that found nothing live"),
		sets:      desc("sets", "Successful writes"),
		deletes:   desc("deletes", "Entries removed by delete, pattern, tag, expiration or sweep"),
		evictions: desc("evictions", "Entries evicted to stay within capacity"),
		size:      desc("size", "Backend size: entries for memory, used bytes for redis"),
		hitRate:   desc("hit_ratio", "hits / (hits + misses) since the last clear"),
	}
}

// Describe implements prometheus.Collector.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.sets
	ch <- c.deletes
	ch <- c.evictions
	ch <- c.size
	ch <- c.hitRate
}

// Collect implements prometheus.Collector.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	s := c.cache.Stats(ctx)

	// Clear resets the counters, so they are exported as gauges.
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.GaugeValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.GaugeValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.sets, prometheus.GaugeValue, float64(s.Sets))
	ch <- prometheus.MustNewConstMetric(c.deletes, prometheus.GaugeValue, float64(s.Deletes))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.GaugeValue, float64(s.Evictions))
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size))
	ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, s.HitRate)
}

var _ prometheus.Collector = (*CacheCollector)(nil)
