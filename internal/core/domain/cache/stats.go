package cache

import "sync/atomic"

// Stats is a point-in-time copy of a backend's counters.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Sets      int64   `json:"sets"`
	Deletes   int64   `json:"deletes"`
	Evictions int64   `json:"evictions"`
	Size      int64   `json:"size"` // backend-defined unit: entries (memory) or bytes (redis)
	HitRate   float64 `json:"hit_rate"`
}

// Counters is the mutable counter set a backend owns. Safe for concurrent use.
type Counters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64
}

// Hit records a successful lookup.
func (c *Counters) Hit() { c.hits.Add(1) }

// Miss records a lookup that found nothing live.
func (c *Counters) Miss() { c.misses.Add(1) }

// Set records a write.
func (c *Counters) Set() { c.sets.Add(1) }

// Evicted records a capacity eviction.
func (c *Counters) Evicted() { c.evictions.Add(1) }

// Deleted records n removed entries.
func (c *Counters) Deleted(n int64) {
	if n > 0 {
		c.deletes.Add(n)
	}
}

// Reset zeroes every counter.
func (c *Counters) Reset() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
	c.deletes.Store(0)
	c.evictions.Store(0)
}

// Snapshot copies the counters and derives the hit rate.
func (c *Counters) Snapshot(size int64) Stats {
	s := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Deletes:   c.deletes.Load(),
		Evictions: c.evictions.Load(),
		Size:      size,
	}
	if lookups := s.Hits + s.Misses; lookups > 0 {
		s.HitRate = float64(s.Hits) / float64(lookups)
	}
	return s
}
