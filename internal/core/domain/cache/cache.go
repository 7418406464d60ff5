package cache

import "time"

// NoTTL is returned by TTL lookups when a key is missing or never expires.
const NoTTL = time.Duration(-1)

// Entry is the stored unit of a backend.
type Entry struct {
	Value    any       `json:"value"`
	ExpireAt time.Time `json:"expire_at,omitempty"` // zero means no expiration
	Tags     []string  `json:"tags,omitempty"`
}

// Expired reports whether the entry is logically gone at now.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpireAt.IsZero() && now.After(e.ExpireAt)
}

// HasTag reports whether tag is one of the entry's group labels.
func (e *Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Config holds the options every backend recognizes at construction.
type Config struct {
	KeyPrefix         string
	DefaultTTL        time.Duration // 0 means entries never expire
	EnableCompression bool          // honored by the remote backend only
	Debug             bool
}

// ExpireAt converts a TTL into an absolute instant, zero when ttl <= 0.
func ExpireAt(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
