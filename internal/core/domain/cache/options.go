package cache

import "time"

// SetOptions are the per-call overrides of a Set.
type SetOptions struct {
	TTL      time.Duration
	Tags     []string
	Compress bool

	ttlSet      bool
	compressSet bool
}

// SetOption customizes a single Set call.
type SetOption func(*SetOptions)

// WithTTL overrides Config.DefaultTTL. A ttl of zero or less stores the entry without expiration.
func WithTTL(ttl time.Duration) SetOption {
	return func(o *SetOptions) {
		o.TTL = ttl
		o.ttlSet = true
	}
}

// WithTags attaches group labels used by DeleteByTag.
func WithTags(tags ...string) SetOption {
	return func(o *SetOptions) {
		o.Tags = append(o.Tags, tags...)
	}
}

// WithCompression overrides Config.EnableCompression.
func WithCompression(enabled bool) SetOption {
	return func(o *SetOptions) {
		o.Compress = enabled
		o.compressSet = true
	}
}

// ResolveSetOptions applies opts on top of the backend defaults in cfg.
func ResolveSetOptions(cfg Config, opts ...SetOption) SetOptions {
	var o SetOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if !o.ttlSet {
		o.TTL = cfg.DefaultTTL
	}
	if !o.compressSet {
		o.Compress = cfg.EnableCompression
	}
	if o.TTL < 0 {
		o.TTL = 0
	}
	o.Tags = dedupeTags(o.Tags)
	return o
}

func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
