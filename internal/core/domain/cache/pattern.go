package cache

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

const wildcard = "*"

// Pattern is a compiled deletion pattern. '*' matches any substring (including ':'),
// every other character matches itself, and the match is anchored at both ends.
type Pattern struct {
	raw string
	g   glob.Glob
}

// CompilePattern compiles a pattern that is already expressed over physical keys.
func CompilePattern(pattern string) (*Pattern, error) {
	if pattern == "" {
		return nil, ErrInvalidPattern
	}
	parts := strings.Split(pattern, wildcard)
	for i, p := range parts {
		parts[i] = glob.QuoteMeta(p)
	}
	g, err := glob.Compile(strings.Join(parts, wildcard))
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return &Pattern{raw: pattern, g: g}, nil
}

// Match reports whether key matches the whole pattern.
func (p *Pattern) Match(key string) bool {
	return p.g.Match(key)
}

func (p *Pattern) String() string { return p.raw }

// RedisMatchPattern escapes the store's own glob metacharacters so that only '*' stays special.
func RedisMatchPattern(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	for _, r := range pattern {
		switch r {
		case '\\', '?', '[', ']':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
