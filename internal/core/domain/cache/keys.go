package cache

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	keySeparator = ":"
	tagToken     = "tag:"
)

// Namespace prepends prefix to a logical key. An empty prefix leaves the key unchanged.
func Namespace(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + keySeparator + key
}

// TagKey returns the auxiliary key holding the members of tag.
// The format "<prefix>tag:<tag>" has no separator after the prefix and must stay stable
// for existing data to remain readable.
func TagKey(prefix, tag string) string {
	return prefix + tagToken + tag
}

// TagKeyPattern matches every tag key under prefix.
func TagKeyPattern(prefix string) string {
	return RedisMatchPattern(prefix+tagToken) + "*"
}

// BuildKey joins non-empty parts with ':'.
func BuildKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, keySeparator)
}

// HashKey digests arbitrary parts (request params, prompts) into a short stable key segment.
func HashKey(parts ...string) string {
	d := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = d.WriteString("\x00")
		}
		_, _ = d.WriteString(p)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// ValidateKey rejects keys a backend must never store.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}

// ValidateDestination rejects Get destinations that cannot receive a value.
func ValidateDestination(dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrInvalidDestination
	}
	return nil
}
