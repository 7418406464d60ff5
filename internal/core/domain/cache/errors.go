package cache

import "errors"

var (
	// ErrInvalidKey is returned for empty keys. It is a programmer error.
	ErrInvalidKey = errors.New("cache: key must be a non-empty string")
	// ErrInvalidPattern is returned for empty deletion patterns.
	ErrInvalidPattern = errors.New("cache: pattern must be a non-empty string")
	// ErrInvalidTag is returned for empty tags.
	ErrInvalidTag = errors.New("cache: tag must be a non-empty string")
	// ErrUnsupportedValue is returned when a value cannot cross the copy or serialization boundary.
	ErrUnsupportedValue = errors.New("cache: unsupported value")
	// ErrInvalidDestination is returned when Get is given something other than a non-nil pointer.
	ErrInvalidDestination = errors.New("cache: destination must be a non-nil pointer")
	// ErrTypeMismatch is returned when the stored value cannot be assigned to the destination.
	ErrTypeMismatch = errors.New("cache: stored value does not match destination type")
	// ErrUnavailable is returned by writes while the remote store is known to be down.
	ErrUnavailable = errors.New("cache: backend unavailable")
	// ErrNotSupported is returned when a backend lacks an optional capability.
	ErrNotSupported = errors.New("cache: operation not supported by backend")
	// ErrUnknownTenant is returned by read-only admin operations for tenants that own no cache.
	ErrUnknownTenant = errors.New("cache: no cache for tenant")
)
