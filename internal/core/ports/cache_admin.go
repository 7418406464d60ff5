package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
)

// CacheAdminService defines the operator actions on the cache.
// A tenant of uuid.Nil addresses the shared cache; any other id addresses that tenant's cache.
type CacheAdminService interface {
	Stats(ctx context.Context, tenant uuid.UUID) (cache.Stats, error)
	TTL(ctx context.Context, tenant uuid.UUID, key string) (time.Duration, error)
	DeleteKey(ctx context.Context, tenant uuid.UUID, key string) error
	DeletePattern(ctx context.Context, tenant uuid.UUID, pattern string) error
	DeleteTag(ctx context.Context, tenant uuid.UUID, tag string) error
	Clear(ctx context.Context, tenant uuid.UUID) error
	ReconcileTags(ctx context.Context, tenant uuid.UUID) (int, error)
}
