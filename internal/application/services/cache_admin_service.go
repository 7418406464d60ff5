package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
	"github.com/avatarctic/dashboard-cache/internal/core/ports"
)

type CacheAdminService struct {
	cache   ports.Cache
	tenants *TenantCaches
	logger  *logrus.Logger
}

// NewCacheAdminService serves operator actions on the shared cache and, when tenants is non-nil,
// on tenant caches.
func NewCacheAdminService(c ports.Cache, tenants *TenantCaches, logger *logrus.Logger) ports.CacheAdminService {
	return &CacheAdminService{cache: c, tenants: tenants, logger: logger}
}

func (s *CacheAdminService) Stats(ctx context.Context, tenant uuid.UUID) (cache.Stats, error) {
	c, err := s.existing(tenant)
	if err != nil {
		return cache.Stats{}, err
	}
	return c.Stats(ctx), nil
}

func (s *CacheAdminService) TTL(ctx context.Context, tenant uuid.UUID, key string) (time.Duration, error) {
	c, err := s.existing(tenant)
	if err != nil {
		return cache.NoTTL, err
	}
	return c.TTL(ctx, key)
}

func (s *CacheAdminService) DeleteKey(ctx context.Context, tenant uuid.UUID, key string) error {
	c, release, err := s.target(tenant)
	if err != nil {
		return err
	}
	defer func() { _ = release() }()
	if err := c.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete cache key: %w", err)
	}
	s.audit("cache key deleted", tenant, logrus.Fields{"key": key})
	return nil
}

func (s *CacheAdminService) DeletePattern(ctx context.Context, tenant uuid.UUID, pattern string) error {
	c, release, err := s.target(tenant)
	if err != nil {
		return err
	}
	defer func() { _ = release() }()
	if err := c.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to delete cache pattern: %w", err)
	}
	s.audit("cache pattern deleted", tenant, logrus.Fields{"pattern": pattern})
	return nil
}

func (s *CacheAdminService) DeleteTag(ctx context.Context, tenant uuid.UUID, tag string) error {
	c, release, err := s.target(tenant)
	if err != nil {
		return err
	}
	defer func() { _ = release() }()
	if err := c.DeleteByTag(ctx, tag); err != nil {
		return fmt.Errorf("failed to delete cache tag: %w", err)
	}
	s.audit("cache tag deleted", tenant, logrus.Fields{"tag": tag})
	return nil
}

func (s *CacheAdminService) Clear(ctx context.Context, tenant uuid.UUID) error {
	c, release, err := s.target(tenant)
	if err != nil {
		return err
	}
	defer func() { _ = release() }()
	if err := c.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	s.audit("cache cleared", tenant, nil)
	return nil
}

func (s *CacheAdminService) ReconcileTags(ctx context.Context, tenant uuid.UUID) (int, error) {
	c, release, err := s.target(tenant)
	if err != nil {
		return 0, err
	}
	defer func() { _ = release() }()
	r, ok := c.(ports.TagReconciler)
	if !ok {
		return 0, cache.ErrNotSupported
	}
	n, err := r.ReconcileTags(ctx)
	if err != nil {
		return n, fmt.Errorf("failed to reconcile cache tags: %w", err)
	}
	s.audit("cache tags reconciled", tenant, logrus.Fields{"removed": n})
	return n, nil
}

// target resolves tenant for a mutating operation. Tenants this process has not seen get a
// transient cache so a shared store can still be purged for them.
func (s *CacheAdminService) target(tenant uuid.UUID) (ports.Cache, func() error, error) {
	if tenant == uuid.Nil {
		return s.cache, func() error { return nil }, nil
	}
	if s.tenants == nil {
		return nil, nil, fmt.Errorf("tenant caches: %w", cache.ErrNotSupported)
	}
	return s.tenants.Borrow(tenant)
}

// existing resolves tenant without creating a cache for it.
func (s *CacheAdminService) existing(tenant uuid.UUID) (ports.Cache, error) {
	if tenant == uuid.Nil {
		return s.cache, nil
	}
	if s.tenants == nil {
		return nil, fmt.Errorf("tenant caches: %w", cache.ErrNotSupported)
	}
	c, ok := s.tenants.Lookup(tenant)
	if !ok {
		return nil, fmt.Errorf("tenant %s: %w", tenant, cache.ErrUnknownTenant)
	}
	return c, nil
}

func (s *CacheAdminService) audit(msg string, tenant uuid.UUID, fields logrus.Fields) {
	if s.logger == nil {
		return
	}
	f := logrus.Fields{"tenant_id": tenant}
	for k, v := range fields {
		f[k] = v
	}
	s.logger.WithFields(f).Info(msg)
}
