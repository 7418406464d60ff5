package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
	"github.com/avatarctic/dashboard-cache/internal/core/ports"
)

// CacheFactory builds a cache for the given configuration.
type CacheFactory func(cfg cache.Config) (ports.Cache, error)

// ErrNoTenantPrefix is returned when tenant caches are built over an empty base prefix.
var ErrNoTenantPrefix = errors.New("tenant caches need a non-empty base key prefix")

// TenantCaches hands out one cache per tenant, each namespaced under
// "<base prefix>-tenant-<id>". That prefix sits beside the shared namespace, never inside it,
// so shared and tenant caches can be inspected and cleared independently.
type TenantCaches struct {
	base    cache.Config
	factory CacheFactory
	logger  *logrus.Logger

	mu     sync.Mutex
	caches map[uuid.UUID]ports.Cache
}

func NewTenantCaches(base cache.Config, factory CacheFactory, logger *logrus.Logger) (*TenantCaches, error) {
	if base.KeyPrefix == "" {
		return nil, ErrNoTenantPrefix
	}
	return &TenantCaches{base: base, factory: factory, logger: logger, caches: make(map[uuid.UUID]ports.Cache)}, nil
}

// Lookup returns the cache of tenant if one was already created.
func (t *TenantCaches) Lookup(tenant uuid.UUID) (ports.Cache, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.caches[tenant]
	return c, ok
}

// Borrow returns the cache of tenant for a single operation. A tenant without a cache gets a
// transient one that is not retained; release closes it.
func (t *TenantCaches) Borrow(tenant uuid.UUID) (ports.Cache, func() error, error) {
	if tenant == uuid.Nil {
		return nil, nil, fmt.Errorf("tenant id must not be nil")
	}
	if c, ok := t.Lookup(tenant); ok {
		return c, func() error { return nil }, nil
	}
	c, err := t.build(tenant)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

// For returns the cache of tenant, creating it on first use.
func (t *TenantCaches) For(tenant uuid.UUID) (ports.Cache, error) {
	if tenant == uuid.Nil {
		return nil, fmt.Errorf("tenant id must not be nil")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.caches[tenant]; ok {
		return c, nil
	}
	c, err := t.build(tenant)
	if err != nil {
		return nil, err
	}
	t.caches[tenant] = c
	if t.logger != nil {
		t.logger.WithFields(logrus.Fields{"tenant_id": tenant, "prefix": TenantPrefix(t.base.KeyPrefix, tenant)}).Debug("tenant cache created")
	}
	return c, nil
}

func (t *TenantCaches) build(tenant uuid.UUID) (ports.Cache, error) {
	cfg := t.base
	cfg.KeyPrefix = TenantPrefix(t.base.KeyPrefix, tenant)
	if overlaps(t.base.KeyPrefix, cfg.KeyPrefix) {
		return nil, fmt.Errorf("tenant prefix %q overlaps shared prefix %q", cfg.KeyPrefix, t.base.KeyPrefix)
	}
	c, err := t.factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create cache for tenant %s: %w", tenant, err)
	}
	return c, nil
}

// Tenants lists the tenants that currently own a cache, in a stable order.
func (t *TenantCaches) Tenants() []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(t.caches))
	for id := range t.caches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Close closes every tenant cache and forgets them.
func (t *TenantCaches) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var errs []error
	for id, c := range t.caches {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("tenant %s: %w", id, err))
		}
		delete(t.caches, id)
	}
	return errors.Join(errs...)
}

// TenantPrefix returns the key prefix of a tenant's cache.
func TenantPrefix(base string, tenant uuid.UUID) string {
	return base + "-tenant-" + tenant.String()
}

// overlaps reports whether keys or tag sets written under one prefix can fall inside the
// namespace of the other.
func overlaps(a, b string) bool {
	spaces := func(p string) []string {
		return []string{cache.Namespace(p, ""), cache.TagKey(p, "")}
	}
	for _, x := range spaces(a) {
		for _, y := range spaces(b) {
			if strings.HasPrefix(x, y) || strings.HasPrefix(y, x) {
				return true
			}
		}
	}
	return false
}
