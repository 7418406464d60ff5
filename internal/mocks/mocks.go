// Package mocks holds lightweight func-field test doubles for the ports.
package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
	"github.com/avatarctic/dashboard-cache/internal/core/ports"
)

// CacheMock implements ports.Cache. Unset funcs behave like an empty, healthy cache.
type CacheMock struct {
	SetFn           func(ctx context.Context, key string, value any, opts ...cache.SetOption) error
	GetFn           func(ctx context.Context, key string, dst any) (bool, error)
	HasFn           func(ctx context.Context, key string) (bool, error)
	DeleteFn        func(ctx context.Context, key string) error
	DeletePatternFn func(ctx context.Context, pattern string) error
	DeleteByTagFn   func(ctx context.Context, tag string) error
	ClearFn         func(ctx context.Context) error
	TTLFn           func(ctx context.Context, key string) (time.Duration, error)
	ExpireFn        func(ctx context.Context, key string, ttl time.Duration) error
	StatsFn         func(ctx context.Context) cache.Stats
	CloseFn         func() error
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, opts ...cache.SetOption) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value, opts...)
	}
	return nil
}
func (m *CacheMock) Get(ctx context.Context, key string, dst any) (bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key, dst)
	}
	return false, nil
}
func (m *CacheMock) Has(ctx context.Context, key string) (bool, error) {
	if m.HasFn != nil {
		return m.HasFn(ctx, key)
	}
	return false, nil
}
func (m *CacheMock) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return nil
}
func (m *CacheMock) DeletePattern(ctx context.Context, pattern string) error {
	if m.DeletePatternFn != nil {
		return m.DeletePatternFn(ctx, pattern)
	}
	return nil
}
func (m *CacheMock) DeleteByTag(ctx context.Context, tag string) error {
	if m.DeleteByTagFn != nil {
		return m.DeleteByTagFn(ctx, tag)
	}
	return nil
}
func (m *CacheMock) Clear(ctx context.Context) error {
	if m.ClearFn != nil {
		return m.ClearFn(ctx)
	}
	return nil
}
func (m *CacheMock) TTL(ctx context.Context, key string) (time.Duration, error) {
	if m.TTLFn != nil {
		return m.TTLFn(ctx, key)
	}
	return cache.NoTTL, nil
}
func (m *CacheMock) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if m.ExpireFn != nil {
		return m.ExpireFn(ctx, key, ttl)
	}
	return nil
}
func (m *CacheMock) Stats(ctx context.Context) cache.Stats {
	if m.StatsFn != nil {
		return m.StatsFn(ctx)
	}
	return cache.Stats{}
}
func (m *CacheMock) Close() error {
	if m.CloseFn != nil {
		return m.CloseFn()
	}
	return nil
}

// CacheAdminServiceMock implements ports.CacheAdminService.
type CacheAdminServiceMock struct {
	StatsFn         func(ctx context.Context, tenant uuid.UUID) (cache.Stats, error)
	TTLFn           func(ctx context.Context, tenant uuid.UUID, key string) (time.Duration, error)
	DeleteKeyFn     func(ctx context.Context, tenant uuid.UUID, key string) error
	DeletePatternFn func(ctx context.Context, tenant uuid.UUID, pattern string) error
	DeleteTagFn     func(ctx context.Context, tenant uuid.UUID, tag string) error
	ClearFn         func(ctx context.Context, tenant uuid.UUID) error
	ReconcileTagsFn func(ctx context.Context, tenant uuid.UUID) (int, error)
}

func (m *CacheAdminServiceMock) Stats(ctx context.Context, tenant uuid.UUID) (cache.Stats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx, tenant)
	}
	return cache.Stats{}, fmt.Errorf("not implemented")
}
func (m *CacheAdminServiceMock) TTL(ctx context.Context, tenant uuid.UUID, key string) (time.Duration, error) {
	if m.TTLFn != nil {
		return m.TTLFn(ctx, tenant, key)
	}
	return cache.NoTTL, fmt.Errorf("not implemented")
}
func (m *CacheAdminServiceMock) DeleteKey(ctx context.Context, tenant uuid.UUID, key string) error {
	if m.DeleteKeyFn != nil {
		return m.DeleteKeyFn(ctx, tenant, key)
	}
	return fmt.Errorf("not implemented")
}
func (m *CacheAdminServiceMock) DeletePattern(ctx context.Context, tenant uuid.UUID, pattern string) error {
	if m.DeletePatternFn != nil {
		return m.DeletePatternFn(ctx, tenant, pattern)
	}
	return fmt.Errorf("not implemented")
}
func (m *CacheAdminServiceMock) DeleteTag(ctx context.Context, tenant uuid.UUID, tag string) error {
	if m.DeleteTagFn != nil {
		return m.DeleteTagFn(ctx, tenant, tag)
	}
	return fmt.Errorf("not implemented")
}
func (m *CacheAdminServiceMock) Clear(ctx context.Context, tenant uuid.UUID) error {
	if m.ClearFn != nil {
		return m.ClearFn(ctx, tenant)
	}
	return fmt.Errorf("not implemented")
}
func (m *CacheAdminServiceMock) ReconcileTags(ctx context.Context, tenant uuid.UUID) (int, error) {
	if m.ReconcileTagsFn != nil {
		return m.ReconcileTagsFn(ctx, tenant)
	}
	return 0, fmt.Errorf("not implemented")
}

// HealthCheckerMock implements ports.HealthChecker.
type HealthCheckerMock struct {
	NameValue string
	CheckFn   func(ctx context.Context) error
}

func (m *HealthCheckerMock) Name() string { return m.NameValue }
func (m *HealthCheckerMock) Check(ctx context.Context) error {
	if m.CheckFn != nil {
		return m.CheckFn(ctx)
	}
	return nil
}

var (
	_ ports.Cache             = (*CacheMock)(nil)
	_ ports.CacheAdminService = (*CacheAdminServiceMock)(nil)
	_ ports.HealthChecker     = (*HealthCheckerMock)(nil)
)
