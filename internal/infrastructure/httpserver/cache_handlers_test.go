package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/dashboard-cache/internal/application/services"
	"github.com/avatarctic/dashboard-cache/internal/core/domain/auth"
	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
	"github.com/avatarctic/dashboard-cache/internal/core/ports"
	"github.com/avatarctic/dashboard-cache/internal/infrastructure/httpserver"
	"github.com/avatarctic/dashboard-cache/internal/infrastructure/memory"
	"github.com/avatarctic/dashboard-cache/internal/mocks"
)

const testSecret = "test-secret"

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newServer(admin ports.CacheAdminService, checkers ...ports.HealthChecker) *httpserver.Server {
	cfg := &httpserver.ServerConfig{AdminScope: "cache:admin", Backend: "memory"}
	return httpserver.NewServer(cfg, testSecret, quietLogger(), httpserver.ServerDeps{CacheAdmin: admin, HealthCheckers: checkers})
}

func signToken(t *testing.T, secret, scope string, ttl time.Duration) string {
	t.Helper()
	claims := auth.AdminClaims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, srv *httpserver.Server, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func TestCacheAdmin_RequiresScopedToken(t *testing.T) {
	srv := newServer(&mocks.CacheAdminServiceMock{
		StatsFn: func(ctx context.Context, tenant uuid.UUID) (cache.Stats, error) { return cache.Stats{}, nil },
	})

	require.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/v1/cache/stats", "").Code)
	require.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/v1/cache/stats", "garbage").Code)
	require.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/v1/cache/stats", signToken(t, "other-secret", "cache:admin", time.Minute)).Code)
	require.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/v1/cache/stats", signToken(t, testSecret, "cache:admin", -time.Minute)).Code)
	require.Equal(t, http.StatusForbidden, do(t, srv, http.MethodGet, "/api/v1/cache/stats", signToken(t, testSecret, "dashboards:read", time.Minute)).Code)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/v1/cache/stats", signToken(t, testSecret, "dashboards:read cache:admin", time.Minute)).Code)
}

func TestCacheAdmin_EndToEndOnMemoryBackend(t *testing.T) {
	ctx := context.Background()
	c, err := memory.New(cache.Config{KeyPrefix: "app"}, memory.WithSweepInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	srv := newServer(services.NewCacheAdminService(c, nil, nil))
	tok := signToken(t, testSecret, "cache:admin", time.Minute)

	require.NoError(t, c.Set(ctx, "report:1", 1, cache.WithTTL(time.Minute), cache.WithTags("q1")))
	require.NoError(t, c.Set(ctx, "report:2", 2, cache.WithTags("q1")))
	require.NoError(t, c.Set(ctx, "widget:1", 3))
	require.NoError(t, c.Set(ctx, "widget:2", 4))
	require.NoError(t, c.Set(ctx, "a b", 5))
	var v int
	_, err = c.Get(ctx, "widget:1", &v)
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/api/v1/cache/stats", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	var st cache.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.Equal(t, int64(1), st.Hits)
	require.Equal(t, int64(5), st.Sets)
	require.Equal(t, int64(5), st.Size)

	rec = do(t, srv, http.MethodGet, "/api/v1/cache/keys/report:1/ttl", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"key":"report:1","ttl_seconds":60}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/v1/cache/keys/report:2/ttl", tok)
	require.JSONEq(t, `{"key":"report:2","ttl_seconds":-1}`, rec.Body.String())

	require.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/v1/cache/keys/a%20b", tok).Code)
	ok, err := c.Has(ctx, "a b")
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodDelete, "/api/v1/cache/keys", tok).Code)
	require.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/v1/cache/keys?pattern=widget:*", tok).Code)
	ok, err = c.Has(ctx, "widget:2")
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/v1/cache/tags/q1", tok).Code)
	require.Equal(t, 0, c.Len())

	require.Equal(t, http.StatusNotImplemented, do(t, srv, http.MethodPost, "/api/v1/cache/tags/reconcile", tok).Code)

	require.NoError(t, c.Set(ctx, "x", 1))
	require.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/v1/cache", tok).Code)
	require.Equal(t, cache.Stats{}, c.Stats(ctx))
}

func TestCacheAdmin_TenantParameter(t *testing.T) {
	tenant := uuid.New()
	var got uuid.UUID
	srv := newServer(&mocks.CacheAdminServiceMock{
		ClearFn: func(ctx context.Context, id uuid.UUID) error {
			got = id
			return nil
		},
		ReconcileTagsFn: func(ctx context.Context, id uuid.UUID) (int, error) { return 3, nil },
	})
	tok := signToken(t, testSecret, "cache:admin", time.Minute)

	require.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/v1/cache?tenant="+tenant.String(), tok).Code)
	require.Equal(t, tenant, got)

	require.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/v1/cache", tok).Code)
	require.Equal(t, uuid.Nil, got)

	require.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodDelete, "/api/v1/cache?tenant=nope", tok).Code)

	rec := do(t, srv, http.MethodPost, "/api/v1/cache/tags/reconcile?tenant="+tenant.String(), tok)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"removed":3}`, rec.Body.String())
}

func TestCacheAdmin_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{cache.ErrInvalidKey, http.StatusBadRequest},
		{cache.ErrInvalidTag, http.StatusBadRequest},
		{cache.ErrNotSupported, http.StatusNotImplemented},
		{fmt.Errorf("tenant x: %w", cache.ErrUnknownTenant), http.StatusNotFound},
		{errors.Join(errors.New("set"), cache.ErrUnavailable), http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	tok := signToken(t, testSecret, "cache:admin", time.Minute)
	for _, tc := range cases {
		srv := newServer(&mocks.CacheAdminServiceMock{
			DeleteTagFn: func(ctx context.Context, tenant uuid.UUID, tag string) error { return tc.err },
		})
		rec := do(t, srv, http.MethodDelete, "/api/v1/cache/tags/t", tok)
		require.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}
