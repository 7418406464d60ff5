package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
	"github.com/avatarctic/dashboard-cache/internal/infrastructure/httpserver/helpers"
)

type ttlResponse struct {
	Key        string `json:"key"`
	TTLSeconds int64  `json:"ttl_seconds"` // -1 when the key is missing or never expires
}

type reconcileResponse struct {
	Removed int `json:"removed"`
}

func (s *Server) getCacheStats(c echo.Context) error {
	tenant, err := helpers.GetTenantParam(c)
	if err != nil {
		return err
	}
	stats, err := s.cacheAdmin.Stats(c.Request().Context(), tenant)
	if err != nil {
		return s.cacheError(c, "stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) getCacheKeyTTL(c echo.Context) error {
	tenant, err := helpers.GetTenantParam(c)
	if err != nil {
		return err
	}
	key := pathParam(c, "key")
	ttl, err := s.cacheAdmin.TTL(c.Request().Context(), tenant, key)
	if err != nil {
		return s.cacheError(c, "ttl", err)
	}
	secs := int64(-1)
	if ttl != cache.NoTTL {
		secs = int64(ttl / time.Second)
	}
	return c.JSON(http.StatusOK, ttlResponse{Key: key, TTLSeconds: secs})
}

func (s *Server) deleteCacheKey(c echo.Context) error {
	tenant, err := helpers.GetTenantParam(c)
	if err != nil {
		return err
	}
	if err := s.cacheAdmin.DeleteKey(c.Request().Context(), tenant, pathParam(c, "key")); err != nil {
		return s.cacheError(c, "delete key", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteCachePattern(c echo.Context) error {
	tenant, err := helpers.GetTenantParam(c)
	if err != nil {
		return err
	}
	pattern := c.QueryParam("pattern")
	if pattern == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "pattern query parameter is required")
	}
	if err := s.cacheAdmin.DeletePattern(c.Request().Context(), tenant, pattern); err != nil {
		return s.cacheError(c, "delete pattern", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteCacheTag(c echo.Context) error {
	tenant, err := helpers.GetTenantParam(c)
	if err != nil {
		return err
	}
	if err := s.cacheAdmin.DeleteTag(c.Request().Context(), tenant, pathParam(c, "tag")); err != nil {
		return s.cacheError(c, "delete tag", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) reconcileCacheTags(c echo.Context) error {
	tenant, err := helpers.GetTenantParam(c)
	if err != nil {
		return err
	}
	n, err := s.cacheAdmin.ReconcileTags(c.Request().Context(), tenant)
	if err != nil {
		return s.cacheError(c, "reconcile tags", err)
	}
	return c.JSON(http.StatusOK, reconcileResponse{Removed: n})
}

func (s *Server) clearCache(c echo.Context) error {
	tenant, err := helpers.GetTenantParam(c)
	if err != nil {
		return err
	}
	if err := s.cacheAdmin.Clear(c.Request().Context(), tenant); err != nil {
		return s.cacheError(c, "clear", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// pathParam returns the unescaped path parameter, so keys may carry reserved characters.
func pathParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// cacheError maps cache errors onto HTTP statuses.
func (s *Server) cacheError(c echo.Context, op string, err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, cache.ErrInvalidKey), errors.Is(err, cache.ErrInvalidPattern), errors.Is(err, cache.ErrInvalidTag):
		code = http.StatusBadRequest
	case errors.Is(err, cache.ErrUnknownTenant):
		code = http.StatusNotFound
	case errors.Is(err, cache.ErrNotSupported):
		code = http.StatusNotImplemented
	case errors.Is(err, cache.ErrUnavailable):
		code = http.StatusServiceUnavailable
	}
	if code >= http.StatusInternalServerError && s.logger != nil {
		s.logger.WithFields(logrus.Fields{"op": op, "path": c.Request().URL.Path}).WithError(err).Error("cache admin operation failed")
	}
	if code == http.StatusInternalServerError {
		return echo.NewHTTPError(code, "cache operation failed")
	}
	return echo.NewHTTPError(code, err.Error())
}
