package helpers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func GetJWTTokenFromContext(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}
	return token, nil
}

// GetTenantParam reads the optional ?tenant=<uuid> query parameter.
// A missing parameter yields uuid.Nil, which addresses the shared cache.
func GetTenantParam(c echo.Context) (uuid.UUID, error) {
	raw := c.QueryParam("tenant")
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid tenant id")
	}
	SetTenantID(c, id)
	return id, nil
}

func GetAdminSubject(c echo.Context) string {
	if s, ok := GetAdminSubjectRaw(c); ok {
		return s
	}
	return ""
}

// GetTenantID returns the tenant a request addressed, or uuid.Nil for the shared cache.
func GetTenantID(c echo.Context) uuid.UUID {
	if id, ok := GetTenantIDRaw(c); ok {
		return id
	}
	return uuid.Nil
}
