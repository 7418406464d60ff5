package middleware

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/auth"
	"github.com/avatarctic/dashboard-cache/internal/infrastructure/httpserver/helpers"
)

type AdminJWTMiddleware struct {
	secret []byte
	scope  string
	logger *logrus.Logger
}

func NewAdminJWTMiddleware(secret, scope string, logger *logrus.Logger) *AdminJWTMiddleware {
	return &AdminJWTMiddleware{secret: []byte(secret), scope: scope, logger: logger}
}

// RequireAdmin validates an HS256 bearer token and requires the configured scope.
func (m *AdminJWTMiddleware) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := helpers.GetJWTTokenFromContext(c)
			if err != nil {
				return err
			}

			claims, err := m.parse(tokenString)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"ip": c.RealIP(), "path": c.Request().URL.Path, "error": err.Error()}).Warn("admin JWT validation failed")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if !claims.HasScope(m.scope) {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"sub": claims.Subject, "path": c.Request().URL.Path}).Warn("admin token lacks required scope")
				}
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}

			helpers.SetAdminSubject(c, claims.Subject)
			return next(c)
		}
	}
}

func (m *AdminJWTMiddleware) parse(tokenString string) (*auth.AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &auth.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC (prevent alg confusion)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(*auth.AdminClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
