package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims are the claims of a bearer token allowed to operate the cache.
// Scope is a space-delimited list, as in OAuth 2.0 access tokens.
type AdminClaims struct {
	Scope string `json:"scope"`

	jwt.RegisteredClaims
}

// HasScope reports whether scope is one of the granted scopes.
func (c *AdminClaims) HasScope(scope string) bool {
	for _, s := range strings.Fields(c.Scope) {
		if s == scope {
			return true
		}
	}
	return false
}
