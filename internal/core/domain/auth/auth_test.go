package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/auth"
)

func TestAdminClaimsHasScope(t *testing.T) {
	c := auth.AdminClaims{Scope: "dashboards:read  cache:admin"}
	require.True(t, c.HasScope("cache:admin"))
	require.False(t, c.HasScope("cache"))
	require.False(t, (&auth.AdminClaims{}).HasScope("cache:admin"))
}
