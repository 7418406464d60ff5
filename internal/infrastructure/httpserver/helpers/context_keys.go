package helpers

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type ctxKey string

const (
	keyAdminSubject ctxKey = "admin_subject"
	keyTenantID     ctxKey = "tenant_id"
)

func SetAdminSubject(c echo.Context, sub string) { c.Set(string(keyAdminSubject), sub) }
func GetAdminSubjectRaw(c echo.Context) (string, bool) {
	v := c.Get(string(keyAdminSubject))
	s, ok := v.(string)
	return s, ok
}

func SetTenantID(c echo.Context, id uuid.UUID) { c.Set(string(keyTenantID), id) }
func GetTenantIDRaw(c echo.Context) (uuid.UUID, bool) {
	v := c.Get(string(keyTenantID))
	id, ok := v.(uuid.UUID)
	return id, ok
}
