package middleware

import "github.com/labstack/echo/v4"

// Context keys populated by JWTAuth.
const (
	ctxSubject = "user_id"
	ctxRole    = "role"
)

// Roles carried in the "role" claim.
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// Subject returns the authenticated token subject, or "" for anonymous
// requests.
func Subject(c echo.Context) string {
	s, _ := c.Get(ctxSubject).(string)
	return s
}

// Role returns the role claim of the authenticated token, or "".
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}
