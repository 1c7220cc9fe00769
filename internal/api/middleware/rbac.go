package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/clubpedal/members-system/internal/core/domain"
)

// RBAC restricts a route to the given roles. The role comes from the JWT
// claims set by Auth, so RBAC must run after it. Unauthorized principals get
// the central 403 mapping for domain.ErrForbidden.
func RBAC(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return domain.ErrForbidden
		}
	}
}
