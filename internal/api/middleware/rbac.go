package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/schoolpay/user-service/internal/api/metrics"
	"github.com/schoolpay/user-service/internal/core/domain"
)

// RBAC enforces role-based access control on the authenticated principal.
// Requests without a principal are rejected as well.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := Principal(c)
			if principal == nil {
				metrics.ObserveAccess("role", domain.ErrForbidden)
				return domain.Forbidden(domain.MsgForbidden)
			}
			if _, ok := allowed[principal.Role]; !ok {
				metrics.ObserveAccess("role", domain.ErrForbidden)
				return domain.Forbidden(domain.MsgForbidden)
			}
			metrics.ObserveAccess("role", nil)
			return next(c)
		}
	}
}
