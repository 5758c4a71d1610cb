package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tripnetwork/identity-service/internal/core/domain"
)

// RequireRoles enforces role-based access control. It must run after
// Authenticate.
func RequireRoles(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return reject(gateAuthorization, "no_principal", http.StatusUnauthorized, domain.ErrAuthenticationRequired)
			}
			if _, ok := allowed[p.Role]; !ok {
				return reject(gateAuthorization, "role", http.StatusForbidden, domain.ErrInsufficientPermissions)
			}
			return next(c)
		}
	}
}
