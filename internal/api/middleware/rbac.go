package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/account-service/internal/core/domain"
)

// RequireRole checks the role of the cached session, not the token. An admin
// whose role was changed loses access as soon as the snapshot is refreshed.
func RequireRole(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap, ok := Identity(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, domain.MsgUnauthorized)
			}
			if _, ok := allowed[snap.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, domain.MsgForbidden)
			}
			return next(c)
		}
	}
}
