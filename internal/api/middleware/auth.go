package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/account-service/internal/core/domain"
	"github.com/bookshelf/account-service/internal/core/ports"
	"github.com/bookshelf/account-service/internal/pkg/metrics"
)

// IdentityKey is the echo context key holding the *domain.SessionSnapshot of
// an authenticated request.
const IdentityKey = "identity"

// Authenticate applies the role verification strategy for role: the bearer
// token must be signed with that role's secret and its subject must have a
// cached session. Anything else is a 401.
func Authenticate(resolver ports.SessionResolver, role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.SessionVerificationsTotal.WithLabelValues(string(role), "unauthenticated").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, domain.MsgUnauthorized)
			}

			snap, err := resolver.Resolve(c.Request().Context(), role, token)
			if err != nil {
				metrics.SessionVerificationsTotal.WithLabelValues(string(role), "error").Inc()
				return err
			}
			if snap == nil {
				metrics.SessionVerificationsTotal.WithLabelValues(string(role), "unauthenticated").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, domain.MsgUnauthorized)
			}

			metrics.SessionVerificationsTotal.WithLabelValues(string(role), "authenticated").Inc()
			c.Set(IdentityKey, snap)
			return next(c)
		}
	}
}

// Identity returns the session snapshot injected by Authenticate.
func Identity(c echo.Context) (*domain.SessionSnapshot, bool) {
	snap, ok := c.Get(IdentityKey).(*domain.SessionSnapshot)
	return snap, ok && snap != nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
