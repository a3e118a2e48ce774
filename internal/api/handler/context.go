package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/account-service/internal/api/middleware"
	"github.com/bookshelf/account-service/internal/core/domain"
)

// currentIdentity returns the cached session injected by the Authenticate
// middleware. A missing identity means the route was mounted without it,
// which is treated as unauthenticated rather than trusted.
func currentIdentity(c echo.Context) (*domain.SessionSnapshot, error) {
	snap, ok := middleware.Identity(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, domain.MsgUnauthorized)
	}
	return snap, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
