package middleware

import "github.com/labstack/echo/v4"

// HeaderAPIVersion is the one casing used for the version marker.
const HeaderAPIVersion = "X-API-Version"

// APIVersion stamps every response with the service version.
func APIVersion(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(HeaderAPIVersion, version)
			return next(c)
		}
	}
}
