package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/bookshelf/account-service/docs"
	"github.com/bookshelf/account-service/internal/api/handler"
	"github.com/bookshelf/account-service/internal/api/middleware"
	"github.com/bookshelf/account-service/internal/core/domain"
	"github.com/bookshelf/account-service/internal/core/ports"
)

// Dependencies are the constructed collaborators the router wires into
// handlers. Nothing here is created by the router itself.
type Dependencies struct {
	AuthService    ports.AuthService
	AccountService ports.AccountService
	Resolver       ports.SessionResolver
	Readiness      map[string]handler.Pinger
	APIVersion     string
	Logger         zerolog.Logger
	// MetricsRegisterer enables HTTP metrics and /metrics when non-nil.
	MetricsRegisterer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(middleware.APIVersion(deps.APIVersion))
	if deps.MetricsRegisterer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "accounts_http",
			Registerer: deps.MetricsRegisterer,
		}))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	accountHandler := handler.NewAccountHandler(deps.AccountService)
	requireUser := middleware.Authenticate(deps.Resolver, domain.RoleUser)
	requireAdmin := middleware.Authenticate(deps.Resolver, domain.RoleAdmin)

	v1 := e.Group("/v1")

	// --- Auth routes ---
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/logout", authHandler.Logout, requireUser)

	// --- User routes ---
	users := v1.Group("/users", requireUser)
	users.GET("/me", accountHandler.Me)
	users.PATCH("/me", accountHandler.UpdateMe)

	// --- Admin routes ---
	admin := v1.Group("/admin", requireAdmin, middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/users/:id", accountHandler.AdminGet)
	admin.PATCH("/users/:id", accountHandler.AdminUpdate)

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Readiness, deps.Logger)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
