package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/tripnetwork/identity-service/docs"
	"github.com/tripnetwork/identity-service/internal/api/handler"
	"github.com/tripnetwork/identity-service/internal/api/middleware"
	"github.com/tripnetwork/identity-service/internal/core/domain"
	"github.com/tripnetwork/identity-service/internal/core/ports"
)

const metricsSubsystem = "identity"

// Dependencies is everything the HTTP layer needs. Limiter may be nil, which
// disables login throttling.
type Dependencies struct {
	Accounts  ports.AccountService
	Approvals ports.ApprovalService
	Tokens    ports.TokenVerifier

	Limiter     ports.AttemptLimiter
	LoginLimit  int
	LoginWindow time.Duration

	Checks map[string]handler.Check

	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Log         zerolog.Logger
	Development bool
}

// @title                       Identity Service API
// @version                     1.0
// @description                 Registration, login and provider approval for the marketplace.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log, deps.Development)
	e.Validator = handler.NewValidator()

	registerer, gatherer := deps.Registerer, deps.Gatherer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Accounts)
	adminHandler := handler.NewAdminHandler(deps.Approvals)
	healthHandler := handler.NewHealthHandler(deps.Checks, deps.Log)
	authenticate := middleware.Authenticate(deps.Tokens, deps.Accounts)

	// --- Operational routes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// --- Auth routes ---
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	if deps.Limiter != nil {
		auth.POST("/login", authHandler.Login,
			middleware.LoginThrottle(deps.Limiter, deps.LoginLimit, deps.LoginWindow, deps.Log))
	} else {
		auth.POST("/login", authHandler.Login)
	}
	auth.GET("/me", authHandler.Me, authenticate)

	// --- Admin routes ---
	admin := api.Group("/admin", authenticate, middleware.RequireRoles(domain.RoleAdmin))
	admin.GET("/pending-providers", adminHandler.ListPending)
	admin.PUT("/providers/:id/approve", adminHandler.Approve)
	admin.PUT("/providers/:id/reject", adminHandler.Reject)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
