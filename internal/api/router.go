package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/schoolpay/user-service/docs"
	"github.com/schoolpay/user-service/internal/api/handler"
	"github.com/schoolpay/user-service/internal/api/middleware"
	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/ports"
	"github.com/schoolpay/user-service/internal/core/service"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Logger        zerolog.Logger
	APIPrefix     string
	Users         ports.UserService
	Authenticator *service.Authenticator
	// Readiness lists the dependencies checked by /health/ready.
	Readiness map[string]ports.Pinger
	// Registry receives the HTTP metrics and backs /metrics. Nil means the
	// default Prometheus registry, which also holds the custom metrics.
	Registry *prometheus.Registry
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
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	}))
	promCfg := echoprometheus.MiddlewareConfig{
		Subsystem: "user_service",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/swagger")
		},
	}
	metricsHandler := echoprometheus.NewHandler()
	if deps.Registry != nil {
		promCfg.Registerer = deps.Registry
		metricsHandler = echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Registry})
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.Readiness)
	e.GET("/health", healthHandler.Liveness)        // liveness: is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API routes ---
	prefix := deps.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	userHandler := handler.NewUserHandler(deps.Users)
	// Authentication is attached per route. Group-level middleware would make
	// unknown paths under the prefix answer 401 instead of 404.
	authn := middleware.Authenticate(deps.Authenticator)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	users := e.Group(prefix + "/users")

	users.POST("/signup", userHandler.Signup, authn)
	users.POST("/login", userHandler.Login, authn)
	users.POST("/token/refresh", userHandler.Refresh, authn)

	users.GET("", userHandler.List, authn, adminOnly)
	users.POST("", userHandler.Create, authn, adminOnly)

	users.GET("/:id", userHandler.Get, authn)
	users.PUT("/:id", userHandler.Update, authn)
	users.PATCH("/:id", userHandler.Update, authn)
	users.DELETE("/:id", userHandler.Delete, authn)

	return e
}

// requestLogger logs one line per request through zerolog.
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
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
