package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/intersect-health/fhir-api/internal/api/handler"
	"github.com/intersect-health/fhir-api/internal/api/middleware"
	"github.com/intersect-health/fhir-api/internal/core/domain"
	"github.com/intersect-health/fhir-api/internal/core/ports"
)

// Dependencies are the collaborators the router mounts.
type Dependencies struct {
	Auth      ports.AuthService
	Users     ports.UserService
	Resources ports.ResourceService
	Health    *handler.HealthHandler

	Log            zerolog.Logger
	APIPrefix      string
	AllowedOrigins []string

	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     d.AllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	promCfg := echoprometheus.MiddlewareConfig{Subsystem: "fhir_api"}
	metricsCfg := echoprometheus.HandlerConfig{}
	if d.Registry != nil {
		promCfg.Registerer = d.Registry
		metricsCfg.Gatherer = d.Registry
	}
	promCfg.Skipper = func(c echo.Context) bool {
		return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))

	// --- Operational routes (no auth required) ---
	if d.Health != nil {
		e.GET("/", d.Health.Info)
		e.GET("/health", d.Health.Liveness)
		e.GET("/health/ready", d.Health.Readiness)
	}
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(metricsCfg))
	e.GET("/docs/*", echoSwagger.WrapHandler)

	prefix := strings.TrimRight(d.APIPrefix, "/")
	g := e.Group(prefix)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Users)
	g.POST("/auth/register", authHandler.Register)
	g.POST("/auth/login", authHandler.Login)
	g.GET("/auth/me", authHandler.Me)

	authed := g.Group("", middleware.Authenticate(d.Auth))
	authed.PUT("/auth/me", authHandler.UpdateMe)

	// --- User administration ---
	userHandler := handler.NewUserHandler(d.Users)
	users := authed.Group("/users", middleware.RequireAdmin())
	users.GET("", userHandler.List)
	users.GET("/:email", userHandler.Get)
	users.PATCH("/:email/role", userHandler.ChangeRole)
	users.PATCH("/:email/active", userHandler.SetActive)

	// --- FHIR resources ---
	resourceHandler := handler.NewResourceHandler(d.Resources)
	writers := middleware.RequireAnyRole(domain.RoleAdmin, domain.RolePractitioner, domain.RoleNurse)
	authed.GET("/:type", resourceHandler.List)
	authed.GET("/:type/:id", resourceHandler.Get)
	authed.POST("/:type", resourceHandler.Create, writers)
	authed.PUT("/:type/:id", resourceHandler.Update, writers)
	authed.DELETE("/:type/:id", resourceHandler.Delete, middleware.RequireAdmin())

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
			evt := log.Info()
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Status >= 400:
				evt = log.Warn()
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
