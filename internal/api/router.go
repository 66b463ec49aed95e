package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/tenantgate/identity-gateway/internal/api/docs"
	"github.com/tenantgate/identity-gateway/internal/api/handler"
	"github.com/tenantgate/identity-gateway/internal/api/middleware"
	"github.com/tenantgate/identity-gateway/internal/core/domain"
	"github.com/tenantgate/identity-gateway/internal/core/ports"
	"github.com/tenantgate/identity-gateway/internal/core/ratelimit"
)

// Dependencies is everything the HTTP layer needs. Mongo and Redis are only
// used by the readiness check and may be nil.
type Dependencies struct {
	Accounts          ports.AccountService
	Users             ports.UserService
	Verifier          middleware.TokenVerifier
	Limiter           *ratelimit.Limiter
	Rules             middleware.RouteRules
	TrustForwardedFor bool
	Mongo             *mongo.Database
	Redis             *redis.Client
	Logger            zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	rules := deps.Rules
	if rules == nil {
		rules = middleware.DefaultRouteRules
	}

	// --- Global middleware ---
	// Rate limit first, then authenticate.
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(middleware.RateLimit(deps.Limiter, deps.TrustForwardedFor, deps.Logger))
	e.Use(middleware.Auth(deps.Verifier, rules, deps.Logger))

	// --- Auth routes (public) ---
	authHandler := handler.NewAuthHandler(deps.Accounts)
	e.POST("/api/auth/register", authHandler.Register)
	e.POST("/api/auth/login", authHandler.Login)

	// --- Users (authenticated, tenant-scoped) ---
	userHandler := handler.NewUserHandler(deps.Users)
	users := e.Group("/api/users", middleware.RBAC(domain.RoleAdmin, domain.RoleUser))
	users.GET("", userHandler.List)
	users.GET("/me", userHandler.Me)
	users.GET("/:id", userHandler.Get)

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.Mongo, deps.Redis, deps.Logger)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Operational endpoints ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
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
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
