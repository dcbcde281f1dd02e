package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cybertank378/student-point-app-sub000/internal/infra/config"
	"github.com/cybertank378/student-point-app-sub000/internal/infra/security"
	"github.com/cybertank378/student-point-app-sub000/internal/transport/http/cookies"
	"github.com/cybertank378/student-point-app-sub000/internal/transport/http/handlers"
	"github.com/cybertank378/student-point-app-sub000/internal/transport/http/middleware"
	"github.com/cybertank378/student-point-app-sub000/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	PasswordReset *usecase.PasswordResetService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Tokens      *security.TokenService
	Metrics     *middleware.HTTPMetrics
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker reports whether the database connection is usable.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker reports whether the cache backend is usable.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register builds the Gin engine with the full middleware chain and all routes.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.EnrichContext(),
		middleware.RequestID(),
		middleware.Logger(deps.Logger),
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	cookieMgr := cookies.NewManager(
		deps.Config.Cookie,
		deps.Tokens.AccessTTL(),
		deps.Tokens.RefreshTTL(),
	)

	gate := middleware.NewGate(
		deps.Tokens,
		deps.Services.Auth,
		cookieMgr,
		DefaultGatePolicy(),
		deps.Logger,
	)
	r.Use(gate.Handler())

	checks := make([]handlers.DependencyCheck, 0, 2)
	if deps.Database != nil {
		checks = append(checks, handlers.DependencyCheck{Name: "database", Check: deps.Database.Ping})
	}
	if deps.Cache != nil {
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Check: deps.Cache.HealthCheck})
	}

	healthHandler := handlers.NewHealthHandler(checks...)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := r.Group("/api/auth")

	authHandler := handlers.NewAuthHandler(deps.Services.Auth, cookieMgr)
	authHandler.RegisterRoutes(authGroup, deps.throttle("auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts, time.Minute)...)

	passwordHandler := handlers.NewPasswordHandler(deps.Services.Auth, deps.Services.PasswordReset)
	passwordHandler.RegisterRoutes(authGroup, deps.throttle("password_reset_ip", deps.Config.RateLimit.PasswordResetMaxAttempts, time.Hour)...)

	return r
}

// throttle returns a rate limiting middleware for the named rule, or nothing
// when throttling is disabled or the configured limit is not positive.
func (deps Dependencies) throttle(name string, limit int, fallbackWindow time.Duration) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = fallbackWindow
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	})}
}
