package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/core/port"
	"github.com/cybertank378/student-point-app-sub000/internal/infra/config"
	"github.com/cybertank378/student-point-app-sub000/internal/infra/database"
	kafkainfra "github.com/cybertank378/student-point-app-sub000/internal/infra/kafka"
	"github.com/cybertank378/student-point-app-sub000/internal/infra/logger"
	redisinfra "github.com/cybertank378/student-point-app-sub000/internal/infra/redis"
	"github.com/cybertank378/student-point-app-sub000/internal/infra/security"
	postgresrepo "github.com/cybertank378/student-point-app-sub000/internal/repository/postgres"
	redisrepo "github.com/cybertank378/student-point-app-sub000/internal/repository/redis"
	"github.com/cybertank378/student-point-app-sub000/internal/transport/http/middleware"
	"github.com/cybertank378/student-point-app-sub000/internal/transport/http/routes"
	"github.com/cybertank378/student-point-app-sub000/internal/usecase"
)

// Application wires the configuration, infrastructure, and HTTP engine.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
}

// New builds the full dependency graph.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	keyProvider, err := security.NewFileKeyProvider(cfg.JWT.KeyDirectory)
	if err != nil {
		return nil, fmt.Errorf("init key provider: %w", err)
	}

	tokenService := security.NewTokenService(
		keyProvider,
		cfg.JWT.KeyID,
		cfg.App.Name,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)

	hasher, err := security.NewHasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("init hasher: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)
	eventPublisher := newEventPublisher(cfg, log)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "school:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	lockPolicy := domain.LockPolicy{
		Threshold:    cfg.Lockout.MaxFailedAttempts,
		LockDuration: cfg.Lockout.LockDuration,
	}

	authService := usecase.NewAuthService(
		repos.Users,
		repos.Sessions,
		repos.Audits,
		hasher,
		tokenService,
		eventPublisher,
		lockPolicy,
		log,
	)

	passwordResetService := usecase.NewPasswordResetService(
		repos.Users,
		repos.ResetTokens,
		hasher,
		eventPublisher,
		cfg.Reset.TokenTTL,
		cfg.Reset.RevealToken,
		log,
	)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Tokens:      tokenService,
		Metrics:     metrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:          authService,
			PasswordReset: passwordResetService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
	}, nil
}

// newEventPublisher returns a Kafka-backed publisher when brokers are
// configured and the producer connects, otherwise the logging stub. Auth
// events are advisory, so publisher setup never fails application startup.
func newEventPublisher(cfg *config.AppConfig, log *zap.Logger) port.EventPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(log)
	}

	producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(log)
	}

	log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	return kafkainfra.NewEventPublisher(producer, cfg.App, log)
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	srv := &http.Server{
		Addr:              net.JoinHostPort(a.cfg.App.Host, strconv.Itoa(a.cfg.App.Port)),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

func (a *Application) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	_ = a.logger.Sync()
}
