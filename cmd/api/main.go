// Command api runs the Intersect FHIR API server.
//
// @title                       Intersect FHIR API
// @version                     1.0.0
// @description                 Staff authentication, role based access and FHIR resource storage.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/intersect-health/fhir-api/docs"
	"github.com/intersect-health/fhir-api/internal/api"
	"github.com/intersect-health/fhir-api/internal/api/handler"
	"github.com/intersect-health/fhir-api/internal/core/ports"
	"github.com/intersect-health/fhir-api/internal/core/service"
	"github.com/intersect-health/fhir-api/internal/infrastructure/config"
	mongodb "github.com/intersect-health/fhir-api/internal/infrastructure/db/mongo"
	redisdb "github.com/intersect-health/fhir-api/internal/infrastructure/db/redis"
	"github.com/intersect-health/fhir-api/internal/infrastructure/queue"
	"github.com/intersect-health/fhir-api/internal/infrastructure/security"
	"github.com/intersect-health/fhir-api/internal/infrastructure/telemetry"
	"github.com/intersect-health/fhir-api/pkg/logger"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 15 * time.Second
)

func main() {
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: cfg.Telemetry.ServiceName,
		Version: version,
	})
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Warn().Err(envErr).Msg("could not read .env file")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MinPoolSize: cfg.Mongo.MinPoolSize,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	userRepo := mongodb.NewUserRepository(db)
	resourceRepo := mongodb.NewResourceRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	for name, ensure := range map[string]func(context.Context) error{
		"users":     userRepo.EnsureIndexes,
		"resources": resourceRepo.EnsureIndexes,
		"audit":     auditRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	}

	// --- Audit trail ---
	var audit ports.AuditRecorder
	var dispatcher *queue.AuditDispatcher
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if cfg.Audit.Enabled {
		dispatcher = queue.NewAuditDispatcher(cfg.Audit.Workers, auditRepo, logger.Component("audit"))
		dispatcher.Start(workerCtx)
		audit = dispatcher
	}

	// --- Services ---
	tokens, err := security.NewTokenManager(security.TokenConfig{
		Secret:    cfg.Auth.SecretKey,
		Algorithm: cfg.Auth.Algorithm,
		TTL:       cfg.TokenTTL(),
	})
	if err != nil {
		return err
	}

	clock := service.WithClock(time.Now)
	authOpts := []service.Option{clock, service.WithActiveCheck(cfg.Auth.CheckActivePerRequest)}
	if audit != nil {
		authOpts = append(authOpts, service.WithAuditRecorder(audit))
	}
	if rdb != nil {
		authOpts = append(authOpts, service.WithLoginLimiter(
			redisdb.NewLoginLimiter(rdb, cfg.Auth.MaxLoginAttempts, cfg.Auth.LoginAttemptWindow),
		))
	}
	authService := service.NewAuthService(userRepo, security.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, logger.Component("auth"), authOpts...)
	userService := service.NewUserService(userRepo, audit, logger.Component("users"), clock)
	resourceService := service.NewResourceService(resourceRepo, audit, logger.Component("resources"), clock)

	// --- HTTP ---
	deps := map[string]handler.Pinger{
		"mongodb": handler.PingFunc(func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }),
	}
	if rdb != nil {
		deps["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	e := api.NewRouter(api.Dependencies{
		Auth:           authService,
		Users:          userService,
		Resources:      resourceService,
		Health:         handler.NewHealthHandler(cfg.Telemetry.ServiceName, version, deps),
		Log:            logger.Component("http"),
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.Origins(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, cfg.Telemetry.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case runErr = <-serveErr:
	}

	// --- Graceful shutdown ---
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	if dispatcher != nil {
		stopWorkers()
		dispatcher.Wait()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}

	log.Info().Msg("shutdown complete")
	return runErr
}
