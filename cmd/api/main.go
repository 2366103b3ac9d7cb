// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/carterperez-dev/sharaka/internal/admin"
	"github.com/carterperez-dev/sharaka/internal/auth"
	"github.com/carterperez-dev/sharaka/internal/config"
	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/derive"
	"github.com/carterperez-dev/sharaka/internal/health"
	"github.com/carterperez-dev/sharaka/internal/message"
	"github.com/carterperez-dev/sharaka/internal/middleware"
	"github.com/carterperez-dev/sharaka/internal/partnership"
	"github.com/carterperez-dev/sharaka/internal/project"
	"github.com/carterperez-dev/sharaka/internal/rating"
	"github.com/carterperez-dev/sharaka/internal/server"
	"github.com/carterperez-dev/sharaka/internal/store"
	"github.com/carterperez-dev/sharaka/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// backend is the selected data backend plus what the admin dashboard can
// read from it.
type backend struct {
	store.Backend
	stats func() sql.DBStats
	close func() error
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"backend", cfg.Backend.Driver,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App, cfg.Backend.Driver)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	data, err := openBackend(ctx, cfg.Backend)
	if err != nil {
		return err
	}
	logger.Info("data backend ready", "driver", cfg.Backend.Driver)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	verifier, err := auth.NewVerifier(ctx, cfg.Auth)
	if err != nil {
		return err
	}
	logger.Info("token verifier initialized",
		"jwks", cfg.Auth.JWKSURL != "",
		"audience", cfg.Auth.Audience,
	)

	locale := derive.ParseLocale(cfg.App.Locale)

	provider := auth.NewGoTrue(
		cfg.Backend.AuthURL(),
		cfg.Backend.AnonKey,
		cfg.Backend.Timeout,
	)
	sessions := auth.NewSessionStore(redis.Client, cfg.Auth.SessionTTL)
	authSvc := auth.NewService(provider, sessions, auth.ServiceConfig{
		MinPasswordLength:  cfg.Auth.MinPasswordLength,
		RefreshLeeway:      cfg.Auth.RefreshLeeway,
		PasswordRedirectTo: cfg.Auth.PasswordRedirectTo,
		Locale:             locale,
	}, logger)
	authHandler := auth.NewHandler(authSvc)

	ratingSvc := rating.NewService(rating.NewRepository(data), logger)
	ratingHandler := rating.NewHandler(ratingSvc)

	userSvc := user.NewService(user.NewRepository(data), data, logger)
	userHandler := user.NewHandler(userSvc, ratingSvc, locale)

	projectSvc := project.NewService(project.NewRepository(data), data, logger)
	projectHandler := project.NewHandler(projectSvc, locale)

	partnershipSvc := partnership.NewService(partnership.NewRepository(data), logger)
	partnershipHandler := partnership.NewHandler(partnershipSvc, locale)

	messageSvc := message.NewService(message.NewRepository(data), logger)
	messageHandler := message.NewHandler(messageSvc, locale)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "backend", Checker: data},
		health.Dependency{Name: "auth", Checker: provider},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Projects:     projectSvc,
		Users:        userSvc,
		BackendStats: data.stats,
		BackendPing:  data.Ping,
		RedisStats:   redis.PoolStats,
		RedisPing:    redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			BypassFunc: middleware.IsProbe,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	authenticator := middleware.Authenticator(verifier)
	adminOnly := middleware.RequireAdmin
	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Name: "auth",
		Limit: middleware.PerMinute(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
		),
		KeyFunc: middleware.KeyByIPAndEndpoint,
	}).Handler
	writeLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Name: "write",
		Limit: middleware.PerMinute(
			cfg.RateLimit.WriteRequests,
			cfg.RateLimit.WriteBurst,
		),
		KeyFunc:    middleware.KeyByUser,
		BypassFunc: middleware.IsRead,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(verifier))

		authHandler.RegisterRoutes(r, authenticator, authLimiter)

		userHandler.RegisterRoutes(r, authenticator)

		r.Group(func(r chi.Router) {
			r.Use(writeLimiter)

			projectHandler.RegisterRoutes(r, authenticator)
			partnershipHandler.RegisterRoutes(r, authenticator)
			ratingHandler.RegisterRoutes(r, authenticator)
			messageHandler.RegisterRoutes(r, authenticator)
		})

		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		projectHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := data.close(); err != nil {
		logger.Error("backend close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func openBackend(ctx context.Context, cfg config.BackendConfig) (*backend, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case "rest":
		return &backend{
			Backend: store.NewREST(cfg.RestURL(), cfg.AnonKey, cfg.Timeout),
			close:   noop,
		}, nil
	case "postgres":
		pg, err := store.NewPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &backend{Backend: pg, stats: pg.Stats, close: pg.Close}, nil
	case "memory":
		return &backend{Backend: store.NewMemory(), close: noop}, nil
	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Driver)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
