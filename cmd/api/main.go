package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/portal-gateway/internal/api/http"
	"github.com/spec-kit/portal-gateway/internal/api/http/handlers"
	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/cache"
	"github.com/spec-kit/portal-gateway/internal/config"
	"github.com/spec-kit/portal-gateway/internal/events"
	"github.com/spec-kit/portal-gateway/internal/observability"
	"github.com/spec-kit/portal-gateway/internal/persistence"
	"github.com/spec-kit/portal-gateway/internal/repository"
	"github.com/spec-kit/portal-gateway/internal/service"
	"github.com/spec-kit/portal-gateway/internal/session"
	"github.com/spec-kit/portal-gateway/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Covers the missing JWT secret: refuse to serve rather than fall
		// back to an insecure default.
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())
	if err != nil {
		logger.Fatal("failed to init token service", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(pg.PoolHandle())
	sessionStore := session.NewRedisStore(redis.Client, cfg.Session.TTL())
	counterStore := session.NewRedisCounters(redis.Client)
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:     userRepo,
		SessionStore: sessionStore,
		CounterStore: counterStore,
		TokenService: tokens,
		Dispatcher:   dispatcher,
	})
	gate := auth.NewGate(tokens, userRepo, cfg.Auth.UserLookupTimeout())

	dedup := cache.NewDedup(cfg.Dedup.TTL(), cfg.Dedup.SweepInterval(), logger)
	dedup.Start()
	defer dedup.Stop()

	syncer := session.NewSyncer(sessionStore, counterStore, logger)
	worker.RegisterEventHandlers(dispatcher, syncer, logger)
	worker.StartCounterSync(ctx, syncer, cfg.Session.SyncInterval(), logger)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:     handlers.NewAuthHandler(authService),
		Sessions: handlers.NewSessionsHandler(authService),
		Gate:     gate,
		Dedup:    dedup,
		Metrics:  metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
