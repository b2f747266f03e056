package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/concierge-portal/internal/api/http"
	"github.com/spec-kit/concierge-portal/internal/api/http/handlers"
	"github.com/spec-kit/concierge-portal/internal/client"
	"github.com/spec-kit/concierge-portal/internal/config"
	"github.com/spec-kit/concierge-portal/internal/events"
	"github.com/spec-kit/concierge-portal/internal/observability"
	"github.com/spec-kit/concierge-portal/internal/persistence"
	"github.com/spec-kit/concierge-portal/internal/querycache"
	"github.com/spec-kit/concierge-portal/internal/service"
	"github.com/spec-kit/concierge-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, closeStorage := openStorage(ctx, cfg, logger)
	defer closeStorage()

	metrics := observability.NewMetrics()

	backend, err := client.New(cfg.Backend.BaseURL, nil, client.Options{
		Timeout: cfg.Backend.Timeout(),
		Logger:  logger.Named("client"),
		Metrics: metrics,
	})
	if err != nil {
		logger.Fatal("failed to init backend client", zap.Error(err))
	}

	policy := querycache.DefaultPolicy()
	if stale := cfg.Cache.StaleTime(); stale > 0 {
		policy.StaleTime = stale
	}
	policy.Retry = cfg.Cache.Retry
	cache, err := querycache.New(querycache.Config{
		NumCounters: cfg.Cache.NumCounters,
		MaxCost:     cfg.Cache.MaxCost,
		Policy:      policy,
		Logger:      logger.Named("querycache"),
	})
	if err != nil {
		logger.Fatal("failed to init query cache", zap.Error(err))
	}
	defer cache.Close()

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartSessionAuditWorker(dispatcher, logger.Named("audit"))

	portal := service.NewPortal(service.PortalDependencies{
		Storage: storage,
		Client:  backend,
		Cache:   cache,
		Events:  dispatcher,
		Logger:  logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Portal:       portal,
		PortalConfig: cfg.Portal,
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Storage.Driver, storage, metrics),
		Auth:         handlers.NewAuthHandler(cfg.Portal.DevTools),
		Pages:        handlers.NewPagesHandler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// openStorage connects the configured token storage backend.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (persistence.Backend, func()) {
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		redis := persistence.NewRedis(cfg.Redis, logger)
		return redis, redis.Close
	case config.StoragePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		return pg, pg.Close
	default:
		return persistence.NewMemory(), func() {}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
