package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/bless-tracker/internal/api/http"
	"github.com/spec-kit/bless-tracker/internal/api/http/handlers"
	"github.com/spec-kit/bless-tracker/internal/auth"
	"github.com/spec-kit/bless-tracker/internal/config"
	"github.com/spec-kit/bless-tracker/internal/devicecache"
	"github.com/spec-kit/bless-tracker/internal/events"
	"github.com/spec-kit/bless-tracker/internal/geocode"
	"github.com/spec-kit/bless-tracker/internal/notify"
	"github.com/spec-kit/bless-tracker/internal/observability"
	"github.com/spec-kit/bless-tracker/internal/persistence"
	"github.com/spec-kit/bless-tracker/internal/repository"
	"github.com/spec-kit/bless-tracker/internal/service"
	"github.com/spec-kit/bless-tracker/internal/worker"
)

const shutdownTimeout = 15 * time.Second

type repositories struct {
	residents    repository.ResidentRepository
	interactions repository.InteractionRepository
	profiles     repository.ProfileRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var repos repositories
	if pg == nil {
		mem := repository.NewMemoryStore()
		repos = repositories{residents: mem.Residents(), interactions: mem.Interactions(), profiles: mem.Profiles()}
	} else {
		pool := pg.PoolHandle()
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repositories{
			residents:    repository.NewResidentRepository(pool),
			interactions: repository.NewInteractionRepository(pool),
			profiles:     repository.NewProfileRepository(pool),
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var cache devicecache.Cache = devicecache.NewMemoryCache()
	if redis != nil {
		cache = devicecache.NewRedisCache(redis.Client)
	}

	notifier, err := notify.New(cfg.Notification, logger)
	if err != nil {
		logger.Fatal("failed to init notifier", zap.Error(err))
	}
	location, err := cfg.Notification.Location()
	if err != nil {
		logger.Fatal("invalid reminder timezone", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	monitor := service.NewSyncMonitor(dispatcher, metrics, logger)
	worker.StartSyncWorker(monitor)

	sessions := service.NewSessionManager(service.SessionDependencies{
		ResidentRepo:    repos.residents,
		InteractionRepo: repos.interactions,
		ProfileRepo:     repos.profiles,
		Cache:           cache,
		Notifier:        notifier,
		Geocoder:        geocode.New(cfg.Geocoding, logger),
		Dispatcher:      dispatcher,
		Logger:          logger,
		Reminder: service.ReminderSettings{
			Hour:          cfg.Notification.ReminderHour,
			Location:      location,
			RetryInterval: cfg.Notification.RetryInterval(),
		},
		RemoteWriteTimeout: cfg.Sync.RemoteWriteTimeout(),
	})

	authService := service.NewAuthService(cfg.Auth, repos.profiles)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.profiles)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: cfg.App.Env != "development"})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, repos.profiles, sessions, monitor),
		Residents:      handlers.NewResidentsHandler(sessions),
		Dashboard:      handlers.NewDashboardHandler(sessions, monitor),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("http shutdown", zap.Error(err))
		}
		return sessions.CloseAll(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("service stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
