package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/dispatch-service/internal/api/http"
	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/persistence"
	"github.com/spec-kit/dispatch-service/internal/realtime"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	"github.com/spec-kit/dispatch-service/internal/worker"
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

	pool := pg.PoolHandle()
	profileRepo := repository.NewProfileRepository(pool)
	staffRepo := repository.NewStaffProfileRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	dispatchRepo := repository.NewDispatchRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	inviteRepo := repository.NewInviteRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(service.AuthDependencies{
		ProfileRepo: profileRepo,
		Tokens:      tokens,
		BcryptCost:  cfg.Auth.BcryptCost,
	})
	dispatchService := service.NewDispatchService(service.DispatchDependencies{
		DispatchRepo: dispatchRepo,
		EventRepo:    eventRepo,
		StaffRepo:    staffRepo,
		Dispatcher:   dispatcher,
	})
	eventService := service.NewEventService(service.EventDependencies{
		EventRepo:    eventRepo,
		MessageRepo:  messageRepo,
		DispatchRepo: dispatchRepo,
		ProfileRepo:  profileRepo,
		Dispatcher:   dispatcher,
	})
	inviteService := service.NewInviteService(service.InviteDependencies{
		InviteRepo:  inviteRepo,
		ProfileRepo: profileRepo,
		StaffRepo:   staffRepo,
		Dispatcher:  dispatcher,
		BaseURL:     cfg.App.BaseURL,
		TTL:         cfg.Invite.TTL(),
	})
	directoryService := service.NewDirectoryService(service.DirectoryDependencies{
		ProfileRepo: profileRepo,
		StaffRepo:   staffRepo,
		Dispatcher:  dispatcher,
		DefaultCity: cfg.Identity.DefaultCity,
	})
	notificationService := service.NewNotificationService(logger, cfg.Notification)
	broadcaster := realtime.NewBroadcaster(redis, logger)
	feed := realtime.NewFeed(redis, logger)

	worker.StartNotificationWorker(dispatcher, notificationService, broadcaster)

	authMiddleware := auth.NewAuthMiddleware(tokens, profileRepo, staffRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Events:         handlers.NewEventsHandler(eventService, dispatchService),
		Dispatch:       handlers.NewDispatchHandler(dispatchService),
		Staff:          handlers.NewStaffHandler(inviteService, directoryService),
		Webhook:        handlers.NewWebhookHandler(directoryService, cfg.Identity, logger),
		Feed:           handlers.NewFeedHandler(feed, eventService),
		AuthMiddleware: authMiddleware,
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
