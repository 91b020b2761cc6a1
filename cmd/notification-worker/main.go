package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/opticalquote-backend/internal/notifications"
	"github.com/angelmondragon/opticalquote-backend/pkg/config"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/opticalquote-backend/pkg/pubsub"
	"github.com/angelmondragon/opticalquote-backend/pkg/redis"
)

const serviceKind = "notification-worker"

func main() {
	bootCtx := context.Background()
	logg := logger.New(logger.Options{ServiceName: serviceKind})

	if err := godotenv.Load(); err != nil {
		logg.Warn(bootCtx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(bootCtx, logg, "config", err)
	cfg.Service.Kind = serviceKind

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	requireResource(bootCtx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(bootCtx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(bootCtx, cfg.GCP, cfg.PubSub, pubsub.Options{RequireSubscriptions: true}, logg)
	requireResource(bootCtx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(bootCtx, "failed to close pubsub client", err)
		}
	}()

	guard, err := idempotency.NewGuard(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(bootCtx, logg, "idempotency guard", err)

	sender, err := notifications.NewSender(notifications.NewLogMailer(logg), cfg.Mail.DefaultFrom, cfg.Mail.StoreName)
	requireResource(bootCtx, logg, "quote sender", err)

	quoteEmails, err := notifications.NewConsumer(sender, pubsubClient.NotificationSubscription(), guard, logg)
	requireResource(bootCtx, logg, "notification consumer", err)

	service, err := NewService(ServiceParams{
		Logger:    logg,
		Redis:     redisClient,
		PubSub:    pubsubClient,
		Consumers: map[string]consumer{"quote-email": quoteEmails},
	})
	requireResource(bootCtx, logg, "worker service", err)

	ctx, stop := signal.NotifyContext(bootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"serviceKind":  serviceKind,
		"subscription": cfg.PubSub.NotificationSubscription,
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to initialize "+name, err)
	os.Exit(1)
}
