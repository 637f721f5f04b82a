package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/collette-backend/internal/cron"
	"github.com/angelmondragon/collette-backend/internal/inventory"
	"github.com/angelmondragon/collette-backend/internal/notifications"
	product "github.com/angelmondragon/collette-backend/internal/products"
	"github.com/angelmondragon/collette-backend/pkg/config"
	"github.com/angelmondragon/collette-backend/pkg/db"
	"github.com/angelmondragon/collette-backend/pkg/instance"
	"github.com/angelmondragon/collette-backend/pkg/logger"
	"github.com/angelmondragon/collette-backend/pkg/metrics"
	"github.com/angelmondragon/collette-backend/pkg/migrate"
	"github.com/angelmondragon/collette-backend/pkg/outbox"
	"github.com/angelmondragon/collette-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/collette-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	lifecycle := metrics.NewLifecycleMetrics(prometheus.DefaultRegisterer)
	registry, err := buildRegistry(cfg, logg, dbClient, redisClient, lifecycle)
	if err != nil {
		logg.Error(context.Background(), "failed to register jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, cfg.App.Env, cfg.Scheduler.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    lifecycle,
		Interval:   cfg.Scheduler.Interval,
		JobTimeout: cfg.Scheduler.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})

	if *once {
		failed, err := service.RunOnce(ctx)
		if err != nil || failed > 0 {
			logg.Error(logg.WithField(ctx, "failed_jobs", failed), "single cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, lifecycle *metrics.LifecycleMetrics) (*cron.Registry, error) {
	conn := dbClient.DB()
	notificationsRepo := notifications.NewRepository(conn)
	dispatcher, err := notifications.NewService(notificationsRepo)
	if err != nil {
		return nil, err
	}
	catalog, err := product.NewRegistry(product.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	outboxRepo := outbox.NewRepository(conn)

	policy, err := inventory.ParseLowStockPolicy(strings.ToLower(strings.TrimSpace(cfg.Inventory.LowStockPolicy)))
	if err != nil {
		return nil, err
	}
	var guard inventory.WindowGuard
	if policy == inventory.PolicyWindow {
		window, err := idempotency.NewWindow(redisClient, cfg.Inventory.LowStockWindow)
		if err != nil {
			return nil, err
		}
		guard = window
	}
	synchronizer, err := inventory.NewService(inventory.ServiceParams{
		Catalog:       catalog,
		Repo:          inventory.NewRepository(conn),
		Tx:            dbClient,
		Notifications: dispatcher,
		Outbox:        outbox.NewService(outboxRepo, logg),
		Guard:         guard,
		Policy:        policy,
		Threshold:     cfg.Inventory.LowStockThreshold,
		Metrics:       lifecycle,
		Logger:        logg,
	})
	if err != nil {
		return nil, err
	}

	syncJob, err := cron.NewInventorySyncJob(logg, synchronizer)
	if err != nil {
		return nil, err
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outboxRepo,
		DeadLetters: outbox.NewDLQRepository(conn),
		Retention:   cfg.Scheduler.OutboxRetention,
	})
	if err != nil {
		return nil, err
	}
	registry := cron.NewRegistry()
	for _, job := range []cron.Job{syncJob, retentionJob} {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
