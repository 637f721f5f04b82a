package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/collette-backend/api/routes"
	"github.com/angelmondragon/collette-backend/internal/customers"
	"github.com/angelmondragon/collette-backend/internal/inventory"
	"github.com/angelmondragon/collette-backend/internal/notifications"
	"github.com/angelmondragon/collette-backend/internal/orders"
	product "github.com/angelmondragon/collette-backend/internal/products"
	"github.com/angelmondragon/collette-backend/pkg/config"
	"github.com/angelmondragon/collette-backend/pkg/db"
	"github.com/angelmondragon/collette-backend/pkg/logger"
	"github.com/angelmondragon/collette-backend/pkg/metrics"
	"github.com/angelmondragon/collette-backend/pkg/migrate"
	"github.com/angelmondragon/collette-backend/pkg/outbox"
	"github.com/angelmondragon/collette-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/collette-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	lifecycle := metrics.NewLifecycleMetrics(registry)

	services, err := buildServices(cfg, logg, dbClient, redisClient, lifecycle)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", routes.NewRouter(cfg, logg, dbClient, redisClient, services))

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, lifecycle *metrics.LifecycleMetrics) (routes.Services, error) {
	conn := dbClient.DB()

	dispatcher, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	catalog, err := product.NewRegistry(product.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	directory, err := customers.NewDirectory(customers.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	inventoryRepo := inventory.NewRepository(conn)
	policy, err := inventory.ParseLowStockPolicy(strings.ToLower(strings.TrimSpace(cfg.Inventory.LowStockPolicy)))
	if err != nil {
		return routes.Services{}, err
	}
	var guard inventory.WindowGuard
	if policy == inventory.PolicyWindow {
		window, err := idempotency.NewWindow(redisClient, cfg.Inventory.LowStockWindow)
		if err != nil {
			return routes.Services{}, err
		}
		guard = window
	}
	synchronizer, err := inventory.NewService(inventory.ServiceParams{
		Catalog:       catalog,
		Repo:          inventoryRepo,
		Tx:            dbClient,
		Notifications: dispatcher,
		Outbox:        outboxSvc,
		Guard:         guard,
		Policy:        policy,
		Threshold:     cfg.Inventory.LowStockThreshold,
		Metrics:       lifecycle,
		Logger:        logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	deps := orders.Deps{
		Repo:          orders.NewRepository(conn),
		Tx:            dbClient,
		Outbox:        outboxSvc,
		Notifications: dispatcher,
		Products:      catalog,
		Customers:     directory,
		Inventory:     inventory.NewAdjuster(inventoryRepo),
		Codes: orders.CodeParams{
			Prefix:      cfg.Orders.CodePrefix,
			Digits:      cfg.Orders.CodeDigits,
			MaxAttempts: cfg.Orders.MaxCodeAttempts,
		},
		CreateRetries: cfg.Orders.CreateRetries,
		Metrics:       lifecycle,
		Logger:        logg,
	}
	ledger, err := orders.NewLedger(deps)
	if err != nil {
		return routes.Services{}, err
	}
	cancellations, err := orders.NewCancellations(deps)
	if err != nil {
		return routes.Services{}, err
	}
	fulfillment, err := orders.NewFulfillment(deps)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Ledger:        ledger,
		Cancellations: cancellations,
		Fulfillment:   fulfillment,
		Inventory:     synchronizer,
		Notifications: dispatcher,
		Metrics:       lifecycle,
	}, nil
}
