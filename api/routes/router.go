package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/collette-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/collette-backend/api/controllers/orders"
	"github.com/angelmondragon/collette-backend/api/middleware"
	"github.com/angelmondragon/collette-backend/internal/inventory"
	"github.com/angelmondragon/collette-backend/internal/notifications"
	"github.com/angelmondragon/collette-backend/internal/orders"
	"github.com/angelmondragon/collette-backend/pkg/config"
	"github.com/angelmondragon/collette-backend/pkg/db"
	"github.com/angelmondragon/collette-backend/pkg/logger"
	"github.com/angelmondragon/collette-backend/pkg/metrics"
	"github.com/angelmondragon/collette-backend/pkg/redis"
)

// RedisStore is the subset of the redis client the router needs: replay
// storage for idempotent routes plus a readiness ping.
type RedisStore interface {
	redis.KeyStore
	redis.Pinger
}

// Services groups the domain services exposed over HTTP.
type Services struct {
	Ledger        orders.Ledger
	Cancellations orders.Cancellations
	Fulfillment   orders.Fulfillment
	Inventory     inventory.Synchronizer
	Notifications notifications.Dispatcher
	// Metrics is optional; nil disables request metrics.
	Metrics       *metrics.LifecycleMetrics
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisStore RedisStore,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, svc.Metrics),
	)

	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	var idempotencyStore redis.KeyStore
	if redisStore != nil {
		readiness["redis"] = redisStore
		idempotencyStore = redisStore
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	replay := middleware.Idempotent(idempotencyStore, cfg.Eventing.HTTPIdempotencyTTL, logg)
	replayLong := middleware.Idempotent(idempotencyStore, middleware.LongReplayTTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(replayLong).Post("/", ordercontrollers.Create(svc.Ledger, logg))
			r.Get("/", ordercontrollers.List(svc.Ledger, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(svc.Ledger, logg))
				r.With(replay).Patch("/status", ordercontrollers.UpdateStatus(svc.Ledger, logg))
				r.With(replay).Post("/deliver", ordercontrollers.StaffDeliver(svc.Fulfillment, logg))
				r.With(replayLong).Post("/cancellation", ordercontrollers.RequestCancellation(svc.Cancellations, logg))
				r.With(replayLong).Post("/cancellation/decision", ordercontrollers.DecideCancellation(svc.Cancellations, logg))
			})
		})
		r.Get("/cancellations/pending", ordercontrollers.PendingCancellations(svc.Cancellations, logg))

		r.Route("/vendors/{vendorId}/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.VendorList(svc.Fulfillment, logg))
			r.Get("/{orderId}", ordercontrollers.VendorDetail(svc.Fulfillment, logg))
			r.With(replay).Post("/{orderId}/ready", ordercontrollers.VendorReady(svc.Fulfillment, logg))
			r.With(replay).Post("/{orderId}/deliver", ordercontrollers.VendorDeliver(svc.Fulfillment, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.ListInventory(svc.Inventory, logg))
			r.Post("/sync", controllers.SyncInventory(svc.Inventory, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
			r.With(replay).Post("/{notificationId}/resolve", controllers.ResolveNotification(svc.Notifications, logg))
		})
		r.Get("/customers/{customerId}/notifications", controllers.CustomerNotifications(svc.Notifications, logg))
	})

	return r
}
