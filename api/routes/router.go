package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gearbookhq/gearbook-backend/api/controllers"
	"github.com/gearbookhq/gearbook-backend/api/middleware"
	"github.com/gearbookhq/gearbook-backend/api/responses"
	"github.com/gearbookhq/gearbook-backend/internal/approvals"
	"github.com/gearbookhq/gearbook-backend/internal/availability"
	basketsvc "github.com/gearbookhq/gearbook-backend/internal/basket"
	blackoutsvc "github.com/gearbookhq/gearbook-backend/internal/blackouts"
	historysvc "github.com/gearbookhq/gearbook-backend/internal/history"
	"github.com/gearbookhq/gearbook-backend/internal/inventory"
	"github.com/gearbookhq/gearbook-backend/internal/lifecycle"
	resvc "github.com/gearbookhq/gearbook-backend/internal/reservations"
	"github.com/gearbookhq/gearbook-backend/pkg/config"
	"github.com/gearbookhq/gearbook-backend/pkg/db"
	"github.com/gearbookhq/gearbook-backend/pkg/logger"
	"github.com/gearbookhq/gearbook-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	inventoryP inventory.Pinger,
	registry *prometheus.Registry,
	availabilityService availability.Service,
	basketService basketsvc.Service,
	reservationService resvc.Service,
	approvalService approvals.Service,
	lifecycleService lifecycle.Service,
	blackoutService blackoutsvc.Service,
	historyService historysvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, inventoryP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))

		r.Get("/availability", controllers.AvailabilityGet(availabilityService, logg))

		r.Route("/basket", func(r chi.Router) {
			r.Get("/", controllers.BasketGet(basketService, logg))
			r.Post("/", controllers.BasketAdd(basketService, logg))
			r.Delete("/", controllers.BasketClear(basketService, logg))
			r.Delete("/items/{modelId}", controllers.BasketRemoveItem(basketService, logg))
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", controllers.ReservationListMine(reservationService, logg))
			r.Get("/all", controllers.ReservationListAll(reservationService, logg))
			r.Post("/asset", controllers.ReservationSubmitAsset(reservationService, logg))
			r.Post("/basket", controllers.ReservationSubmitBasket(reservationService, basketService, logg))

			r.Route("/{reservationId}", func(r chi.Router) {
				r.Get("/", controllers.ReservationGet(reservationService, logg))
				r.Delete("/", controllers.ReservationDelete(reservationService, logg))
				r.Get("/history", controllers.HistoryList(historyService, logg))
				r.Post("/approve", controllers.ApprovalApprove(approvalService, logg))
				r.Post("/reject", controllers.ApprovalReject(approvalService, logg))
				r.Post("/checkout", controllers.LifecycleCheckout(lifecycleService, logg))
				r.Post("/checkin", controllers.LifecycleCheckin(lifecycleService, logg))
				r.Post("/cancel", controllers.LifecycleCancel(lifecycleService, logg))
			})
		})

		r.Route("/blackouts", func(r chi.Router) {
			r.Get("/", controllers.BlackoutList(blackoutService, logg))
			r.Post("/", controllers.BlackoutCreate(blackoutService, logg))
			r.Delete("/{blackoutId}", controllers.BlackoutDelete(blackoutService, logg))
		})
	})

	return r
}
