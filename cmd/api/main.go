package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gearbookhq/gearbook-backend/api/routes"
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
	"github.com/gearbookhq/gearbook-backend/pkg/metrics"
	"github.com/gearbookhq/gearbook-backend/pkg/migrate"
	"github.com/gearbookhq/gearbook-backend/pkg/outbox"
	"github.com/gearbookhq/gearbook-backend/pkg/redis"
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

	inventoryClient, err := inventory.NewClient(cfg.Inventory)
	if err != nil {
		logg.Error(context.Background(), "failed to build inventory client", err)
		os.Exit(1)
	}
	provider := inventory.NewCachedProvider(inventoryClient, redisClient, cfg.Inventory.SnapshotTTL, logg)

	registry := prometheus.NewRegistry()
	reservationMetrics := metrics.NewReservationMetrics(registry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	blackoutService, err := blackoutsvc.NewService(blackoutsvc.NewRepository(dbClient.DB()), dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create blackout service", err)
		os.Exit(1)
	}

	availabilityService, err := availability.NewService(
		availability.NewRepository(dbClient.DB()),
		provider,
		blackoutService,
		logg,
		reservationMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(context.Background(), "failed to unwrap sql handle", err)
		os.Exit(1)
	}
	locker, err := resvc.NewAdvisoryLocker(sqlDB)
	if err != nil {
		logg.Error(context.Background(), "failed to create advisory locker", err)
		os.Exit(1)
	}

	reservationRepo := resvc.NewRepository(dbClient.DB())
	historyRepo := historysvc.NewRepository(dbClient.DB())

	reservationService, err := resvc.NewService(
		reservationRepo,
		dbClient,
		availabilityService,
		approvals.NewPolicy(cfg.Approval),
		historyRepo,
		outboxService,
		locker,
		logg,
		reservationMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation service", err)
		os.Exit(1)
	}

	approvalService, err := approvals.NewService(reservationRepo, dbClient, historyRepo, outboxService, inventoryClient, logg, reservationMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create approval service", err)
		os.Exit(1)
	}

	lifecycleService, err := lifecycle.NewService(reservationRepo, dbClient, historyRepo, outboxService, inventoryClient, logg, reservationMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create lifecycle service", err)
		os.Exit(1)
	}

	basketService, err := basketsvc.NewService(redisClient, cfg.Basket.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create basket service", err)
		os.Exit(1)
	}

	historyService, err := historysvc.NewService(historyRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create history service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			inventoryClient,
			registry,
			availabilityService,
			basketService,
			reservationService,
			approvalService,
			lifecycleService,
			blackoutService,
			historyService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
