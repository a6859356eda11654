package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/helixmedical/devicecost-backend/api/routes"
	"github.com/helixmedical/devicecost-backend/internal/items"
	"github.com/helixmedical/devicecost-backend/internal/pricesheets"
	"github.com/helixmedical/devicecost-backend/internal/rebates"
	"github.com/helixmedical/devicecost-backend/internal/tracker"
	"github.com/helixmedical/devicecost-backend/pkg/config"
	"github.com/helixmedical/devicecost-backend/pkg/db"
	"github.com/helixmedical/devicecost-backend/pkg/logger"
	"github.com/helixmedical/devicecost-backend/pkg/metrics"
	"github.com/helixmedical/devicecost-backend/pkg/migrate"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pricingMetrics := metrics.NewPricingMetrics(registry)

	priceSheetRepo := pricesheets.NewRepository(dbClient.DB())
	itemRepo := items.NewRepository(dbClient.DB())
	rebateRepo := rebates.NewRepository(dbClient.DB())

	aggregates, err := tracker.NewUpdater(tracker.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create aggregate updater", err)
		os.Exit(1)
	}

	priceSheetService, err := pricesheets.NewService(priceSheetRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create price sheet service", err)
		os.Exit(1)
	}

	itemService, err := items.NewService(itemRepo, priceSheetRepo, aggregates, dbClient, logg, pricingMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create item service", err)
		os.Exit(1)
	}

	rebateService, err := rebates.NewService(rebateRepo, itemRepo, priceSheetRepo, itemService, dbClient, logg, pricingMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create rebate service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, registry, priceSheetService, itemService, rebateService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
