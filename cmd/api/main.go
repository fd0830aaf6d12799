package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/legacy-capsule/capsule-backend/api/routes"
	"github.com/legacy-capsule/capsule-backend/internal/catalog"
	checkoutsvc "github.com/legacy-capsule/capsule-backend/internal/checkout"
	"github.com/legacy-capsule/capsule-backend/internal/docgen"
	fulfillmentsvc "github.com/legacy-capsule/capsule-backend/internal/fulfillment"
	"github.com/legacy-capsule/capsule-backend/internal/payments"
	quotesvc "github.com/legacy-capsule/capsule-backend/internal/quotes"
	templatesvc "github.com/legacy-capsule/capsule-backend/internal/templates"
	uploadsvc "github.com/legacy-capsule/capsule-backend/internal/uploads"
	"github.com/legacy-capsule/capsule-backend/pkg/config"
	"github.com/legacy-capsule/capsule-backend/pkg/db"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
	"github.com/legacy-capsule/capsule-backend/pkg/metrics"
	"github.com/legacy-capsule/capsule-backend/pkg/migrate"
	"github.com/legacy-capsule/capsule-backend/pkg/redis"
	"github.com/legacy-capsule/capsule-backend/pkg/storage/gcs"
	"github.com/legacy-capsule/capsule-backend/pkg/stripe"
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

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing object storage", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	snap, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logg.Error(context.Background(), "failed to load catalog", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	fulfillmentMetrics := metrics.NewFulfillmentMetrics(registry)

	checkoutService, err := checkoutsvc.NewService(
		checkoutsvc.NewStripeClient(stripeClient),
		snap,
		stripeClient,
		cfg.Checkout,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	verifier, err := payments.NewVerifier(payments.NewStripeClient(stripeClient), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment verifier", err)
		os.Exit(1)
	}

	fulfillmentService, err := fulfillmentsvc.NewService(
		fulfillmentsvc.NewRepository(dbClient.DB()),
		verifier,
		docgen.NewGenerator(),
		gcsClient,
		snap,
		fulfillmentMetrics,
		cfg.GCS.DownloadURLExpiry,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	uploadService, err := uploadsvc.NewService(gcsClient, cfg.Uploads, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create upload service", err)
		os.Exit(1)
	}

	quoteService, err := quotesvc.NewService(quotesvc.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create quotes service", err)
		os.Exit(1)
	}

	templateService, err := templatesvc.NewService(templatesvc.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create template service", err)
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
			gcsClient,
			snap,
			checkoutService,
			fulfillmentService,
			uploadService,
			quoteService,
			templateService,
			registry,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
