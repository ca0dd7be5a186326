package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/bxgy-bundles-backend/api/routes"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/catalog"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/classic"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/complement"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/tiered"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/volume"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/config"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/logger"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/metrics"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/migrate"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/redis"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/shopify"
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

	// Redis is optional; without it snapshot caching and the cache health
	// probe are skipped.
	var (
		redisClient  *redis.Client
		cachePinger  redis.Pinger
		catalogCache catalog.Cache
	)
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		cachePinger = redisClient
		catalogCache = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, snapshot cache disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	syncMetrics := metrics.NewSyncMetrics(registry)

	shopifyClient, err := shopify.NewClient(cfg.Shopify, logg, syncMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create shopify client", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(shopifyClient, catalogCache, cfg.Redis.SnapshotTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	classicService, err := classic.NewService(classic.NewRepository(dbClient.DB()), shopifyClient, catalogService, logg, syncMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create classic bundle service", err)
		os.Exit(1)
	}

	tieredService, err := tiered.NewService(tiered.NewRepository(dbClient.DB()), shopifyClient, logg, syncMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create tiered bundle service", err)
		os.Exit(1)
	}

	volumeService, err := volume.NewService(volume.NewRepository(dbClient.DB()), shopifyClient, logg, syncMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create volume bundle service", err)
		os.Exit(1)
	}

	complementService, err := complement.NewService(complement.NewRepository(dbClient.DB()), shopifyClient, catalogService, logg, syncMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create complement bundle service", err)
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
			cachePinger,
			registry,
			classicService,
			tieredService,
			volumeService,
			complementService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
