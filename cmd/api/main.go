package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cinecatalog-api/internal/cache"
	"cinecatalog-api/internal/config"
	"cinecatalog-api/internal/fetch"
	"cinecatalog-api/internal/handler"
	"cinecatalog-api/internal/ingest"
	"cinecatalog-api/internal/repository"
	"cinecatalog-api/internal/router"
	"cinecatalog-api/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting CineCatalog API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize catalog store
	catalogStore, err := repository.NewMongoCatalogStore(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("Failed to initialize MongoDB catalog store: %v", err)
	}
	defer catalogStore.Close()
	log.Println("MongoDB catalog store initialized")

	// Initialize usage repository based on config
	var usageRepo repository.UsageEventRepository
	switch cfg.UsageDB.Type {
	case "sqlite":
		sqliteRepo, err := repository.NewSQLiteUsageRepository(cfg.UsageDB.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite usage store: %v", err)
		}
		defer sqliteRepo.Close()
		usageRepo = sqliteRepo
		log.Println("SQLite usage repository initialized")
	default: // mongodb
		mongoRepo, err := repository.NewMongoUsageRepository(cfg.Mongo.URI, cfg.Mongo.Database, cfg.UsageDB.Collection)
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB usage store: %v", err)
		}
		defer mongoRepo.Close()
		usageRepo = mongoRepo
		log.Println("MongoDB usage repository initialized")
	}

	// Initialize analytics cache
	var analyticsCache cache.Cache
	if cfg.Cache.Type == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed, falling back to in-memory cache: %v", err)
		} else {
			analyticsCache = cache.NewRedisCache(redisClient, cfg.App.Name)
			log.Println("Redis cache initialized")
		}
		cancel()
	}
	if analyticsCache == nil {
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		analyticsCache = memCache
		log.Println("In-memory cache initialized")
	}

	// Initialize ingestion pipeline
	fetcher := fetch.NewClient()
	enricher := ingest.NewMetadataEnricher(fetcher, catalogStore, cfg.Provider.MetadataBaseURL, cfg.Provider.MetadataAPIKey)
	pipeline := ingest.NewPipeline(ingest.Config{
		BaseURL:       cfg.Provider.BaseURL,
		APIKey:        cfg.Provider.APIKey,
		MaxDays:       cfg.Ingest.MaxDays,
		StepDelay:     cfg.Ingest.StepDelay,
		UpcomingCount: cfg.Ingest.UpcomingCount,
		SnapshotDir:   cfg.Provider.SnapshotDir,
	}, fetcher, catalogStore, enricher)

	scheduler := service.NewIngestScheduler(pipeline, service.SchedulerConfig{
		Interval:   cfg.Ingest.Interval,
		RunOnStart: cfg.Ingest.RunOnStart,
	})
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize services
	usageService := service.NewUsageService(usageRepo)
	analyticsService := service.NewAnalyticsService(usageService)

	// Initialize handlers
	healthHandler := handler.New()
	catalogHandler := handler.NewCatalogHandler(catalogStore, cfg.Ingest.MaxDays)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, analyticsCache, cfg.Cache.TTL)

	// Create router
	r := router.New(router.Config{
		Handler:          healthHandler,
		CatalogHandler:   catalogHandler,
		AnalyticsHandler: analyticsHandler,
		UsageService:     usageService,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop scheduling new ingestion runs; an in-flight run finishes on its own
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
