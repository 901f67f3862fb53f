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

	"stylist-service/config"
	"stylist-service/internal/adapters"
	"stylist-service/internal/api"
	"stylist-service/internal/broker"
	"stylist-service/internal/embedding"
	"stylist-service/internal/ranking"
	"stylist-service/internal/service"
	"stylist-service/internal/store"
	"stylist-service/internal/util"
	"stylist-service/internal/worker"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting stylist service")

	tp, err := util.InitTracer("stylist-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	// Redis keeps embedding vectors across restarts; without it the
	// in-process cache still avoids repeated calls within one lifetime.
	var embeddingCache embedding.Cache
	redisCache, err := embedding.NewRedisCache(
		cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Embedding.CacheTTL)
	if err != nil {
		log.Printf("Redis unavailable, using in-memory embedding cache: %v", err)
		embeddingCache = embedding.NewMemoryCache(cfg.Embedding.CacheSize)
	} else {
		defer redisCache.Close()
		embeddingCache = redisCache
		log.Println("Redis connected")
	}

	embedClient := embedding.NewClient(
		cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model)
	cachingEmbedder := embedding.NewCachingClient(embedClient, embeddingCache)
	ranker := ranking.NewRanker(cachingEmbedder)

	searchLimiter := rate.NewLimiter(rate.Limit(float64(cfg.Search.RatePerMinute)/60.0), 5)
	sources := make([]adapters.Source, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		switch src.Kind {
		case "search":
			sources = append(sources, adapters.NewSerpAPIAdapter(
				cfg.Search.BaseURL, cfg.Search.APIKey, src.Domain, searchLimiter))
		case "storefront":
			sources = append(sources, adapters.NewStorefrontAdapter(
				"https://"+src.Domain, src.Domain))
		}
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicCatalog)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	ingestService := service.NewIngestService(sources, db, eventPublisher, cfg.Recommend.MaxPerSource)
	recommendService := service.NewRecommendService(db, ranker, ingestService, service.RecommendConfig{
		DefaultLimit:   cfg.Recommend.DefaultLimit,
		ShuffleResults: cfg.Recommend.ShuffleResults,
		RankTimeout:    cfg.Recommend.RankTimeout,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	refreshConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCatalog, cfg.Kafka.ConsumerGroup)
	refreshWorker := worker.NewRefreshWorker(refreshConsumer, ingestService)
	go func() {
		if err := refreshWorker.Start(workerCtx); err != nil {
			log.Printf("Refresh worker error: %v", err)
		}
	}()

	periodicRefresher := worker.NewPeriodicRefresher(ingestService, cfg.Recommend.RefreshInterval)
	go func() {
		if err := periodicRefresher.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Periodic refresher error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(recommendService, ingestService, db, cfg.Recommend.AdminKey)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	refreshWorker.Stop()

	log.Println("Server exited")
}
