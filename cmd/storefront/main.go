package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/cart"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/cartsync"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/checkout"
	h "github.com/yoogoworkspace/boot-snap-shopper/internal/http"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/notify"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/pricing"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/publisher"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/repository"
)

type Config struct {
	HTTPPort        string
	AppOrigin       string
	RedisAddr       string
	KafkaBrokers    string
	ChannelSelector string
	RequestTimeout  time.Duration
	SubmitTimeout   time.Duration
	ShutdownTimeout time.Duration
	DB              repository.Credentials
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		AppOrigin:       getEnv("APP_ORIGIN", "http://localhost:8080"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", "localhost:9092"),
		ChannelSelector: getEnv("CHANNEL_SELECTOR", "random"),
		RequestTimeout:  30 * time.Second,
		SubmitTimeout:   30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DB: repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "storefront"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func channelSelector(name string) notify.Selector {
	switch name {
	case "round_robin":
		return notify.NewRoundRobinSelector()
	case "least_recently_used":
		return notify.NewLeastRecentlyUsedSelector()
	default:
		return notify.NewRandomSelector()
	}
}

func main() {
	log.Println("storefront starting...")

	if err := godotenv.Load(); err != nil {
		log.Printf(".env file not found, using system environment variables")
	}

	cfg := loadConfig()
	var wg sync.WaitGroup

	// Database
	repo, err := repository.NewRepository(&cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(&cfg.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Redis-backed carts
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	storage := cart.NewRedisStorage(redisClient)
	manager := cart.NewManager(storage)
	hub := cartsync.NewHub(redisClient, storage)
	defer hub.Close()

	// Pricing, handoff routing and checkout
	pricer := pricing.NewEngine(pricing.DefaultConfig(), pricing.DefaultTable())
	router := notify.NewRouter(cfg.AppOrigin, channelSelector(cfg.ChannelSelector))
	checkoutService := checkout.NewService(repo, repo, router, cfg.SubmitTimeout)

	// Outbox poller moves recorded handoffs onto the broker
	poller := publisher.NewOutboxPoller(repo, cfg.KafkaBrokers)
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(pollerCtx)
	}()

	// HTTP surface
	cartHandler := h.NewCartHandler(manager, hub, pricer, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(manager, pricer, checkoutService, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(repo, cfg.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.SessionMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Get("/count", cartHandler.GetCount)
			r.Get("/pricing", cartHandler.GetPricing)
			r.Post("/items", cartHandler.AddItem)
			r.Patch("/items", cartHandler.UpdateQuantity)
			r.Delete("/items/{model_id}", cartHandler.RemoveItem)
		})
		r.Post("/checkout", checkoutHandler.SubmitOrder)
		r.Get("/orders/{order_id}", ordersHandler.GetOrder)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down storefront...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	pollerCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Println("Outbox poller stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout reached, exiting")
	}

	log.Println("storefront exited")
}
