package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"restaurant_pos/internal/config"
	"restaurant_pos/internal/database"
	"restaurant_pos/internal/handlers"
	"restaurant_pos/internal/logging"
	"restaurant_pos/internal/migrations"
	"restaurant_pos/internal/redis"
	"restaurant_pos/internal/repository"
	"restaurant_pos/internal/services"
	"restaurant_pos/pkg/whatsapp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := logging.Setup(cfg); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	err = migrations.RunMigrations(context.Background(), db, migrations.Options{
		AdminUsername:     cfg.AdminUsername,
		AdminPassword:     cfg.AdminPassword,
		LowStockThreshold: cfg.LowStockThreshold,
	})
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Sessions and events go through redis when configured
	sessions := services.NewMemorySessionStore()
	events := services.NewNoopEventPublisher()
	if cfg.RedisURL != "" {
		redisClient, err := redis.Initialize(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		sessions = services.NewRedisSessionStore(redisClient, time.Duration(cfg.SessionTTL)*time.Second)
		events = services.NewRedisEventPublisher(redisClient)
	} else {
		log.Warn("REDIS_URL not set, using in-memory sessions and no order events")
	}

	alerts := services.NewNoopStockAlerter()
	if cfg.AlertsEnabled() {
		whatsappClient := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppUsername, cfg.WhatsAppPassword, cfg.WhatsAppPath)
		alerts = services.NewWhatsAppStockAlerter(whatsappClient, cfg.StockAlertPhone)
	}

	// Initialize repositories and services
	repos := repository.New(db)
	userService := services.NewUserService(repos.Users)
	inventoryService := services.NewInventoryService(repos, cfg.LowStockThreshold)
	controller := services.NewOrderController(repos, sessions, userService, events, alerts, cfg.LowStockThreshold)

	rateLimit, err := handlers.RateLimit(cfg.RateLimit)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT %q: %v", cfg.RateLimit, err)
	}
	router := handlers.NewRouter(handlers.RouterDeps{
		Controller: controller,
		Inventory:  inventoryService,
		Users:      userService,
		RateLimit:  rateLimit,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.ServerPort).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
}
