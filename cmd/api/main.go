// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/elegant-store/storefront/internal/config"
	"github.com/elegant-store/storefront/internal/domain/catalog"
	"github.com/elegant-store/storefront/internal/domain/conversion"
	"github.com/elegant-store/storefront/internal/infrastructure/database/postgres"
	"github.com/elegant-store/storefront/internal/infrastructure/database/redis"
	"github.com/elegant-store/storefront/internal/interfaces/http"
	"github.com/elegant-store/storefront/internal/interfaces/http/routes"
	"github.com/elegant-store/storefront/internal/pkg/auth"
	"github.com/elegant-store/storefront/internal/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)
	log.WithFields(logrus.Fields{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting relay API")

	if cfg.Tracking.PixelID == "" || cfg.Tracking.AccessToken == "" {
		log.Warn("FB_PIXEL_ID or FB_ACCESS_TOKEN is not set; the relay endpoint will answer 500")
	}

	cat, err := catalog.Load(cfg.Storefront.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	// Delivery log (optional)
	var (
		gormDB     *gorm.DB
		deliveries *conversion.Repository
		recorder   conversion.DeliveryRecorder
	)
	if cfg.Database.Enabled {
		db, err := postgres.NewConnection(cfg, log)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		migration := postgres.NewMigration(db.GetDB(), log)
		if err := migration.RunAutoMigrations(); err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
		if err := migration.CreateIndexes(); err != nil {
			log.WithError(err).Warn("Index creation failed")
		}

		gormDB = db.GetDB()
		deliveries = conversion.NewRepository(gormDB)
		recorder = deliveries
	}

	// Shared rate limit counters (optional)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewConnection(cfg, log)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	}

	deps := routes.Dependencies{
		Relay:   conversion.NewService(cfg.Tracking, recorder, log),
		Catalog: cat,
		JWT:     auth.NewJWTManager(cfg),
		Logger:  log,
	}
	if deliveries != nil {
		deps.Deliveries = deliveries
	}

	server := http.NewServer(cfg, deps, gormDB, redisClient.GetClient(), log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}
