package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"a11yhub/docs/swagger"
	"a11yhub/internal/api"
	"a11yhub/internal/config"
	"a11yhub/internal/db"
	"a11yhub/internal/events"
	"a11yhub/internal/handlers"
	"a11yhub/internal/metrics"
	"a11yhub/internal/models"
	"a11yhub/internal/services"
	"a11yhub/internal/tasks"
	"a11yhub/internal/tasks/rate"
	"a11yhub/internal/utils/logger"

	"github.com/joho/godotenv"
)

// @title a11yhub API
// @version 1.0
// @description Identity, role administration, integrations and widget delivery for a11yhub
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	appLog := logger.New("a11yhub")

	// check if .env file exists
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		appLog.Info("No .env file found, skipping environment variable loading")
	} else {
		appLog.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.File)

	metrics.Init()
	events.RegisterAuditLog()

	// Connect to database
	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLog.Warn("Failed to close database connection: %v", err)
		}
	}()

	dbInstance := db.GetDB()

	// Object storage is optional; without it uploads, script content and
	// the integrity sweep are unavailable.
	var objectReader tasks.ObjectReader
	if cfg.Storage.S3.BucketName != "" {
		s3Service, err := services.NewS3Service(context.Background(), services.S3Options{
			Provider:   cfg.Storage.Provider,
			BucketName: cfg.Storage.S3.BucketName,
			Endpoint:   cfg.Storage.S3.Endpoint,
			Region:     cfg.Storage.S3.Region,
			AccessKey:  cfg.Storage.S3.AccessKey,
			SecretKey:  cfg.Storage.S3.SecretKey,
		})
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		models.RegisterObjectURLGenerator(s3Service)
		handlers.RegisterScriptStore(s3Service)
		objectReader = s3Service
	} else {
		appLog.Warn("S3_BUCKET_NAME not set, running without object storage")
	}

	taskClient := tasks.NewTaskClient(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
	defer taskClient.Close()

	// Initialize task server
	taskServer := tasks.NewServer(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Worker.Concurrency,
		tasks.NewTaskHandler(dbInstance, objectReader),
		appLog,
	)

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	go func() {
		if err := taskServer.Start(serverCtx); err != nil {
			appLog.Error("Task server error", err)
		}
	}()

	// Initialize task scheduler
	taskScheduler := tasks.NewScheduler(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Worker.IntegritySchedule,
		appLog,
	)

	go func() {
		if err := taskScheduler.Start(); err != nil {
			appLog.Error("Task scheduler error", err)
		}
	}()

	limiter := rate.NewQueueRateLimiter(taskClient.RedisClient(), rate.QueueConfig{
		Name: "delivery",
		RateLimit: rate.RateLimit{
			Window:  cfg.Delivery.RateLimitWindow,
			MaxJobs: cfg.Delivery.RateLimitMax,
		},
	})

	// Initialize API server
	apiServer, err := api.NewServer(cfg, dbInstance, api.Options{
		Limiter: limiter,
		Usage:   taskClient,
	})
	if err != nil {
		log.Fatalf("Failed to initialize API server: %v", err)
	}

	// Swagger documentation
	swagger.SwaggerInfo.Title = "a11yhub API Documentation"
	swagger.SwaggerInfo.Description = "Identity, role administration, integrations and widget delivery"
	swagger.SwaggerInfo.Version = "1.0"
	swagger.SwaggerInfo.BasePath = "/api/v1"

	go func() {
		appLog.Success("API server starting on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := apiServer.Start(); err != nil {
			appLog.Error("API server stopped", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	taskScheduler.Stop()
	serverCancel()
	taskServer.Shutdown()

	if err := apiServer.Shutdown(ctx); err != nil {
		appLog.Error("Failed to shutdown API server", err)
	}

	appLog.Info("Servers shutdown gracefully")
}
