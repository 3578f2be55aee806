package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/material-approval/internal/api"
	"alcyxob/material-approval/internal/config"
	"alcyxob/material-approval/internal/kv"
	"alcyxob/material-approval/internal/logging"
	"alcyxob/material-approval/internal/metrics"
	"alcyxob/material-approval/internal/repository"
	"alcyxob/material-approval/internal/repository/mongo"
	"alcyxob/material-approval/internal/service"
	"alcyxob/material-approval/internal/session"
	"alcyxob/material-approval/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// @title Material Approval API
// @version 1.0
// @description Upload image materials, review them and publish approved ones.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("could not load config: %v", err)
	}
	log := logging.New(cfg.Log)
	log.Info("Configuration loaded.")

	// --- Slot Store ---
	var slots kv.Store
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("Using in-memory storage; data is lost on restart.")
		slots = kv.NewMemoryStore()
	case "mongo":
		connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
		dbClient, err := mongo.ConnectDB(connectCtx, cfg.Database.URI)
		cancelConnect()
		if err != nil {
			log.Fatalf("could not connect to MongoDB: %v", err)
		}
		defer func() {
			log.Info("Disconnecting MongoDB...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := mongo.DisconnectDB(ctx, dbClient); err != nil {
				log.WithError(err).Error("failed to disconnect MongoDB")
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)
		log.WithField("database", cfg.Database.Name).Info("Database connection established.")

		slots = mongo.NewMongoKVStore(appDB)
	default:
		log.Fatalf("unknown storage driver %q", cfg.Storage.Driver)
	}

	// --- Repository ---
	repoOpts := []repository.Option{repository.WithLogger(log)}
	if cfg.Workflow.StrictTransitions {
		log.Info("Strict status transitions enabled.")
		repoOpts = append(repoOpts, repository.WithTransitionGuard())
	}
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	materialRepo, err := repository.NewMaterialRepository(loadCtx, slots, repoOpts...)
	cancelLoad()
	if err != nil {
		log.Fatalf("could not load materials: %v", err)
	}

	// --- File Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3, log)
		if err != nil {
			log.Fatalf("failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Info("No S3 bucket configured; uploads are stored inline as data URLs.")
		fileStorage = storage.NewDataURLStorage()
	}

	// --- Services ---
	appMetrics := metrics.New()
	appMetrics.SetPending(materialRepo.PendingCount())

	sessions := session.NewStore(slots, log)
	authService, err := service.NewAuthService(sessions, cfg.JWT.Secret, cfg.JWT.Expiration)
	if err != nil {
		log.Fatalf("could not initialize auth service: %v", err)
	}
	statsLocation, err := time.LoadLocation(cfg.Stats.Timezone)
	if err != nil {
		log.Fatalf("invalid stats.timezone %q: %v", cfg.Stats.Timezone, err)
	}
	materialService := service.NewMaterialService(materialRepo, fileStorage, service.MaterialServiceConfig{
		MaxUploadBytes: cfg.Upload.MaxSizeBytes,
		UploadDelay:    cfg.Upload.SimulatedDelay,
		StatsLocation:  statsLocation,
	}, appMetrics, log)

	// --- Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	router.MaxMultipartMemory = cfg.Upload.MaxSizeBytes + 1<<20

	api.SetupRoutes(router, api.RouterDeps{
		AuthService:     authService,
		MaterialService: materialService,
		Metrics:         appMetrics,
		MaxUploadBytes:  cfg.Upload.MaxSizeBytes,
		Log:             log,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("address", cfg.Server.Address).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("Server exiting.")
}

// requestLogger replaces gin's default logger with structured access logs.
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}).Info("request")
	}
}
