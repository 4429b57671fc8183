package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"data-importer-backend/internal/common/config"
	"data-importer-backend/internal/common/logger"
	"data-importer-backend/internal/common/middleware"
	importhttp "data-importer-backend/internal/features/importer/delivery/http"
	importpg "data-importer-backend/internal/features/importer/repository/postgres"
	importredis "data-importer-backend/internal/features/importer/repository/redis"
	importservice "data-importer-backend/internal/features/importer/service"
	"data-importer-backend/internal/platform/db"
	"data-importer-backend/internal/platform/redis"
	"data-importer-backend/internal/platform/sheets"
)

func main() {
	cfg := config.Load()
	logger.Init("data-importer", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgresClient, err := db.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgresClient.Close()

	redisClient, err := redis.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	sheetsClient := sheets.NewClient(cfg.Sheets.APIKey, cfg.Sheets.Timeout)
	source := sheets.NewSource(sheetsClient, cfg)

	store := importpg.NewPostgresStore(postgresClient.GetDB())
	reports := importredis.NewReportRepository(redisClient.Client, cfg.Redis.ReportTTL)

	importSvc := importservice.NewImportService(source, store, reports, importservice.Options{
		MaxFetchRetries: cfg.Sheets.MaxRetries,
		EnableFinancial: cfg.Import.EnableFinancial,
	})

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		if err := postgresClient.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	group := router.Group("/api/v1")
	importhttp.NewImportHandler(importSvc).RegisterRoutes(group)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
}
