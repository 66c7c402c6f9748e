// @title           Hack Speech API
// @version         1.0.0
// @description     Hate speech detection, reformulation and gamified progression for young users.

// @contact.name   Hack Speech API Support

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hackspeech/internal/cache"
	"hackspeech/internal/config"
	"hackspeech/internal/database"
	"hackspeech/internal/events"
	"hackspeech/internal/realtime"
	"hackspeech/internal/response"
	"hackspeech/internal/router"
	"hackspeech/internal/services"
	"hackspeech/internal/utils/appinfo"

	"go.uber.org/zap"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	version := appinfo.GetVersion()
	logger.Info("Starting Hack Speech API", zap.String("version", version))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	// Database (connect, migrate, wait for health)
	dbManager, err := database.InitDB(cfg, logger.Named("database"))
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Cache
	cacheBackend, err := cache.NewCache(cache.FromAppConfig(cfg.Cache), logger.Named("cache"))
	if err != nil {
		logger.Fatal("Failed to create cache", zap.Error(err))
	}

	// Event bus and realtime hub
	eventBus := events.NewEventBus(events.DefaultEventBusConfig(), logger.Named("events"))
	if err := eventBus.Start(context.Background()); err != nil {
		logger.Fatal("Failed to start event bus", zap.Error(err))
	}

	hub := realtime.NewHub(cfg.Server.AllowedOrigins, logger.Named("realtime"))
	if err := hub.Subscribe(eventBus); err != nil {
		logger.Fatal("Failed to subscribe realtime hub", zap.Error(err))
	}

	// Services
	serviceCollection, err := services.NewServiceCollection(dbManager, cacheBackend, eventBus, hub, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	challenge, err := serviceCollection.GamificationService.EnsureWeeklyChallenge(seedCtx, time.Now())
	seedCancel()
	if err != nil {
		logger.Error("Failed to ensure weekly challenge", zap.Error(err))
	} else if challenge != nil {
		logger.Info("Weekly challenge ready",
			zap.Int64("challenge_id", challenge.ID),
			zap.Time("end_date", challenge.EndDate),
		)
	}

	// Response builder
	responseConfig := response.DefaultConfig()
	if !cfg.IsProduction() {
		responseConfig = response.DevelopmentConfig()
	}
	responseBuilder := response.NewBuilder(responseConfig, logger.Named("response"))
	logger.Info("Response builder initialized",
		zap.String("api_version", responseConfig.APIVersion),
		zap.Bool("mask_internal_errors", responseConfig.MaskInternalErrors),
	)

	dashboard := router.NewHealthDashboard(serviceCollection, version, cfg.Server.Environment, logger)

	handler := router.SetupRouter(&router.Dependencies{
		Services:  serviceCollection,
		Hub:       hub,
		Dashboard: dashboard,
		Builder:   responseBuilder,
		Config:    cfg,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("address", server.Addr),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Application started",
		zap.String("url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port)),
		zap.String("health_check", "/health"),
		zap.String("metrics", "/metrics"),
		zap.String("swagger", "/swagger/index.html"),
	)

	<-quit
	logger.Info("Shutting down application...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()

	// websocket connections are hijacked and not tracked by Shutdown
	hub.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	} else {
		logger.Info("Server shutdown completed")
	}

	if err := eventBus.Stop(shutdownCtx); err != nil {
		logger.Warn("Event bus did not stop cleanly", zap.Error(err))
	}

	finalMetrics := dbManager.Metrics()
	logger.Info("Final database metrics",
		zap.Int64("total_queries", finalMetrics.QueryCount),
		zap.Int64("total_errors", finalMetrics.ErrorCount),
		zap.Int64("slow_queries", finalMetrics.SlowQueryCount),
		zap.Duration("avg_query_duration", finalMetrics.AvgQueryDuration),
	)

	if err := cacheBackend.Close(); err != nil {
		logger.Warn("Failed to close cache", zap.Error(err))
	}
	if err := dbManager.Close(); err != nil {
		logger.Error("Failed to close database connections", zap.Error(err))
	} else {
		logger.Info("Database connections closed successfully")
	}

	logger.Info("Application shutdown completed")
}

// initLogger initializes the structured logger based on environment
func initLogger() (*zap.Logger, error) {
	env := os.Getenv("GO_ENV")
	var config zap.Config

	switch env {
	case "production":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "staging":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	default:
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
