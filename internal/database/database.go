package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"hackspeech/internal/config"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// InitDB connects to postgres, applies migrations and waits until the schema is healthy.
// Connecting and migrating are retried with exponential backoff, since the database
// container usually starts alongside the API.
func InitDB(cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("🚀 Starting database initialization",
		zap.String("environment", cfg.Server.Environment))

	maxRetries := uint64(cfg.Database.MaxRetryAttempts)
	if maxRetries == 0 {
		maxRetries = 1
	}

	var manager *Manager
	connect := func() error {
		m, err := NewManager(&cfg.Database, logger)
		if err != nil {
			return err
		}
		manager = m
		return nil
	}

	if err := backoff.RetryNotify(connect, retryPolicy(maxRetries), retryNotifier(logger, "connect")); err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	migrationsPath := determineMigrationsPath(cfg.Database.MigrationsPath)
	logger.Info("Using migrations path", zap.String("path", migrationsPath))

	migrateOp := func() error { return manager.Migrate(migrationsPath) }
	if err := backoff.RetryNotify(migrateOp, retryPolicy(3), retryNotifier(logger, "migrate")); err != nil {
		manager.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), getHealthTimeoutForEnvironment(cfg.Server.Environment))
	defer cancel()

	if err := waitForHealthWithBackoff(ctx, manager, logger); err != nil {
		manager.Close()
		return nil, fmt.Errorf("database failed to become healthy: %w", err)
	}

	manager.StartMonitoring(cfg.Database.HealthCheckInterval)

	stats := manager.Stats()
	logger.Info("🎉 Database initialized successfully",
		zap.String("migrations_path", migrationsPath),
		zap.Int("max_open_connections", stats.MaxOpenConnections),
		zap.Int("open_connections", stats.OpenConnections),
	)

	return manager, nil
}

func retryPolicy(maxRetries uint64) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = time.Second
	eb.MaxInterval = 10 * time.Second
	return backoff.WithMaxRetries(eb, maxRetries)
}

func retryNotifier(logger *zap.Logger, step string) backoff.Notify {
	return func(err error, wait time.Duration) {
		logger.Warn("Database step failed, retrying",
			zap.String("step", step),
			zap.Error(err),
			zap.Duration("retry_in", wait),
		)
	}
}

// waitForHealthWithBackoff polls the health checker until it reports healthy or ctx expires.
func waitForHealthWithBackoff(ctx context.Context, manager *Manager, logger *zap.Logger) error {
	logger.Info("⏳ Waiting for database to become healthy...")

	eb := backoff.NewExponentialBackOff()
	eb.MaxInterval = 10 * time.Second
	eb.MaxElapsedTime = 0

	op := func() error {
		status := manager.Health(ctx)
		if status.Status == StatusHealthy || status.Status == StatusDegraded {
			logger.Info("✅ Database is healthy", zap.Duration("response_time", status.ResponseTime))
			return nil
		}
		return fmt.Errorf("database status %s: %v", status.Status, status.Errors)
	}

	if err := backoff.Retry(op, backoff.WithContext(eb, ctx)); err != nil {
		return fmt.Errorf("timeout waiting for database health: %w", err)
	}
	return nil
}

func determineMigrationsPath(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	paths := []string{
		"./migrations",
		"../migrations",
		"../../migrations",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "./migrations"
}

func getHealthTimeoutForEnvironment(environment string) time.Duration {
	switch environment {
	case "production":
		return 60 * time.Second
	case "staging":
		return 45 * time.Second
	default:
		return 30 * time.Second
	}
}
