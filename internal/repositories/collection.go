// file: internal/repositories/collection.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"hackspeech/internal/database"

	"go.uber.org/zap"
)

// Collection holds all repository instances for dependency injection
type Collection struct {
	User      UserRepository
	Detection DetectionRepository
	Progress  ProgressRepository
	Challenge ChallengeRepository
	Badge     BadgeRepository
	Guardian  GuardianRepository
	Chat      ChatRepository

	db     *database.Manager
	logger *zap.Logger
}

// NewCollection creates a new repository collection with all dependencies
func NewCollection(db *database.Manager, logger *zap.Logger) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("database manager is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	collection := &Collection{
		User:      NewUserRepository(db, logger),
		Detection: NewDetectionRepository(db, logger),
		Progress:  NewProgressRepository(db, logger),
		Challenge: NewChallengeRepository(db, logger),
		Badge:     NewBadgeRepository(db, logger),
		Guardian:  NewGuardianRepository(db, logger),
		Chat:      NewChatRepository(db, logger),
		db:        db,
		logger:    logger,
	}

	logger.Info("Repository collection initialized successfully")

	return collection, nil
}

// ===============================
// HEALTH AND MONITORING
// ===============================

// HealthCheck reports database status and query metrics
func (c *Collection) HealthCheck(ctx context.Context) map[string]interface{} {
	dbHealth := c.db.Health(ctx)
	metrics := c.db.Metrics()

	return map[string]interface{}{
		"database": map[string]interface{}{
			"status":        dbHealth.Status,
			"response_time": dbHealth.ResponseTime.String(),
			"errors":        dbHealth.Errors,
		},
		"performance": map[string]interface{}{
			"query_count":        metrics.QueryCount,
			"error_count":        metrics.ErrorCount,
			"slow_query_count":   metrics.SlowQueryCount,
			"avg_query_duration": metrics.AvgQueryDuration.String(),
		},
		"checked_at": time.Now().UTC(),
	}
}
