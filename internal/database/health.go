package database

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// HealthStatus represents the current health status of the database
type HealthStatus struct {
	Status          string                 `json:"status"`
	Timestamp       time.Time              `json:"timestamp"`
	ResponseTime    time.Duration          `json:"response_time"`
	ConnectionCount int                    `json:"connection_count"`
	Errors          []string               `json:"errors,omitempty"`
	Details         map[string]interface{} `json:"details"`
}

// Health check statuses
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusShutdown  = "shutdown"
)

// HealthChecker pings the pool and verifies the tables the API cannot run without.
type HealthChecker struct {
	manager *Manager
	logger  *zap.Logger

	mu         sync.RWMutex
	isShutdown int32
	last       *HealthStatus

	consecutiveFailures int32

	stopCh   chan struct{}
	stopOnce sync.Once
	started  int32

	timeout          time.Duration
	slowPingWarning  time.Duration
	criticalTables   []string
	failureThreshold int32
}

func NewHealthChecker(manager *Manager, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		manager:          manager,
		logger:           logger,
		stopCh:           make(chan struct{}),
		timeout:          5 * time.Second,
		slowPingWarning:  200 * time.Millisecond,
		criticalTables:   []string{"users", "detections", "challenges", "badges"},
		failureThreshold: 3,
	}
}

// Check runs a health probe and caches the result.
func (hc *HealthChecker) Check(ctx context.Context) *HealthStatus {
	if atomic.LoadInt32(&hc.isShutdown) == 1 {
		return &HealthStatus{
			Status:    StatusShutdown,
			Timestamp: time.Now(),
			Errors:    []string{"Health checker is shutdown"},
			Details:   make(map[string]interface{}),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	start := time.Now()
	status := &HealthStatus{
		Status:    StatusHealthy,
		Timestamp: start,
		Details:   make(map[string]interface{}),
	}

	db := hc.manager.DB()
	if err := db.PingContext(ctx); err != nil {
		status.Status = StatusUnhealthy
		status.Errors = append(status.Errors, fmt.Sprintf("ping failed: %v", err))
	} else {
		if ping := time.Since(start); ping > hc.slowPingWarning {
			status.Status = StatusDegraded
			status.Errors = append(status.Errors, fmt.Sprintf("slow ping: %s", ping))
		}

		for _, table := range hc.criticalTables {
			var exists bool
			err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&exists)
			if err != nil || !exists {
				status.Status = StatusUnhealthy
				status.Errors = append(status.Errors, fmt.Sprintf("table %s unavailable", table))
			}
		}
	}

	stats := db.Stats()
	status.ResponseTime = time.Since(start)
	status.ConnectionCount = stats.OpenConnections
	status.Details["in_use"] = stats.InUse
	status.Details["idle"] = stats.Idle
	status.Details["wait_count"] = stats.WaitCount

	hc.record(status)
	return status
}

func (hc *HealthChecker) record(status *HealthStatus) {
	hc.mu.Lock()
	hc.last = status
	hc.mu.Unlock()

	if status.Status == StatusUnhealthy {
		failures := atomic.AddInt32(&hc.consecutiveFailures, 1)
		if failures >= hc.failureThreshold {
			hc.logger.Error("Database unhealthy",
				zap.Int32("consecutive_failures", failures),
				zap.Strings("errors", status.Errors),
			)
		}
		return
	}
	atomic.StoreInt32(&hc.consecutiveFailures, 0)
}

// Last returns the most recent cached status, or nil before the first check.
func (hc *HealthChecker) Last() *HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.last
}

// Start runs Check every interval until Stop is called.
func (hc *HealthChecker) Start(interval time.Duration) {
	if interval <= 0 || !atomic.CompareAndSwapInt32(&hc.started, 0, 1) {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hc.Check(context.Background())
			case <-hc.stopCh:
				return
			}
		}
	}()
}

func (hc *HealthChecker) Stop() {
	hc.stopOnce.Do(func() {
		atomic.StoreInt32(&hc.isShutdown, 1)
		close(hc.stopCh)
	})
}
