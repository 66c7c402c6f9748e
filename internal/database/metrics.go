package database

import (
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hackspeech_db_query_duration_seconds",
			Help:    "Database query latency by operation type",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"type"},
	)

	queryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackspeech_db_query_errors_total",
			Help: "Database query failures by operation type",
		},
		[]string{"type"},
	)
)

// Metrics tracks query counters for the health endpoint and forwards
// observations to prometheus.
type Metrics struct {
	db *sql.DB

	queryCount     int64
	errorCount     int64
	slowQueryCount int64
	totalDuration  int64 // nanoseconds

	slowQueryThreshold time.Duration
}

// MetricsSnapshot provides a point-in-time view of metrics
type MetricsSnapshot struct {
	QueryCount       int64         `json:"query_count"`
	ErrorCount       int64         `json:"error_count"`
	SlowQueryCount   int64         `json:"slow_query_count"`
	AvgQueryDuration time.Duration `json:"avg_query_duration"`
	OpenConnections  int           `json:"open_connections"`
	InUse            int           `json:"in_use"`
	Idle             int           `json:"idle"`
	Timestamp        time.Time     `json:"timestamp"`
}

// NewMetrics creates a new metrics collector
func NewMetrics(db *sql.DB, slowQueryThreshold time.Duration) *Metrics {
	if slowQueryThreshold <= 0 {
		slowQueryThreshold = 100 * time.Millisecond
	}
	return &Metrics{db: db, slowQueryThreshold: slowQueryThreshold}
}

// RecordQuery records one query execution.
func (m *Metrics) RecordQuery(queryType string, duration time.Duration, err error) {
	atomic.AddInt64(&m.queryCount, 1)
	atomic.AddInt64(&m.totalDuration, int64(duration))
	queryDuration.WithLabelValues(queryType).Observe(duration.Seconds())

	if err != nil {
		atomic.AddInt64(&m.errorCount, 1)
		queryErrors.WithLabelValues(queryType).Inc()
	}

	if duration > m.slowQueryThreshold {
		atomic.AddInt64(&m.slowQueryCount, 1)
	}
}

// IsSlow reports whether duration crosses the slow query threshold.
func (m *Metrics) IsSlow(duration time.Duration) bool {
	return duration > m.slowQueryThreshold
}

// Snapshot returns current counters and pool statistics
func (m *Metrics) Snapshot() *MetricsSnapshot {
	count := atomic.LoadInt64(&m.queryCount)
	snap := &MetricsSnapshot{
		QueryCount:     count,
		ErrorCount:     atomic.LoadInt64(&m.errorCount),
		SlowQueryCount: atomic.LoadInt64(&m.slowQueryCount),
		Timestamp:      time.Now(),
	}

	if count > 0 {
		snap.AvgQueryDuration = time.Duration(atomic.LoadInt64(&m.totalDuration) / count)
	}

	if m.db != nil {
		stats := m.db.Stats()
		snap.OpenConnections = stats.OpenConnections
		snap.InUse = stats.InUse
		snap.Idle = stats.Idle
	}

	return snap
}
