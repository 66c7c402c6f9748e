// File: internal/monitoring/dashboard.go
package monitoring

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// ===============================
// DASHBOARD CORE
// ===============================

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Probe checks one component. Critical probes turn the overall status unhealthy.
type Probe interface {
	Name() string
	Critical() bool
	Check(ctx context.Context) ComponentHealth
}

// ProbeFunc adapts a function to Probe
type ProbeFunc struct {
	ComponentName string
	IsCritical    bool
	Fn            func(ctx context.Context) ComponentHealth
}

func (p ProbeFunc) Name() string                              { return p.ComponentName }
func (p ProbeFunc) Critical() bool                            { return p.IsCritical }
func (p ProbeFunc) Check(ctx context.Context) ComponentHealth { return p.Fn(ctx) }

// Dashboard aggregates component probes into a system health report
type Dashboard struct {
	probes      []Probe
	logger      *zap.Logger
	startTime   time.Time
	version     string
	environment string
}

// NewDashboard creates a new monitoring dashboard
func NewDashboard(logger *zap.Logger, version, environment string, probes ...Probe) *Dashboard {
	return &Dashboard{
		probes:      probes,
		logger:      logger,
		startTime:   time.Now(),
		version:     version,
		environment: environment,
	}
}

// ===============================
// DATA STRUCTURES
// ===============================

// SystemHealthResponse represents system health
type SystemHealthResponse struct {
	Status      string                     `json:"status"`
	Timestamp   time.Time                  `json:"timestamp"`
	Uptime      string                     `json:"uptime"`
	Version     string                     `json:"version"`
	Environment string                     `json:"environment"`
	Components  map[string]ComponentHealth `json:"components"`
	Resources   ResourceHealth             `json:"resources"`
	Summary     HealthSummary              `json:"summary"`
}

// ComponentHealth represents health of a system component
type ComponentHealth struct {
	Status       string                 `json:"status"`
	LastCheck    time.Time              `json:"last_check"`
	Details      map[string]interface{} `json:"details,omitempty"`
	Error        string                 `json:"error,omitempty"`
	ResponseTime time.Duration          `json:"response_time,omitempty"`
}

// ResourceHealth represents process resource usage
type ResourceHealth struct {
	Goroutines  int    `json:"goroutines"`
	HeapAllocMB uint64 `json:"heap_alloc_mb"`
	NumGC       uint32 `json:"num_gc"`
	GoVersion   string `json:"go_version"`
}

// HealthSummary provides a high-level summary
type HealthSummary struct {
	HealthyComponents int `json:"healthy_components"`
	TotalComponents   int `json:"total_components"`
}

// ===============================
// CORE LOGIC
// ===============================

// GetSystemHealth runs every probe and derives the overall status
func (d *Dashboard) GetSystemHealth(ctx context.Context) *SystemHealthResponse {
	start := time.Now()

	response := &SystemHealthResponse{
		Status:      StatusHealthy,
		Timestamp:   start,
		Uptime:      time.Since(d.startTime).Round(time.Second).String(),
		Version:     d.version,
		Environment: d.environment,
		Components:  make(map[string]ComponentHealth, len(d.probes)),
		Resources:   resourceHealth(),
	}

	for _, probe := range d.probes {
		probeStart := time.Now()
		component := probe.Check(ctx)
		component.LastCheck = probeStart
		if component.ResponseTime == 0 {
			component.ResponseTime = time.Since(probeStart)
		}
		response.Components[probe.Name()] = component

		response.Summary.TotalComponents++
		switch component.Status {
		case StatusHealthy:
			response.Summary.HealthyComponents++
		case StatusUnhealthy:
			if probe.Critical() {
				response.Status = StatusUnhealthy
			} else if response.Status == StatusHealthy {
				response.Status = StatusDegraded
			}
		default:
			if response.Status == StatusHealthy {
				response.Status = StatusDegraded
			}
		}
	}

	d.logger.Debug("System health check completed",
		zap.String("status", response.Status),
		zap.Duration("check_duration", time.Since(start)),
		zap.Int("components", len(response.Components)),
	)

	return response
}

func resourceHealth() ResourceHealth {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return ResourceHealth{
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: mem.HeapAlloc / 1024 / 1024,
		NumGC:       mem.NumGC,
		GoVersion:   runtime.Version(),
	}
}
