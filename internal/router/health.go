// file: internal/router/health.go
package router

import (
	"context"
	"net/http"
	"time"

	"hackspeech/internal/monitoring"
	"hackspeech/internal/response"
	"hackspeech/internal/services"

	"go.uber.org/zap"
)

const healthTimeout = 5 * time.Second

// NewHealthDashboard builds the probes behind GET /health. The database is
// critical; the cache, the LLM and the event queue only degrade the service.
func NewHealthDashboard(sc *services.ServiceCollection, version, environment string, logger *zap.Logger) *monitoring.Dashboard {
	probes := []monitoring.Probe{
		monitoring.ProbeFunc{
			ComponentName: "database",
			IsCritical:    true,
			Fn: func(ctx context.Context) monitoring.ComponentHealth {
				status := sc.DBManager.Health(ctx)
				health := monitoring.ComponentHealth{
					Status:       status.Status,
					ResponseTime: status.ResponseTime,
					Details:      map[string]interface{}{"connections": status.ConnectionCount},
				}
				if len(status.Errors) > 0 {
					health.Error = status.Errors[0]
				}
				return health
			},
		},
		monitoring.ProbeFunc{
			ComponentName: "cache",
			Fn: func(ctx context.Context) monitoring.ComponentHealth {
				if err := sc.Cache.Health(ctx); err != nil {
					return monitoring.ComponentHealth{Status: monitoring.StatusUnhealthy, Error: err.Error()}
				}
				return monitoring.ComponentHealth{
					Status:  monitoring.StatusHealthy,
					Details: map[string]interface{}{"provider": sc.Config.Cache.Provider},
				}
			},
		},
		monitoring.ProbeFunc{
			ComponentName: "llm",
			Fn: func(ctx context.Context) monitoring.ComponentHealth {
				state := sc.LLM.State()
				status := monitoring.StatusHealthy
				if state == "open" {
					status = monitoring.StatusDegraded
				}
				return monitoring.ComponentHealth{
					Status: status,
					Details: map[string]interface{}{
						"configured": sc.LLM.Configured(),
						"circuit":    state,
					},
				}
			},
		},
		monitoring.ProbeFunc{
			ComponentName: "events",
			Fn: func(ctx context.Context) monitoring.ComponentHealth {
				stats := sc.EventBus.Stats()
				health := monitoring.ComponentHealth{
					Status: monitoring.StatusHealthy,
					Details: map[string]interface{}{
						"queueDepth": stats.QueueDepth,
						"failed":     stats.EventsFailed,
					},
				}
				if err := sc.EventBus.Health(); err != nil {
					health.Status = monitoring.StatusDegraded
					health.Error = err.Error()
				}
				return health
			},
		},
	}
	return monitoring.NewDashboard(logger.Named("health"), version, environment, probes...)
}

func healthHandler(dashboard *monitoring.Dashboard, rb *response.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		report := dashboard.GetSystemHealth(ctx)
		rb.WriteHealthCheck(w, r, report.Status != monitoring.StatusUnhealthy, report)
	}
}
