// ===============================
// FILE: internal/handlers/api/v1/stats/stats_controller.go
// ===============================

package stats

import (
	"net/http"

	"hackspeech/internal/handlers/api/v1/httpio"
	"hackspeech/internal/middleware"
	"hackspeech/internal/response"
	"hackspeech/internal/services"

	"go.uber.org/zap"
)

// StatsController serves the dashboard
type StatsController struct {
	statsService    services.StatsService
	responseBuilder *response.Builder
	logger          *zap.Logger
}

// NewStatsController creates a new stats controller
func NewStatsController(statsService services.StatsService, responseBuilder *response.Builder, logger *zap.Logger) *StatsController {
	return &StatsController{
		statsService:    statsService,
		responseBuilder: responseBuilder,
		logger:          logger,
	}
}

// Dashboard - GET /api/v1/stats/dashboard
func (c *StatsController) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := httpio.UserID(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	dashboard, err := c.statsService.Dashboard(r.Context(), userID)
	if err != nil {
		if services.GetServiceError(err).GetStatusCode() >= http.StatusInternalServerError {
			c.logger.Error("Failed to build dashboard",
				zap.Error(err),
				zap.Int64("user_id", userID),
				zap.String("request_id", middleware.GetRequestID(r.Context())),
			)
		}
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, dashboard)
}
