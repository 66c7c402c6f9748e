// ===============================
// FILE: internal/handlers/api/v1/gamification/gamification_controller.go
// ===============================

package gamification

import (
	"net/http"

	"hackspeech/internal/handlers/api/v1/httpio"
	"hackspeech/internal/middleware"
	"hackspeech/internal/response"
	"hackspeech/internal/services"

	"go.uber.org/zap"
)

// GamificationController exposes leaderboard, badges and the current challenge
type GamificationController struct {
	gamificationService services.GamificationService
	responseBuilder     *response.Builder
	logger              *zap.Logger
}

// NewGamificationController creates a new gamification controller
func NewGamificationController(gamificationService services.GamificationService, responseBuilder *response.Builder, logger *zap.Logger) *GamificationController {
	return &GamificationController{
		gamificationService: gamificationService,
		responseBuilder:     responseBuilder,
		logger:              logger,
	}
}

// Leaderboard - GET /api/v1/gamification/leaderboard?limit=
func (c *GamificationController) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := c.gamificationService.Leaderboard(r.Context(), response.ParseLimit(r))
	if err != nil {
		c.handleServiceError(w, r, err, "leaderboard")
		return
	}
	c.responseBuilder.WriteSuccess(w, r, entries)
}

// Badges - GET /api/v1/gamification/badges
func (c *GamificationController) Badges(w http.ResponseWriter, r *http.Request) {
	userID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "badges")
		return
	}

	badges, err := c.gamificationService.Badges(r.Context(), userID)
	if err != nil {
		c.handleServiceError(w, r, err, "badges")
		return
	}
	c.responseBuilder.WriteSuccess(w, r, badges)
}

// CurrentChallenge - GET /api/v1/gamification/challenge/current
func (c *GamificationController) CurrentChallenge(w http.ResponseWriter, r *http.Request) {
	userID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "current_challenge")
		return
	}

	current, err := c.gamificationService.CurrentChallenge(r.Context(), userID)
	if err != nil {
		c.handleServiceError(w, r, err, "current_challenge")
		return
	}
	c.responseBuilder.WriteSuccess(w, r, current)
}

func (c *GamificationController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	serviceErr := services.GetServiceError(err)
	if serviceErr.GetStatusCode() >= http.StatusInternalServerError {
		c.logger.Error("Gamification service error",
			zap.Error(err),
			zap.String("operation", operation),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	c.responseBuilder.WriteError(w, r, serviceErr)
}
