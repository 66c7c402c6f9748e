// ===============================
// FILE: internal/handlers/api/v1/realtime/realtime_controller.go
// ===============================

package realtime

import (
	"net/http"

	"hackspeech/internal/handlers/api/v1/httpio"
	"hackspeech/internal/response"

	"go.uber.org/zap"
)

// ConnectionServer upgrades an authenticated request to a websocket
type ConnectionServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID int64)
}

// RealtimeController exposes the websocket endpoint
type RealtimeController struct {
	hub             ConnectionServer
	responseBuilder *response.Builder
	logger          *zap.Logger
}

// NewRealtimeController creates a new realtime controller
func NewRealtimeController(hub ConnectionServer, responseBuilder *response.Builder, logger *zap.Logger) *RealtimeController {
	return &RealtimeController{
		hub:             hub,
		responseBuilder: responseBuilder,
		logger:          logger,
	}
}

// Connect - GET /api/v1/ws
func (c *RealtimeController) Connect(w http.ResponseWriter, r *http.Request) {
	userID, err := httpio.UserID(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.logger.Debug("Opening realtime connection", zap.Int64("user_id", userID))
	c.hub.ServeWS(w, r, userID)
}
