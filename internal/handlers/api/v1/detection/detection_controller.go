// ===============================
// FILE: internal/handlers/api/v1/detection/detection_controller.go
// ===============================

package detection

import (
	"context"
	"net/http"
	"time"

	"hackspeech/internal/handlers/api/v1/httpio"
	"hackspeech/internal/middleware"
	"hackspeech/internal/response"
	"hackspeech/internal/services"

	"go.uber.org/zap"
)

// DetectionController exposes the analyze and reformulate pipeline
type DetectionController struct {
	detectionService services.DetectionService
	responseBuilder  *response.Builder
	logger           *zap.Logger
	timeout          time.Duration
}

// NewDetectionController creates a new detection controller. timeout bounds
// a whole request, including any text generation call.
func NewDetectionController(detectionService services.DetectionService, responseBuilder *response.Builder, logger *zap.Logger, timeout time.Duration) *DetectionController {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DetectionController{
		detectionService: detectionService,
		responseBuilder:  responseBuilder,
		logger:           logger,
		timeout:          timeout,
	}
}

// Analyze classifies a message - POST /api/v1/detection/analyze
func (c *DetectionController) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	userID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "analyze")
		return
	}

	var req services.AnalyzeRequest
	if err := httpio.DecodeJSON(w, r, &req); err != nil {
		c.handleServiceError(w, r, err, "analyze")
		return
	}

	result, err := c.detectionService.Analyze(ctx, userID, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "analyze")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, result)
}

// Reformulate proposes a non-violent rewrite - POST /api/v1/detection/reformulate
func (c *DetectionController) Reformulate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	userID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "reformulate")
		return
	}

	var req services.ReformulateRequest
	if err := httpio.DecodeJSON(w, r, &req); err != nil {
		c.handleServiceError(w, r, err, "reformulate")
		return
	}

	result, err := c.detectionService.Reformulate(ctx, userID, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "reformulate")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, result)
}

// History lists the caller's detections - GET /api/v1/detection/history
func (c *DetectionController) History(w http.ResponseWriter, r *http.Request) {
	userID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "history")
		return
	}

	detections, err := c.detectionService.History(r.Context(), userID, response.ParseLimit(r))
	if err != nil {
		c.handleServiceError(w, r, err, "history")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, detections)
}

func (c *DetectionController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	serviceErr := services.GetServiceError(err)
	if serviceErr.GetStatusCode() >= http.StatusInternalServerError {
		c.logger.Error("Detection service error",
			zap.Error(err),
			zap.String("operation", operation),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	c.responseBuilder.WriteError(w, r, serviceErr)
}
