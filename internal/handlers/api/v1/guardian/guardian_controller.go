// ===============================
// FILE: internal/handlers/api/v1/guardian/guardian_controller.go
// ===============================

package guardian

import (
	"net/http"

	"hackspeech/internal/handlers/api/v1/httpio"
	"hackspeech/internal/middleware"
	"hackspeech/internal/response"
	"hackspeech/internal/services"

	"go.uber.org/zap"
)

const childIDParam = "childID"

// GuardianController lets a parent follow linked child accounts
type GuardianController struct {
	guardianService services.GuardianService
	responseBuilder *response.Builder
	logger          *zap.Logger
}

// NewGuardianController creates a new guardian controller
func NewGuardianController(guardianService services.GuardianService, responseBuilder *response.Builder, logger *zap.Logger) *GuardianController {
	return &GuardianController{
		guardianService: guardianService,
		responseBuilder: responseBuilder,
		logger:          logger,
	}
}

// Children - GET /api/v1/guardian/children
func (c *GuardianController) Children(w http.ResponseWriter, r *http.Request) {
	guardianID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "children")
		return
	}

	children, err := c.guardianService.Children(r.Context(), guardianID)
	if err != nil {
		c.handleServiceError(w, r, err, "children")
		return
	}
	c.responseBuilder.WriteSuccess(w, r, children)
}

// Link attaches a child by its code - POST /api/v1/guardian/link
func (c *GuardianController) Link(w http.ResponseWriter, r *http.Request) {
	guardianID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "link")
		return
	}

	var req services.LinkChildRequest
	if err := httpio.DecodeJSON(w, r, &req); err != nil {
		c.handleServiceError(w, r, err, "link")
		return
	}

	linked, err := c.guardianService.Link(r.Context(), guardianID, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "link")
		return
	}

	middleware.GetRequestLogger(r.Context()).Info("Child linked",
		zap.Int64("guardian_id", guardianID),
		zap.Int64("child_id", linked.Child.ID),
	)
	c.responseBuilder.WriteSuccess(w, r, linked)
}

// ChildStats - GET /api/v1/guardian/child/{childID}/stats
func (c *GuardianController) ChildStats(w http.ResponseWriter, r *http.Request) {
	guardianID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "child_stats")
		return
	}

	childID, err := httpio.PathID(r, childIDParam, "Enfant non trouvé")
	if err != nil {
		c.handleServiceError(w, r, err, "child_stats")
		return
	}

	stats, err := c.guardianService.ChildStats(r.Context(), guardianID, childID)
	if err != nil {
		c.handleServiceError(w, r, err, "child_stats")
		return
	}
	c.responseBuilder.WriteSuccess(w, r, stats)
}

// MyCode returns the caller's own link code - GET /api/v1/guardian/me/code
func (c *GuardianController) MyCode(w http.ResponseWriter, r *http.Request) {
	userID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "link_code")
		return
	}

	code, err := c.guardianService.LinkCode(r.Context(), userID)
	if err != nil {
		c.handleServiceError(w, r, err, "link_code")
		return
	}
	c.responseBuilder.WriteSuccess(w, r, code)
}

func (c *GuardianController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	serviceErr := services.GetServiceError(err)
	if serviceErr.GetStatusCode() >= http.StatusInternalServerError {
		c.logger.Error("Guardian service error",
			zap.Error(err),
			zap.String("operation", operation),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	c.responseBuilder.WriteError(w, r, serviceErr)
}
