// ===============================
// FILE: internal/handlers/api/v1/users/users_controller.go
// ===============================

package users

import (
	"context"
	"errors"
	"net/http"
	"time"

	"hackspeech/internal/handlers/api/v1/httpio"
	"hackspeech/internal/middleware"
	"hackspeech/internal/response"
	"hackspeech/internal/services"

	"go.uber.org/zap"
)

const avatarField = "avatar"

// UserController handles the caller's profile endpoints
type UserController struct {
	userService     services.UserService
	responseBuilder *response.Builder
	logger          *zap.Logger
	maxUploadSize   int64
}

// NewUserController creates a new user API controller. maxUploadSize bounds
// the whole multipart body of an avatar upload.
func NewUserController(userService services.UserService, responseBuilder *response.Builder, logger *zap.Logger, maxUploadSize int64) *UserController {
	return &UserController{
		userService:     userService,
		responseBuilder: responseBuilder,
		logger:          logger,
		maxUploadSize:   maxUploadSize,
	}
}

// GetMe returns the caller's profile - GET /api/v1/users/me
func (c *UserController) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "get_me")
		return
	}

	profile, err := c.userService.GetProfile(r.Context(), userID)
	if err != nil {
		c.handleServiceError(w, r, err, "get_me")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, profile)
}

// UpdateMe applies a partial profile update - PUT /api/v1/users/me
func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "update_me")
		return
	}

	var req services.UpdateProfileRequest
	if err := httpio.DecodeJSON(w, r, &req); err != nil {
		c.handleServiceError(w, r, err, "update_me")
		return
	}

	profile, err := c.userService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "update_me")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, profile)
}

// UploadAvatar stores a new avatar image - POST /api/v1/users/me/avatar
func (c *UserController) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	userID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "upload_avatar")
		return
	}

	// one extra megabyte leaves room for the multipart envelope
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadSize+1<<20)
	file, header, err := r.FormFile(avatarField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.handleServiceError(w, r, services.NewValidationError("Fichier trop volumineux", err), "upload_avatar")
			return
		}
		c.handleServiceError(w, r, services.NewValidationError("Fichier avatar requis", err), "upload_avatar")
		return
	}
	defer file.Close()

	profile, err := c.userService.UploadAvatar(ctx, userID, header.Filename, file)
	if err != nil {
		c.handleServiceError(w, r, err, "upload_avatar")
		return
	}

	middleware.GetRequestLogger(r.Context()).Info("Avatar updated", zap.Int64("user_id", userID))
	c.responseBuilder.WriteSuccess(w, r, profile)
}

func (c *UserController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	serviceErr := services.GetServiceError(err)
	if serviceErr.GetStatusCode() >= http.StatusInternalServerError {
		c.logger.Error("User service error",
			zap.Error(err),
			zap.String("operation", operation),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	c.responseBuilder.WriteError(w, r, serviceErr)
}
