// ===============================
// FILE: internal/handlers/api/v1/auth/auth_controller.go
// ===============================

package auth

import (
	"context"
	"net/http"
	"time"

	"hackspeech/internal/handlers/api/v1/httpio"
	"hackspeech/internal/middleware"
	"hackspeech/internal/response"
	"hackspeech/internal/services"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// requests that may reach Google get a longer budget than local ones
const (
	localTimeout  = 10 * time.Second
	googleTimeout = 20 * time.Second
)

// AuthController handles authentication API endpoints
type AuthController struct {
	authService     services.AuthService
	responseBuilder *response.Builder
	logger          *zap.Logger
}

// NewAuthController creates a new authentication controller
func NewAuthController(authService services.AuthService, responseBuilder *response.Builder, logger *zap.Logger) *AuthController {
	return &AuthController{
		authService:     authService,
		responseBuilder: responseBuilder,
		logger:          logger,
	}
}

// ===============================
// AUTHENTICATION ENDPOINTS
// ===============================

// Register handles user registration - POST /api/v1/auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), localTimeout)
	defer cancel()

	var req services.RegisterRequest
	if err := httpio.DecodeJSON(w, r, &req); err != nil {
		c.handleServiceError(w, r, err, "register")
		return
	}

	authResp, err := c.authService.Register(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "register")
		return
	}

	middleware.GetRequestLogger(r.Context()).Info("User registered",
		zap.Int64("user_id", authResp.User.ID),
	)
	c.responseBuilder.WriteCreated(w, r, authResp)
}

// Login handles user authentication - POST /api/v1/auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), localTimeout)
	defer cancel()

	var req services.LoginRequest
	if err := httpio.DecodeJSON(w, r, &req); err != nil {
		c.handleServiceError(w, r, err, "login")
		return
	}

	authResp, err := c.authService.Login(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "login")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, authResp)
}

// GoogleLogin signs in with Google - POST /api/v1/auth/google
func (c *AuthController) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), googleTimeout)
	defer cancel()

	var req services.GoogleLoginRequest
	if err := httpio.DecodeJSON(w, r, &req); err != nil {
		c.handleServiceError(w, r, err, "google_login")
		return
	}

	authResp, err := c.authService.GoogleLogin(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "google_login")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, authResp)
}

// GoogleAuthURL returns the consent screen URL for the code flow - GET /api/v1/auth/google/url
func (c *AuthController) GoogleAuthURL(w http.ResponseWriter, r *http.Request) {
	state, err := uuid.NewV4()
	if err != nil {
		c.handleServiceError(w, r, err, "google_url")
		return
	}

	url, err := c.authService.GoogleAuthURL(state.String())
	if err != nil {
		c.handleServiceError(w, r, err, "google_url")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, map[string]string{
		"url":   url,
		"state": state.String(),
	})
}

// ===============================
// ERROR HANDLING
// ===============================

func (c *AuthController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	serviceErr := services.GetServiceError(err)
	if serviceErr.GetStatusCode() >= http.StatusInternalServerError {
		c.logger.Error("Auth service error",
			zap.Error(err),
			zap.String("operation", operation),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	c.responseBuilder.WriteError(w, r, serviceErr)
}
