// ===============================
// FILE: internal/handlers/api/v1/chat/chat_controller.go
// ===============================

package chat

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

// ChatController handles conversations with Mira
type ChatController struct {
	chatService     services.ChatService
	responseBuilder *response.Builder
	logger          *zap.Logger
	timeout         time.Duration
}

// NewChatController creates a new chat controller
func NewChatController(chatService services.ChatService, responseBuilder *response.Builder, logger *zap.Logger, timeout time.Duration) *ChatController {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatController{
		chatService:     chatService,
		responseBuilder: responseBuilder,
		logger:          logger,
		timeout:         timeout,
	}
}

// SendMessage - POST /api/v1/chat/message
func (c *ChatController) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	userID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "send_message")
		return
	}

	var req services.ChatMessageRequest
	if err := httpio.DecodeJSON(w, r, &req); err != nil {
		c.handleServiceError(w, r, err, "send_message")
		return
	}

	exchange, err := c.chatService.SendMessage(ctx, userID, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "send_message")
		return
	}
	c.responseBuilder.WriteSuccess(w, r, exchange)
}

// History - GET /api/v1/chat/history?limit=
func (c *ChatController) History(w http.ResponseWriter, r *http.Request) {
	userID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "history")
		return
	}

	messages, err := c.chatService.History(r.Context(), userID, response.ParseLimit(r))
	if err != nil {
		c.handleServiceError(w, r, err, "history")
		return
	}
	c.responseBuilder.WriteSuccess(w, r, messages)
}

// Clear - DELETE /api/v1/chat/clear
func (c *ChatController) Clear(w http.ResponseWriter, r *http.Request) {
	userID, err := httpio.UserID(r)
	if err != nil {
		c.handleServiceError(w, r, err, "clear")
		return
	}

	result, err := c.chatService.Clear(r.Context(), userID)
	if err != nil {
		c.handleServiceError(w, r, err, "clear")
		return
	}
	c.responseBuilder.WriteSuccess(w, r, result)
}

func (c *ChatController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	serviceErr := services.GetServiceError(err)
	if serviceErr.GetStatusCode() >= http.StatusInternalServerError {
		c.logger.Error("Chat service error",
			zap.Error(err),
			zap.String("operation", operation),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	c.responseBuilder.WriteError(w, r, serviceErr)
}
