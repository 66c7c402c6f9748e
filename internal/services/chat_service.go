// file: internal/services/chat_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hackspeech/internal/detection"
	"hackspeech/internal/events"
	"hackspeech/internal/models"
	"hackspeech/internal/repositories"

	"go.uber.org/zap"
)

const MiraSystemPrompt = "Tu es Mira, une assistante IA bienveillante et empathique intégrée à l'application 'Hack Speech'. Ton but est d'aider les utilisateurs à lutter contre les discours de haine, à reformuler des messages blessants de manière constructive, et à promouvoir la bienveillance en ligne. Réponds de manière concise, chaleureuse et utilise des emojis. Tu parles principalement en Français et parfois en Arabe (Darija) si l'utilisateur l'utilise."

const (
	msgMessageRequired = "Message requis"
	msgChatCleared     = "Historique du chat réinitialisé avec succès"

	replyGreeting = "Salam ! 👋 Je suis Mira en mode hors-ligne. Comment puis-je t'aider ?"
	replyHate     = "Les discours de haine font mal. Tu veux qu'on en parle ?"
	replyDefault  = "Je suis actuellement en mode limité, mais je suis là pour t'écouter ! 💜"

	chatHistoryDefaultLimit = 50
)

// chatService implements ChatService
type chatService struct {
	messages  repositories.ChatRepository
	generator detection.TextGenerator
	timeout   time.Duration
	events    events.EventBus
	logger    *zap.Logger
}

// NewChatService creates a new chat service. generator may be nil, in which
// case Mira answers with the offline replies.
func NewChatService(
	messages repositories.ChatRepository,
	generator detection.TextGenerator,
	timeout time.Duration,
	eventBus events.EventBus,
	logger *zap.Logger,
) ChatService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &chatService{
		messages:  messages,
		generator: generator,
		timeout:   timeout,
		events:    eventBus,
		logger:    logger,
	}
}

// SendMessage stores the user's message and Mira's reply.
func (s *chatService) SendMessage(ctx context.Context, userID int64, req *ChatMessageRequest) (*ChatExchange, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, NewValidationError(msgMessageRequired, nil)
	}

	userMsg := &models.ChatMessage{UserID: userID, Text: text, IsUser: true}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	reply := &models.ChatMessage{UserID: userID, Text: s.reply(ctx, text), IsUser: false}
	if err := s.messages.Create(ctx, reply); err != nil {
		return nil, fmt.Errorf("failed to save mira response: %w", err)
	}

	return &ChatExchange{UserMessage: userMsg, MiraResponse: reply}, nil
}

func (s *chatService) History(ctx context.Context, userID int64, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 {
		limit = chatHistoryDefaultLimit
	}

	messages, err := s.messages.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	if messages == nil {
		messages = []*models.ChatMessage{}
	}
	return messages, nil
}

func (s *chatService) Clear(ctx context.Context, userID int64) (*MessageResponse, error) {
	deleted, err := s.messages.DeleteByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear chat history: %w", err)
	}

	s.events.Publish(ctx, events.NewChatClearedEvent(userID, deleted))
	return &MessageResponse{Message: msgChatCleared}, nil
}

func (s *chatService) reply(ctx context.Context, text string) string {
	if s.generator == nil || !s.generator.Configured() {
		return OfflineReply(text)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.generator.Generate(callCtx, MiraSystemPrompt, text)
	out = strings.TrimSpace(out)
	if err != nil || out == "" {
		s.logger.Warn("Mira generation failed, using offline reply", zap.Error(err))
		return OfflineReply(text)
	}
	return out
}

// OfflineReply picks a canned answer from keywords in the message.
func OfflineReply(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "bonjour"), strings.Contains(lower, "salut"):
		return replyGreeting
	case strings.Contains(lower, "haine"):
		return replyHate
	default:
		return replyDefault
	}
}
