// file: internal/repositories/chat_repository.go
package repositories

import (
	"context"
	"fmt"

	"hackspeech/internal/database"
	"hackspeech/internal/models"

	"go.uber.org/zap"
)

type chatRepository struct {
	*BaseRepository
}

func NewChatRepository(db *database.Manager, logger *zap.Logger) ChatRepository {
	return &chatRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func (r *chatRepository) Create(ctx context.Context, m *models.ChatMessage) error {
	err := r.QueryRowContext(ctx, `
		INSERT INTO chat_messages (user_id, text, is_user)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`, m.UserID, m.Text, m.IsUser,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

func (r *chatRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]*models.ChatMessage, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT id, user_id, text, is_user, created_at FROM (
			SELECT id, user_id, text, is_user, created_at
			FROM chat_messages
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC`, userID, clampLimit(limit, 50, 200))
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.ChatMessage, 0)
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Text, &m.IsUser, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (r *chatRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear chat history: %w", err)
	}
	return result.RowsAffected()
}
