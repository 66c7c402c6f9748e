// file: internal/repositories/badge_repository.go
package repositories

import (
	"context"
	"fmt"

	"hackspeech/internal/database"
	"hackspeech/internal/models"

	"go.uber.org/zap"
)

type badgeRepository struct {
	*BaseRepository
}

func NewBadgeRepository(db *database.Manager, logger *zap.Logger) BadgeRepository {
	return &badgeRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func (r *badgeRepository) ListCatalog(ctx context.Context) ([]*models.Badge, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT id, name, emoji, description, requirement, required_value, category, created_at
		FROM badges
		ORDER BY category ASC, required_value ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	badges := make([]*models.Badge, 0)
	for rows.Next() {
		var b models.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Emoji, &b.Description, &b.Requirement,
			&b.RequiredValue, &b.Category, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, &b)
	}
	return badges, rows.Err()
}

func (r *badgeRepository) ListUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT user_id, badge_id, unlocked_at
		FROM user_badges
		WHERE user_id = $1
		ORDER BY unlocked_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	defer rows.Close()

	badges := make([]*models.UserBadge, 0)
	for rows.Next() {
		var ub models.UserBadge
		if err := rows.Scan(&ub.UserID, &ub.BadgeID, &ub.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user badge: %w", err)
		}
		badges = append(badges, &ub)
	}
	return badges, rows.Err()
}

// UnlockedNames returns the names of the user's badges in unlock order
func (r *badgeRepository) UnlockedNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT b.name
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY ub.unlocked_at ASC, b.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list badge names: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan badge name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *badgeRepository) Unlock(ctx context.Context, userID, badgeID int64) (bool, error) {
	result, err := r.ExecContext(ctx, `
		INSERT INTO user_badges (user_id, badge_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, badge_id) DO NOTHING`, userID, badgeID)
	if err != nil {
		return false, fmt.Errorf("failed to unlock badge: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}
