// file: internal/repositories/challenge_repository.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"hackspeech/internal/database"
	"hackspeech/internal/models"

	"go.uber.org/zap"
)

const (
	challengeColumns     = `id, title, description, emoji, type, target, reward, start_date, end_date, is_active, created_at`
	userChallengeColumns = `id, user_id, challenge_id, progress, completed, completed_at, created_at`
)

type challengeRepository struct {
	*BaseRepository
}

func NewChallengeRepository(db *database.Manager, logger *zap.Logger) ChallengeRepository {
	return &challengeRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func scanChallenge(row scanner) (*models.Challenge, error) {
	var c models.Challenge
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Emoji, &c.Type, &c.Target,
		&c.Reward, &c.StartDate, &c.EndDate, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanUserChallenge(row scanner) (*models.UserChallenge, error) {
	var uc models.UserChallenge
	err := row.Scan(&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.Progress, &uc.Completed, &uc.CompletedAt, &uc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &uc, nil
}

// GetActive returns the most recently started active challenge covering at
func (r *challengeRepository) GetActive(ctx context.Context, at time.Time) (*models.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE is_active AND start_date <= $1 AND end_date >= $1
		ORDER BY start_date DESC, id DESC
		LIMIT 1`

	c, err := scanChallenge(r.QueryRowContext(ctx, query, at))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active challenge: %w", err)
	}
	return c, nil
}

func (r *challengeRepository) Create(ctx context.Context, c *models.Challenge) error {
	query := `
		INSERT INTO challenges (title, description, emoji, type, target, reward, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.QueryRowContext(ctx, query,
		c.Title, c.Description, c.Emoji, c.Type, c.Target, c.Reward, c.StartDate, c.EndDate, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	r.GetLogger().Info("Challenge created",
		zap.Int64("challenge_id", c.ID),
		zap.String("title", c.Title),
		zap.Time("start_date", c.StartDate),
		zap.Time("end_date", c.EndDate),
	)
	return nil
}

func (r *challengeRepository) GetUserChallenge(ctx context.Context, userID, challengeID int64) (*models.UserChallenge, error) {
	query := `SELECT ` + userChallengeColumns + ` FROM user_challenges WHERE user_id = $1 AND challenge_id = $2`

	uc, err := scanUserChallenge(r.QueryRowContext(ctx, query, userID, challengeID))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user challenge: %w", err)
	}
	return uc, nil
}

func (r *challengeRepository) UpsertProgress(ctx context.Context, userID, challengeID int64, progress int) (*models.UserChallenge, error) {
	query := `
		INSERT INTO user_challenges (user_id, challenge_id, progress)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, challenge_id)
		DO UPDATE SET progress = GREATEST(user_challenges.progress, EXCLUDED.progress)
		RETURNING ` + userChallengeColumns

	uc, err := scanUserChallenge(r.QueryRowContext(ctx, query, userID, challengeID, progress))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert challenge progress: %w", err)
	}
	return uc, nil
}
