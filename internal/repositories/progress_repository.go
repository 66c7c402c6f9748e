// file: internal/repositories/progress_repository.go
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hackspeech/internal/database"
	"hackspeech/internal/models"

	"go.uber.org/zap"
)

type progressRepository struct {
	*BaseRepository
}

// NewProgressRepository creates the repository that owns every balance change
func NewProgressRepository(db *database.Manager, logger *zap.Logger) ProgressRepository {
	return &progressRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// ===============================
// TRANSACTION STEPS
// ===============================

// recordEvent inserts the idempotency key and reports whether it was new.
func recordEvent(ctx context.Context, tx *sql.Tx, userID int64, source string, sourceID int64) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO progress_events (user_id, source, source_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, userID, source, sourceID)
	if err != nil {
		return false, fmt.Errorf("failed to record progress event: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func applyDelta(ctx context.Context, tx *sql.Tx, userID int64, delta models.ProgressDelta, result *models.ProgressResult) error {
	err := tx.QueryRowContext(ctx, `
		UPDATE users SET
			points = points + $2,
			total_analyzed = total_analyzed + $3,
			total_transformed = total_transformed + $4,
			updated_at = NOW()
		WHERE id = $1
		RETURNING points, level`,
		userID, delta.Points, delta.Analyzed, delta.Transformed,
	).Scan(&result.Points, &result.Level)
	if err != nil {
		return fmt.Errorf("failed to apply progress delta: %w", err)
	}
	return nil
}

func currentBalance(ctx context.Context, tx *sql.Tx, userID int64, result *models.ProgressResult) error {
	err := tx.QueryRowContext(ctx, `SELECT points, level FROM users WHERE id = $1`, userID).
		Scan(&result.Points, &result.Level)
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}
	return nil
}

func (r *progressRepository) ApplyEvent(ctx context.Context, userID int64, source string, sourceID int64, delta models.ProgressDelta) (*models.ProgressResult, error) {
	result := &models.ProgressResult{}

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		fresh, err := recordEvent(ctx, tx, userID, source, sourceID)
		if err != nil {
			return err
		}
		if !fresh {
			return currentBalance(ctx, tx, userID, result)
		}

		result.Applied = true
		return applyDelta(ctx, tx, userID, delta, result)
	})
	if err != nil {
		return nil, err
	}

	if !result.Applied {
		r.GetLogger().Debug("Progress event already applied",
			zap.Int64("user_id", userID),
			zap.String("source", source),
			zap.Int64("source_id", sourceID),
		)
	}
	return result, nil
}

func (r *progressRepository) CompleteChallenge(ctx context.Context, userID int64, challenge *models.Challenge) (*models.ChallengeCompletion, error) {
	var completion *models.ChallengeCompletion

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		var completedAt time.Time
		err := tx.QueryRowContext(ctx, `
			UPDATE user_challenges SET completed = TRUE, completed_at = NOW()
			WHERE user_id = $1 AND challenge_id = $2 AND completed = FALSE AND progress >= $3
			RETURNING completed_at`, userID, challenge.ID, challenge.Target,
		).Scan(&completedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to complete challenge: %w", err)
		}

		completion = &models.ChallengeCompletion{Challenge: challenge}

		fresh, err := recordEvent(ctx, tx, userID, models.ProgressSourceChallenge, challenge.ID)
		if err != nil {
			return err
		}
		if !fresh {
			return currentBalance(ctx, tx, userID, &completion.Progress)
		}

		completion.Progress.Applied = true
		return applyDelta(ctx, tx, userID, models.ProgressDelta{Points: challenge.Reward}, &completion.Progress)
	})
	if err != nil {
		return nil, err
	}

	if completion != nil {
		r.GetLogger().Info("Challenge completed",
			zap.Int64("user_id", userID),
			zap.Int64("challenge_id", challenge.ID),
			zap.Int("reward", challenge.Reward),
		)
	}
	return completion, nil
}
