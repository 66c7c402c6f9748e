// file: internal/repositories/detection_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hackspeech/internal/database"
	"hackspeech/internal/models"

	"go.uber.org/zap"
)

const detectionColumns = `id, user_id, original_text, is_hate_speech, confidence,
	category, explanation, reformulated_text, created_at`

type detectionRepository struct {
	*BaseRepository
}

// NewDetectionRepository creates the detection ledger
func NewDetectionRepository(db *database.Manager, logger *zap.Logger) DetectionRepository {
	return &detectionRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func scanDetection(row scanner) (*models.Detection, error) {
	var (
		d            models.Detection
		category     sql.NullString
		reformulated sql.NullString
	)
	err := row.Scan(
		&d.ID, &d.UserID, &d.OriginalText, &d.IsHateSpeech, &d.Confidence,
		&category, &d.Explanation, &reformulated, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if category.Valid {
		c := models.Category(category.String)
		d.Category = &c
	}
	if reformulated.Valid {
		d.ReformulatedText = &reformulated.String
	}
	return &d, nil
}

func nullCategory(c *models.Category) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*c), Valid: true}
}

// Create appends a detection record and credits its progress delta in the
// same transaction, keyed by the new detection id. Either both land or neither.
func (r *detectionRepository) Create(ctx context.Context, d *models.Detection, delta models.ProgressDelta) (*models.ProgressResult, error) {
	result := &models.ProgressResult{}

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO detections (user_id, original_text, is_hate_speech, confidence, category, explanation)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`,
			d.UserID, d.OriginalText, d.IsHateSpeech, d.Confidence, nullCategory(d.Category), d.Explanation,
		).Scan(&d.ID, &d.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create detection: %w", err)
		}

		if _, err := recordEvent(ctx, tx, d.UserID, models.ProgressSourceDetection, d.ID); err != nil {
			return err
		}
		result.Applied = true
		return applyDelta(ctx, tx, d.UserID, delta, result)
	})
	if err != nil {
		d.ID = 0
		return nil, err
	}
	return result, nil
}

func (r *detectionRepository) GetByID(ctx context.Context, userID, id int64) (*models.Detection, error) {
	query := `SELECT ` + detectionColumns + ` FROM detections WHERE id = $1 AND user_id = $2`

	d, err := scanDetection(r.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}
	return d, nil
}

func (r *detectionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Detection, error) {
	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	detections := make([]*models.Detection, 0)
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, d)
	}
	return detections, rows.Err()
}

// ListByUser returns the newest detections first
func (r *detectionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Detection, error) {
	return r.list(ctx, `
		SELECT `+detectionColumns+`
		FROM detections
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, clampLimit(limit, 50, 50))
}

func (r *detectionRepository) RecentSince(ctx context.Context, userID int64, since time.Time, limit int) ([]*models.Detection, error) {
	return r.list(ctx, `
		SELECT `+detectionColumns+`
		FROM detections
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`, userID, since, clampLimit(limit, 10, 50))
}

// ===============================
// AGGREGATES
// ===============================

func (r *detectionRepository) CountSince(ctx context.Context, userID int64, since time.Time, filter models.DetectionFilter) (int, error) {
	query := `SELECT COUNT(*) FROM detections WHERE user_id = $1 AND created_at >= $2`
	if filter.HateOnly {
		query += ` AND is_hate_speech`
	}

	var count int
	if err := r.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count detections: %w", err)
	}
	return count, nil
}

// CategoryBreakdown counts flagged detections per category, largest first
func (r *detectionRepository) CategoryBreakdown(ctx context.Context, userID int64) ([]models.CategoryCount, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT category, COUNT(*) AS count
		FROM detections
		WHERE user_id = $1 AND is_hate_speech
		GROUP BY category
		ORDER BY count DESC, category ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category breakdown: %w", err)
	}
	defer rows.Close()

	stats := make([]models.CategoryCount, 0)
	for rows.Next() {
		var c models.CategoryCount
		var category string
		if err := rows.Scan(&category, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		c.Category = models.Category(category)
		stats = append(stats, c)
	}
	return stats, rows.Err()
}

func (r *detectionRepository) WeeklyCounts(ctx context.Context, userID int64, since time.Time) ([7]int, error) {
	var week [7]int

	rows, err := r.QueryContext(ctx, `
		SELECT EXTRACT(DOW FROM created_at AT TIME ZONE 'UTC')::int AS weekday, COUNT(*)
		FROM detections
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY weekday`, userID, since)
	if err != nil {
		return week, fmt.Errorf("failed to query weekly counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day, count int
		if err := rows.Scan(&day, &count); err != nil {
			return week, fmt.Errorf("failed to scan weekly count: %w", err)
		}
		if day >= 0 && day < len(week) {
			week[day] = count
		}
	}
	return week, rows.Err()
}

func (r *detectionRepository) ActiveDays(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT DISTINCT (created_at AT TIME ZONE 'UTC')::date AS day
		FROM detections
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY day DESC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query active days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan active day: %w", err)
		}
		days = append(days, day.UTC())
	}
	return days, rows.Err()
}

// ===============================
// REFORMULATION
// ===============================

func (r *detectionRepository) AttachReformulation(ctx context.Context, userID, id int64, text string) (bool, error) {
	result, err := r.ExecContext(ctx, `
		UPDATE detections SET reformulated_text = $3
		WHERE id = $1 AND user_id = $2 AND reformulated_text IS NULL`, id, userID, text)
	if err != nil {
		return false, fmt.Errorf("failed to attach reformulation: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}
