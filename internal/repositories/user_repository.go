// file: internal/repositories/user_repository.go
package repositories

import (
	"context"
	"fmt"
	"strings"

	"hackspeech/internal/database"
	"hackspeech/internal/models"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const (
	userColumns = `id, public_id, link_code, email, name, password_hash, avatar,
		google_id, auth_provider, points, level, total_analyzed, total_transformed,
		settings, created_at, updated_at`

	// maxLinkCodeAttempts bounds retries when a fresh link code collides.
	maxLinkCodeAttempts = 5
)

// userRepository implements UserRepository
type userRepository struct {
	*BaseRepository
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Manager, logger *zap.Logger) UserRepository {
	return &userRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func scanUser(row scanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.PublicID, &user.LinkCode, &user.Email, &user.Name,
		&user.PasswordHash, &user.Avatar, &user.GoogleID, &user.AuthProvider,
		&user.Points, &user.Level, &user.TotalAnalyzed, &user.TotalTransformed,
		&user.Settings, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ===============================
// BASIC CRUD OPERATIONS
// ===============================

// Create inserts the user. A link code collision is retried with a new public id.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			public_id, link_code, email, name, password_hash, avatar,
			google_id, auth_provider, settings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, points, level, total_analyzed, total_transformed, created_at, updated_at`

	if user.Name == "" {
		user.Name = models.DefaultUserName
	}
	if user.AuthProvider == "" {
		user.AuthProvider = models.AuthProviderEmail
	}

	for attempt := 1; attempt <= maxLinkCodeAttempts; attempt++ {
		publicID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("failed to generate public id: %w", err)
		}
		linkCode := models.LinkCodeFromPublicID(publicID.String())

		err = r.QueryRowContext(ctx, query,
			publicID.String(), linkCode, user.Email, user.Name, user.PasswordHash,
			user.Avatar, user.GoogleID, user.AuthProvider, user.Settings,
		).Scan(
			&user.ID, &user.Points, &user.Level, &user.TotalAnalyzed,
			&user.TotalTransformed, &user.CreatedAt, &user.UpdatedAt,
		)
		if err == nil {
			user.PublicID = publicID.String()
			user.LinkCode = linkCode

			r.GetLogger().Info("User created successfully",
				zap.Int64("user_id", user.ID),
				zap.String("auth_provider", user.AuthProvider),
			)
			return nil
		}

		switch database.ViolatedConstraint(err) {
		case "users_email_key":
			return ErrDuplicateEmail
		case "users_link_code_key":
			r.GetLogger().Warn("Link code collision, retrying",
				zap.String("link_code", linkCode),
				zap.Int("attempt", attempt),
			)
			continue
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return fmt.Errorf("failed to create user: no unique link code after %d attempts", maxLinkCodeAttempts)
}

func (r *userRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.QueryRowContext(ctx, query, arg))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves a user by normalized email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = $1", models.NormalizeEmail(email))
}

func (r *userRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.getOne(ctx, "google_id = $1", googleID)
}

// GetByLinkCode matches the guardian link code case-insensitively
func (r *userRepository) GetByLinkCode(ctx context.Context, code string) (*models.User, error) {
	return r.getOne(ctx, "link_code = $1", strings.ToUpper(strings.TrimSpace(code)))
}

// ===============================
// PROFILE UPDATES
// ===============================

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*models.User, error) {
	var sets []string
	args := []interface{}{id}

	if update.Name != nil {
		args = append(args, *update.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if update.Avatar != nil {
		args = append(args, *update.Avatar)
		sets = append(sets, fmt.Sprintf("avatar = $%d", len(args)))
	}
	if update.Settings != nil {
		args = append(args, *update.Settings)
		sets = append(sets, fmt.Sprintf("settings = $%d", len(args)))
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + `, updated_at = NOW()
		WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.QueryRowContext(ctx, query, args...))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return user, nil
}

func (r *userRepository) MergeGoogleProfile(ctx context.Context, id int64, googleID, name string, avatar *string) (*models.User, error) {
	query := `
		UPDATE users SET
			google_id = COALESCE(google_id, NULLIF($2, '')),
			auth_provider = CASE WHEN google_id IS NULL AND $2 <> '' THEN 'google' ELSE auth_provider END,
			name = CASE WHEN name = $5 AND $3 <> '' THEN $3 ELSE name END,
			avatar = COALESCE($4, avatar),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.QueryRowContext(ctx, query, id, googleID, name, avatar, models.DefaultUserName))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to merge google profile: %w", err)
	}
	return user, nil
}

// ===============================
// RANKING
// ===============================

// Leaderboard ranks users by points, ties broken by account age
func (r *userRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	limit = clampLimit(limit, 10, 100)

	rows, err := r.QueryContext(ctx, `
		SELECT id, name, avatar, points, level
		FROM users
		ORDER BY points DESC, id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Avatar, &e.Points, &e.Level); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
