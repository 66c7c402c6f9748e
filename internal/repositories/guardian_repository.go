// file: internal/repositories/guardian_repository.go
package repositories

import (
	"context"
	"fmt"

	"hackspeech/internal/database"
	"hackspeech/internal/models"

	"go.uber.org/zap"
)

type guardianRepository struct {
	*BaseRepository
}

func NewGuardianRepository(db *database.Manager, logger *zap.Logger) GuardianRepository {
	return &guardianRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func (r *guardianRepository) Link(ctx context.Context, guardianID, childID int64) error {
	_, err := r.ExecContext(ctx, `
		INSERT INTO guardian_links (guardian_id, child_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, guardianID, childID)
	if err != nil {
		return fmt.Errorf("failed to link child: %w", err)
	}
	return nil
}

func (r *guardianRepository) IsLinked(ctx context.Context, guardianID, childID int64) (bool, error) {
	var linked bool
	err := r.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM guardian_links WHERE guardian_id = $1 AND child_id = $2)`,
		guardianID, childID).Scan(&linked)
	if err != nil {
		return false, fmt.Errorf("failed to check guardian link: %w", err)
	}
	return linked, nil
}

// ListChildren returns the linked accounts in link order
func (r *guardianRepository) ListChildren(ctx context.Context, guardianID int64) ([]*models.User, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT u.id, u.public_id, u.link_code, u.email, u.name, u.password_hash, u.avatar,
			u.google_id, u.auth_provider, u.points, u.level, u.total_analyzed, u.total_transformed,
			u.settings, u.created_at, u.updated_at
		FROM guardian_links gl
		JOIN users u ON u.id = gl.child_id
		WHERE gl.guardian_id = $1
		ORDER BY gl.created_at ASC, u.id ASC`, guardianID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	children := make([]*models.User, 0)
	for rows.Next() {
		child, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

func (r *guardianRepository) ChildIDs(ctx context.Context, guardianID int64) ([]int64, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT child_id FROM guardian_links
		WHERE guardian_id = $1
		ORDER BY created_at ASC, child_id ASC`, guardianID)
	if err != nil {
		return nil, fmt.Errorf("failed to list child ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan child id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *guardianRepository) CountChildren(ctx context.Context, guardianID int64) (int, error) {
	var count int
	err := r.QueryRowContext(ctx, `SELECT COUNT(*) FROM guardian_links WHERE guardian_id = $1`, guardianID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count children: %w", err)
	}
	return count, nil
}
