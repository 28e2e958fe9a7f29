package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rewards-admin/internal/models"
	"rewards-admin/internal/repository"
	"rewards-admin/internal/util"
)

type ResetRepository struct {
	client *Client
}

func NewResetRepository(client *Client) *ResetRepository {
	return &ResetRepository{client: client}
}

func (r *ResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	_, err := r.client.DB.ExecContext(ctx,
		`INSERT INTO admin_password_resets (id, admin_id, code_hash, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		reset.ID, reset.AdminID, reset.CodeHash, reset.CreatedAt, reset.ExpiresAt)
	if err != nil {
		util.Error("Failed to create password reset", zap.String("admin_id", reset.AdminID.String()), zap.Error(err))
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

func (r *ResetRepository) ListUsable(ctx context.Context, adminID uuid.UUID, now time.Time) ([]*models.PasswordReset, error) {
	var resets []*models.PasswordReset
	err := r.client.DB.SelectContext(ctx, &resets,
		`SELECT id, admin_id, code_hash, created_at, expires_at, used_at
		 FROM admin_password_resets
		 WHERE admin_id = $1 AND used_at IS NULL AND expires_at > $2
		 ORDER BY created_at DESC`,
		adminID, now)
	if err != nil {
		util.Error("Failed to list password resets", zap.String("admin_id", adminID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list password resets: %w", err)
	}
	return resets, nil
}

// MarkUsed claims the reset exactly once: the update only matches while
// used_at is still NULL, so a second claim reports ErrNotFound.
func (r *ResetRepository) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	res, err := r.client.DB.ExecContext(ctx,
		`UPDATE admin_password_resets SET used_at = $2
		 WHERE id = $1 AND used_at IS NULL`,
		id, usedAt)
	if err != nil {
		util.Error("Failed to mark password reset used", zap.String("reset_id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to mark password reset used: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
