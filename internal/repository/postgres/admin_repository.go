package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rewards-admin/internal/models"
	"rewards-admin/internal/repository"
	"rewards-admin/internal/util"
)

type AdminRepository struct {
	client *Client
}

func NewAdminRepository(client *Client) *AdminRepository {
	return &AdminRepository{client: client}
}

// Create inserts the admin only when the admins table is empty. The count
// check and insert run in one transaction holding an exclusive table lock
// so concurrent bootstrap calls cannot both succeed.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	tx, err := r.client.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE admins IN ACCESS EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock admins table: %w", err)
	}

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT count(*) FROM admins`); err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return repository.ErrAdminExists
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO admins (id, email, password_hash, display_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		admin.ID, admin.Email, admin.PasswordHash, admin.DisplayName,
		admin.CreatedAt, admin.UpdatedAt)
	if err != nil {
		util.Error("Failed to insert admin", zap.String("email", admin.Email), zap.Error(err))
		return fmt.Errorf("failed to insert admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit admin insert: %w", err)
	}
	return nil
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	admin := &models.Admin{}
	err := r.client.DB.GetContext(ctx, admin,
		`SELECT id, email, password_hash, display_name, created_at, updated_at
		 FROM admins WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		util.Error("Failed to get admin by email", zap.Error(err))
		return nil, fmt.Errorf("failed to get admin by email: %w", err)
	}
	return admin, nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	admin := &models.Admin{}
	err := r.client.DB.GetContext(ctx, admin,
		`SELECT id, email, password_hash, display_name, created_at, updated_at
		 FROM admins WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		util.Error("Failed to get admin by id", zap.String("admin_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get admin by id: %w", err)
	}
	return admin, nil
}

func (r *AdminRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, updatedAt time.Time) error {
	res, err := r.client.DB.ExecContext(ctx,
		`UPDATE admins SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, updatedAt)
	if err != nil {
		util.Error("Failed to update admin password", zap.String("admin_id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to update admin password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
