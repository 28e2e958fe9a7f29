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

type SessionRepository struct {
	client *Client
}

func NewSessionRepository(client *Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.AdminSession) error {
	_, err := r.client.DB.ExecContext(ctx,
		`INSERT INTO admin_sessions (token, admin_id, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		session.Token, session.AdminID, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		util.Error("Failed to create session", zap.String("admin_id", session.AdminID.String()), zap.Error(err))
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetValid matches on the exact token and requires expires_at in the
// future. A missing and an expired session are both ErrNotFound.
func (r *SessionRepository) GetValid(ctx context.Context, token string, now time.Time) (*models.AdminSession, error) {
	session := &models.AdminSession{}
	err := r.client.DB.GetContext(ctx, session,
		`SELECT token, admin_id, created_at, expires_at
		 FROM admin_sessions WHERE token = $1 AND expires_at > $2`,
		token, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		util.Error("Failed to look up session", zap.Error(err))
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.client.DB.ExecContext(ctx,
		`DELETE FROM admin_sessions WHERE token = $1`, token); err != nil {
		util.Error("Failed to delete session", zap.Error(err))
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteAllForAdmin(ctx context.Context, adminID uuid.UUID) error {
	if _, err := r.client.DB.ExecContext(ctx,
		`DELETE FROM admin_sessions WHERE admin_id = $1`, adminID); err != nil {
		util.Error("Failed to delete sessions for admin", zap.String("admin_id", adminID.String()), zap.Error(err))
		return fmt.Errorf("failed to delete sessions for admin: %w", err)
	}
	return nil
}
