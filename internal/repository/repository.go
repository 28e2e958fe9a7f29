package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rewards-admin/internal/models"
)

var (
	// ErrNotFound is returned for any lookup miss. Callers must not be
	// able to distinguish a missing record from an expired one.
	ErrNotFound = errors.New("record not found")

	// ErrAdminExists is returned by AdminRepository.Create once an admin
	// record exists; only one admin account is ever allowed.
	ErrAdminExists = errors.New("admin account already exists")
)

// AdminRepository persists the single admin account.
type AdminRepository interface {
	// Create inserts the admin only if no admin record exists yet.
	// The zero-count check and the insert are atomic.
	Create(ctx context.Context, admin *models.Admin) error
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, updatedAt time.Time) error
}

// SessionRepository persists admin sessions keyed by opaque token.
type SessionRepository interface {
	Create(ctx context.Context, session *models.AdminSession) error
	// GetValid returns the session only if the token matches and the
	// session has not expired at the given instant.
	GetValid(ctx context.Context, token string, now time.Time) (*models.AdminSession, error)
	// Delete is idempotent; deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error
	DeleteAllForAdmin(ctx context.Context, adminID uuid.UUID) error
}

// ResetRepository persists password reset requests. Rows are marked used,
// never deleted.
type ResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	// ListUsable returns unused, unexpired requests for the admin,
	// newest first.
	ListUsable(ctx context.Context, adminID uuid.UUID, now time.Time) ([]*models.PasswordReset, error)
	MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error
}

// StatsRepository reads user profiles and reads/writes reward stats.
type StatsRepository interface {
	// ListUserSummaries joins profiles with stats; users without a stats
	// row report zero for every counter.
	ListUserSummaries(ctx context.Context) ([]models.UserSummary, error)
	Get(ctx context.Context, userID string) (*models.UserStats, error)
	// Upsert overwrites the four counters, inserting the row if absent.
	Upsert(ctx context.Context, userID string, in models.StatsInput, now time.Time) error
}

// GuestSubmissionRepository reads QR-code guest submissions.
type GuestSubmissionRepository interface {
	// List returns all submissions, newest first.
	List(ctx context.Context) ([]models.GuestSubmission, error)
}
