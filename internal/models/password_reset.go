package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordReset is one outstanding reset attempt. Rows are never deleted;
// consumed codes keep their used_at timestamp for audit.
type PasswordReset struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	AdminID   uuid.UUID  `db:"admin_id" json:"admin_id"`
	CodeHash  string     `db:"code_hash" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
}

// Usable reports whether the code may still authorize a reset.
func (r *PasswordReset) Usable(now time.Time) bool {
	return r.UsedAt == nil && r.ExpiresAt.After(now)
}
