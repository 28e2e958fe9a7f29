package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin is the single privileged operator account. At most one row may
// exist; the invariant is enforced at creation time, not by the schema.
type Admin struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AdminProfile is the non-sensitive projection returned to clients.
type AdminProfile struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
}

func (a *Admin) Profile() AdminProfile {
	return AdminProfile{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
	}
}
