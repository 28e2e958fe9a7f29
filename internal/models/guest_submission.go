package models

import (
	"time"

	"github.com/google/uuid"
)

// GuestSubmission is an unauthenticated visitor's QR-code submission.
// Read-only from the admin service's perspective.
type GuestSubmission struct {
	ID          uuid.UUID `db:"id" json:"id"`
	InstagramID string    `db:"instagram_id" json:"instagram_id"`
	Email       string    `db:"email" json:"email"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
