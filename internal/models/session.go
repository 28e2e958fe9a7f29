package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminSession is one authenticated login. Multiple concurrent sessions
// per admin are allowed; each has its own opaque token.
type AdminSession struct {
	Token     string    `db:"token" json:"-"`
	AdminID   uuid.UUID `db:"admin_id" json:"admin_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

func (s *AdminSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
