package models

import "time"

// Audit event types emitted by the auth and data services.
const (
	EventLoginSuccess   = "login_success"
	EventLoginFailed    = "login_failed"
	EventLogout         = "logout"
	EventResetRequested = "reset_requested"
	EventResetCompleted = "reset_completed"
	EventAdminCreated   = "admin_created"
	EventStatsUpdated   = "stats_updated"
)

// AuditEvent is one security-relevant occurrence published to the audit
// stream. Tokens and codes are never carried in events.
type AuditEvent struct {
	EventType  string    `json:"event_type"`
	AdminID    string    `json:"admin_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Details    string    `json:"details,omitempty"`
}
