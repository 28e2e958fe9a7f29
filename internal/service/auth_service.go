package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rewards-admin/internal/audit"
	"rewards-admin/internal/config"
	"rewards-admin/internal/hashing"
	"rewards-admin/internal/models"
	"rewards-admin/internal/repository"
	redisrepo "rewards-admin/internal/repository/redis"
	"rewards-admin/internal/token"
	"rewards-admin/internal/util"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password
	// alike so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAdminExists rejects bootstrap once an admin account exists.
	ErrAdminExists = errors.New("admin account already exists, only one admin is allowed")

	ErrInvalidResetRequest = errors.New("invalid reset request")
	ErrInvalidResetCode    = errors.New("invalid reset code")
	ErrPasswordTooShort    = errors.New("password does not meet the minimum length")
	ErrInvalidInput        = errors.New("invalid input")
)

// AuthService owns the admin credential and session flows: login,
// validation, logout, the two-step password reset, and the one-time
// bootstrap of the single admin account.
type AuthService struct {
	admins   repository.AdminRepository
	sessions repository.SessionRepository
	resets   repository.ResetRepository

	hasher  *hashing.Hasher
	sender  CodeSender
	auditor audit.Publisher

	// Optional Redis layers; nil when Redis is not configured.
	cache   *redisrepo.SessionCache
	limiter *redisrepo.AttemptLimiter

	sessionTTL        time.Duration
	resetCodeTTL      time.Duration
	minPasswordLength int
}

func NewAuthService(
	admins repository.AdminRepository,
	sessions repository.SessionRepository,
	resets repository.ResetRepository,
	hasher *hashing.Hasher,
	sender CodeSender,
	auditor audit.Publisher,
	cache *redisrepo.SessionCache,
	limiter *redisrepo.AttemptLimiter,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		admins:            admins,
		sessions:          sessions,
		resets:            resets,
		hasher:            hasher,
		sender:            sender,
		auditor:           auditor,
		cache:             cache,
		limiter:           limiter,
		sessionTTL:        cfg.Session.TTL,
		resetCodeTTL:      cfg.Auth.ResetCodeTTL,
		minPasswordLength: cfg.Auth.MinPasswordLength,
	}
}

// Login verifies the credentials and issues a 24-hour session. The
// failure path is identical for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, models.AdminProfile, error) {
	email = util.NormalizeEmail(email)

	if s.limiter != nil && s.limiter.Blocked(redisrepo.KindLogin, email) {
		util.Warn("Login blocked by attempt limiter", zap.String("email", email))
		return "", models.AdminProfile{}, ErrInvalidCredentials
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordFailedLogin(ctx, email, "unknown email")
			return "", models.AdminProfile{}, ErrInvalidCredentials
		}
		return "", models.AdminProfile{}, fmt.Errorf("login lookup failed: %w", err)
	}

	if !s.hasher.Verify(password, admin.PasswordHash) {
		s.recordFailedLogin(ctx, email, "wrong password")
		return "", models.AdminProfile{}, ErrInvalidCredentials
	}

	tok, err := token.NewSessionToken()
	if err != nil {
		return "", models.AdminProfile{}, fmt.Errorf("failed to issue session token: %w", err)
	}

	now := time.Now().UTC()
	session := &models.AdminSession{
		Token:     tok,
		AdminID:   admin.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", models.AdminProfile{}, fmt.Errorf("failed to create session: %w", err)
	}

	profile := admin.Profile()
	if s.cache != nil {
		if err := s.cache.Put(session, profile); err != nil {
			util.Warn("Session cache write failed", zap.Error(err))
		}
	}
	if s.limiter != nil {
		_ = s.limiter.Reset(redisrepo.KindLogin, email)
	}

	s.auditor.Publish(ctx, models.AuditEvent{
		EventType: models.EventLoginSuccess,
		AdminID:   admin.ID.String(),
		Email:     admin.Email,
	})
	util.Info("Admin logged in", zap.String("admin_id", admin.ID.String()))

	return tok, profile, nil
}

// Validate resolves a session token to the admin profile. Missing,
// malformed, expired, and unknown tokens are all just "invalid"; storage
// failures are logged and also reported as invalid.
func (s *AuthService) Validate(ctx context.Context, tok string) (models.AdminProfile, bool) {
	if tok == "" {
		return models.AdminProfile{}, false
	}

	if s.cache != nil {
		if entry, err := s.cache.Get(tok); err == nil {
			return entry.Profile, true
		} else if !errors.Is(err, redisrepo.ErrCacheMiss) {
			util.Warn("Session cache read failed", zap.Error(err))
		}
	}

	session, err := s.sessions.GetValid(ctx, tok, time.Now().UTC())
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			util.Error("Session lookup failed", zap.Error(err))
		}
		return models.AdminProfile{}, false
	}

	admin, err := s.admins.GetByID(ctx, session.AdminID)
	if err != nil {
		util.Error("Admin lookup for session failed", zap.Error(err))
		return models.AdminProfile{}, false
	}

	profile := admin.Profile()
	if s.cache != nil {
		if err := s.cache.Put(session, profile); err != nil {
			util.Warn("Session cache write failed", zap.Error(err))
		}
	}
	return profile, true
}

// Logout deletes the session if one exists. Always succeeds from the
// caller's perspective; deleting an absent or already-deleted token is
// not an error.
func (s *AuthService) Logout(ctx context.Context, tok string) {
	if tok == "" {
		return
	}

	if err := s.sessions.Delete(ctx, tok); err != nil {
		util.Error("Session delete failed", zap.Error(err))
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(tok); err != nil {
			util.Warn("Session cache invalidation failed", zap.Error(err))
		}
	}

	s.auditor.Publish(ctx, models.AuditEvent{EventType: models.EventLogout})
}

// RequestReset issues a 15-minute recovery code for the admin. For an
// unregistered email it does nothing and still reports success, so the
// response never reveals whether an account exists.
func (s *AuthService) RequestReset(ctx context.Context, email string) error {
	email = util.NormalizeEmail(email)

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			util.Info("Reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("reset lookup failed: %w", err)
	}

	code, err := token.NewRecoveryCode()
	if err != nil {
		return fmt.Errorf("failed to generate recovery code: %w", err)
	}
	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return fmt.Errorf("failed to hash recovery code: %w", err)
	}

	now := time.Now().UTC()
	reset := &models.PasswordReset{
		ID:        uuid.New(),
		AdminID:   admin.ID,
		CodeHash:  codeHash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.resetCodeTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return fmt.Errorf("failed to store reset request: %w", err)
	}

	if err := s.sender.SendRecoveryCode(ctx, admin.Email, code); err != nil {
		// The code is stored and usable; delivery failures are the
		// sender's problem to surface operationally.
		util.Error("Recovery code delivery failed", zap.Error(err))
	}

	s.auditor.Publish(ctx, models.AuditEvent{
		EventType: models.EventResetRequested,
		AdminID:   admin.ID.String(),
		Email:     admin.Email,
	})
	return nil
}

// ConfirmReset consumes a recovery code, stores the new password, and
// revokes every outstanding session for the admin. Each code works at
// most once; all unexpired, unused codes are checked newest first.
func (s *AuthService) ConfirmReset(ctx context.Context, email, code, newPassword string) error {
	email = util.NormalizeEmail(email)

	if len(newPassword) < s.minPasswordLength {
		return ErrPasswordTooShort
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetRequest
		}
		return fmt.Errorf("reset lookup failed: %w", err)
	}

	if s.limiter != nil && s.limiter.Blocked(redisrepo.KindResetCode, email) {
		util.Warn("Reset confirmation blocked by attempt limiter", zap.String("email", email))
		return ErrInvalidResetCode
	}

	now := time.Now().UTC()
	resets, err := s.resets.ListUsable(ctx, admin.ID, now)
	if err != nil {
		return fmt.Errorf("failed to list reset requests: %w", err)
	}

	var matched *models.PasswordReset
	for _, r := range resets {
		if s.hasher.Verify(code, r.CodeHash) {
			matched = r
			break
		}
	}
	if matched == nil {
		if s.limiter != nil {
			_ = s.limiter.RecordFailure(redisrepo.KindResetCode, email)
		}
		return ErrInvalidResetCode
	}

	// Claim the code first; a concurrent confirm with the same code
	// loses the claim and fails like a wrong code.
	if err := s.resets.MarkUsed(ctx, matched.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return fmt.Errorf("failed to consume reset code: %w", err)
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.admins.UpdatePassword(ctx, admin.ID, passwordHash, now); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.sessions.DeleteAllForAdmin(ctx, admin.ID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.InvalidateAllForAdmin(admin.ID.String()); err != nil {
			util.Warn("Session cache revocation failed", zap.Error(err))
		}
	}
	if s.limiter != nil {
		_ = s.limiter.Reset(redisrepo.KindResetCode, email)
		_ = s.limiter.Reset(redisrepo.KindLogin, email)
	}

	s.auditor.Publish(ctx, models.AuditEvent{
		EventType: models.EventResetCompleted,
		AdminID:   admin.ID.String(),
		Email:     admin.Email,
	})
	util.Info("Admin password reset", zap.String("admin_id", admin.ID.String()))
	return nil
}

// CreateAdmin bootstraps the one allowed admin account. It carries no
// authentication gate: it only works while no admin exists, and the
// repository enforces that check atomically with the insert.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, displayName string) (models.AdminProfile, error) {
	email = util.NormalizeEmail(email)

	if len(password) < s.minPasswordLength {
		return models.AdminProfile{}, ErrPasswordTooShort
	}

	displayName = util.SanitizeInput(displayName)
	if displayName == "" {
		displayName = "Admin"
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return models.AdminProfile{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	admin := &models.Admin{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrAdminExists) {
			return models.AdminProfile{}, ErrAdminExists
		}
		return models.AdminProfile{}, fmt.Errorf("failed to create admin: %w", err)
	}

	s.auditor.Publish(ctx, models.AuditEvent{
		EventType: models.EventAdminCreated,
		AdminID:   admin.ID.String(),
		Email:     admin.Email,
	})
	util.Info("Admin account created", zap.String("admin_id", admin.ID.String()))

	return admin.Profile(), nil
}

func (s *AuthService) recordFailedLogin(ctx context.Context, email, reason string) {
	if s.limiter != nil {
		_ = s.limiter.RecordFailure(redisrepo.KindLogin, email)
	}
	s.auditor.Publish(ctx, models.AuditEvent{
		EventType: models.EventLoginFailed,
		Email:     email,
		Details:   reason,
	})
	util.Warn("Login failed", zap.String("reason", reason))
}
