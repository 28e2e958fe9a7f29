package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewards-admin/internal/audit"
	"rewards-admin/internal/config"
	"rewards-admin/internal/hashing"
	"rewards-admin/internal/models"
	"rewards-admin/internal/repository/memory"
)

// captureSender records recovery codes instead of delivering them.
type captureSender struct {
	mu    sync.Mutex
	codes []string
}

func (c *captureSender) SendRecoveryCode(_ context.Context, _ string, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes = append(c.codes, code)
	return nil
}

func (c *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.codes, "no recovery code was sent")
	return c.codes[len(c.codes)-1]
}

func newTestAuthService(t *testing.T) (*AuthService, *memory.Store, *captureSender) {
	t.Helper()

	store := memory.NewStore()
	sender := &captureSender{}
	hasher := hashing.NewHasherWithParams(hashing.Params{
		Iterations: 1000,
		SaltLength: 16,
		KeyLength:  32,
	})
	cfg := &config.Config{
		Session: config.SessionConfig{TTL: 24 * time.Hour},
		Auth: config.AuthConfig{
			MinPasswordLength: 8,
			ResetCodeTTL:      15 * time.Minute,
		},
	}

	svc := NewAuthService(
		store.Admins,
		store.Sessions,
		store.Resets,
		hasher,
		sender,
		audit.NewLogPublisher(),
		nil,
		nil,
		cfg,
	)
	return svc, store, sender
}

func mustCreateAdmin(t *testing.T, svc *AuthService) models.AdminProfile {
	t.Helper()
	profile, err := svc.CreateAdmin(context.Background(), "admin@example.com", "Secret123!", "Site Admin")
	require.NoError(t, err)
	return profile
}

func TestCreateAdmin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	profile := mustCreateAdmin(t, svc)
	assert.Equal(t, "admin@example.com", profile.Email)
	assert.Equal(t, "Site Admin", profile.DisplayName)
	assert.NotEqual(t, uuid.Nil, profile.ID)
}

func TestCreateAdminOnlyOnce(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	mustCreateAdmin(t, svc)

	_, err := svc.CreateAdmin(context.Background(), "other@example.com", "Another123!", "Second")
	assert.ErrorIs(t, err, ErrAdminExists)
}

func TestCreateAdminShortPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.CreateAdmin(context.Background(), "admin@example.com", "short", "Admin")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestCreateAdminNormalizesInput(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	profile, err := svc.CreateAdmin(context.Background(), "  Admin@Example.COM ", "Secret123!", "")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", profile.Email)
	assert.Equal(t, "Admin", profile.DisplayName)

	// The mixed-case form logs in against the stored lowercase email.
	_, _, err = svc.Login(context.Background(), "ADMIN@example.com", "Secret123!")
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	created := mustCreateAdmin(t, svc)

	tok, profile, err := svc.Login(context.Background(), "admin@example.com", "Secret123!")
	require.NoError(t, err)
	assert.Len(t, tok, 64)
	assert.Equal(t, created, profile)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	mustCreateAdmin(t, svc)

	_, _, wrongPassword := svc.Login(context.Background(), "admin@example.com", "WrongPass1!")
	_, _, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "Secret123!")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword, unknownEmail)
}

func TestValidate(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	created := mustCreateAdmin(t, svc)

	tok, _, err := svc.Login(context.Background(), "admin@example.com", "Secret123!")
	require.NoError(t, err)

	profile, ok := svc.Validate(context.Background(), tok)
	require.True(t, ok)
	assert.Equal(t, created, profile)

	_, ok = svc.Validate(context.Background(), "")
	assert.False(t, ok)

	_, ok = svc.Validate(context.Background(), "deadbeef")
	assert.False(t, ok)
}

func TestValidateExpiredSession(t *testing.T) {
	svc, store, _ := newTestAuthService(t)
	created := mustCreateAdmin(t, svc)

	expired := &models.AdminSession{
		Token:     "expiredexpiredexpiredexpiredexpiredexpiredexpiredexpiredexpired",
		AdminID:   created.ID,
		CreatedAt: time.Now().UTC().Add(-25 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, store.Sessions.Create(context.Background(), expired))

	_, ok := svc.Validate(context.Background(), expired.Token)
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	mustCreateAdmin(t, svc)

	tok, _, err := svc.Login(context.Background(), "admin@example.com", "Secret123!")
	require.NoError(t, err)

	svc.Logout(context.Background(), tok)

	_, ok := svc.Validate(context.Background(), tok)
	assert.False(t, ok)

	// Logging out an already-dead or blank token is a no-op.
	svc.Logout(context.Background(), tok)
	svc.Logout(context.Background(), "")
}

func TestRequestResetUnknownEmail(t *testing.T) {
	svc, _, sender := newTestAuthService(t)
	mustCreateAdmin(t, svc)

	err := svc.RequestReset(context.Background(), "nobody@example.com")
	assert.NoError(t, err, "unknown emails must not be distinguishable")
	assert.Empty(t, sender.codes)
}

func TestResetFlow(t *testing.T) {
	svc, _, sender := newTestAuthService(t)
	mustCreateAdmin(t, svc)

	tok, _, err := svc.Login(context.Background(), "admin@example.com", "Secret123!")
	require.NoError(t, err)

	require.NoError(t, svc.RequestReset(context.Background(), "admin@example.com"))
	code := sender.lastCode(t)
	assert.Len(t, code, 6)

	err = svc.ConfirmReset(context.Background(), "admin@example.com", code, "NewSecret456!")
	require.NoError(t, err)

	// Every outstanding session is revoked.
	_, ok := svc.Validate(context.Background(), tok)
	assert.False(t, ok)

	// Old password is gone, new one works.
	_, _, err = svc.Login(context.Background(), "admin@example.com", "Secret123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "admin@example.com", "NewSecret456!")
	assert.NoError(t, err)
}

func TestResetCodeSingleUse(t *testing.T) {
	svc, _, sender := newTestAuthService(t)
	mustCreateAdmin(t, svc)

	require.NoError(t, svc.RequestReset(context.Background(), "admin@example.com"))
	code := sender.lastCode(t)

	require.NoError(t, svc.ConfirmReset(context.Background(), "admin@example.com", code, "NewSecret456!"))

	err := svc.ConfirmReset(context.Background(), "admin@example.com", code, "OtherSecret789!")
	assert.ErrorIs(t, err, ErrInvalidResetCode)
}

func TestConfirmResetWrongCode(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	mustCreateAdmin(t, svc)

	require.NoError(t, svc.RequestReset(context.Background(), "admin@example.com"))

	err := svc.ConfirmReset(context.Background(), "admin@example.com", "000000", "NewSecret456!")
	assert.ErrorIs(t, err, ErrInvalidResetCode)

	// And the password is untouched.
	_, _, err = svc.Login(context.Background(), "admin@example.com", "Secret123!")
	assert.NoError(t, err)
}

func TestConfirmResetExpiredCode(t *testing.T) {
	svc, store, sender := newTestAuthService(t)
	created := mustCreateAdmin(t, svc)

	require.NoError(t, svc.RequestReset(context.Background(), "admin@example.com"))
	code := sender.lastCode(t)

	// Age the stored request past its expiry.
	resets, err := store.Resets.ListUsable(context.Background(), created.ID, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, resets, 1)
	aged := *resets[0]
	aged.ID = uuid.New()
	aged.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, store.Resets.Create(context.Background(), &aged))
	require.NoError(t, store.Resets.MarkUsed(context.Background(), resets[0].ID, time.Now().UTC()))

	err = svc.ConfirmReset(context.Background(), "admin@example.com", code, "NewSecret456!")
	assert.ErrorIs(t, err, ErrInvalidResetCode)
}

func TestConfirmResetChecksNewestCodeFirst(t *testing.T) {
	svc, _, sender := newTestAuthService(t)
	mustCreateAdmin(t, svc)

	require.NoError(t, svc.RequestReset(context.Background(), "admin@example.com"))
	first := sender.lastCode(t)
	require.NoError(t, svc.RequestReset(context.Background(), "admin@example.com"))
	second := sender.lastCode(t)

	// Both codes remain usable until consumed.
	require.NoError(t, svc.ConfirmReset(context.Background(), "admin@example.com", second, "NewSecret456!"))
	if first != second {
		require.NoError(t, svc.ConfirmReset(context.Background(), "admin@example.com", first, "NewSecret789!"))
	}
}

func TestConfirmResetShortPassword(t *testing.T) {
	svc, _, sender := newTestAuthService(t)
	mustCreateAdmin(t, svc)

	require.NoError(t, svc.RequestReset(context.Background(), "admin@example.com"))
	code := sender.lastCode(t)

	err := svc.ConfirmReset(context.Background(), "admin@example.com", code, "tiny")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestConfirmResetUnknownEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	mustCreateAdmin(t, svc)

	err := svc.ConfirmReset(context.Background(), "nobody@example.com", "123456", "NewSecret456!")
	assert.ErrorIs(t, err, ErrInvalidResetRequest)
}
