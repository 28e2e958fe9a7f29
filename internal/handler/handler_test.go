package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewards-admin/internal/audit"
	"rewards-admin/internal/config"
	"rewards-admin/internal/hashing"
	"rewards-admin/internal/models"
	"rewards-admin/internal/repository/memory"
	"rewards-admin/internal/service"
	"rewards-admin/internal/util"
)

type discardSender struct{}

func (discardSender) SendRecoveryCode(context.Context, string, string) error { return nil }

type stubHealth struct{ err error }

func (s stubHealth) Healthy(*http.Request) error { return s.err }

type testEnv struct {
	router http.Handler
	store  *memory.Store
	cfg    *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	hasher := hashing.NewHasherWithParams(hashing.Params{
		Iterations: 1000,
		SaltLength: 16,
		KeyLength:  32,
	})
	cfg := &config.Config{
		Session: config.SessionConfig{
			TTL:        24 * time.Hour,
			CookieName: "admin_token",
		},
		Auth: config.AuthConfig{
			MinPasswordLength: 8,
			ResetCodeTTL:      15 * time.Minute,
		},
	}

	authSvc := service.NewAuthService(
		store.Admins, store.Sessions, store.Resets,
		hasher, discardSender{}, audit.NewLogPublisher(),
		nil, nil, cfg,
	)
	adminSvc := service.NewAdminService(store.Stats, store.Guests, audit.NewLogPublisher())

	authHandler := NewAuthHandler(authSvc, cfg)
	adminHandler := NewAdminHandler(authSvc, adminSvc, cfg)
	router := NewRouter(authHandler, adminHandler, stubHealth{}, util.Get())

	return &testEnv{router: router, store: store, cfg: cfg}
}

func (e *testEnv) post(t *testing.T, path string, payload map[string]interface{}, mutators ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutators {
		m(req)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func withBearer(tok string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
	}
}

func withCookie(name, tok string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: name, Value: tok})
	}
}

// createAndLogin bootstraps the admin and returns a live session token.
func (e *testEnv) createAndLogin(t *testing.T) string {
	t.Helper()

	rec := e.post(t, "/api/v1/admin/auth", map[string]interface{}{
		"action":   "create",
		"email":    "admin@example.com",
		"password": "Secret123!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.post(t, "/api/v1/admin/auth", map[string]interface{}{
		"action":   "login",
		"email":    "admin@example.com",
		"password": "Secret123!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func TestCreateAdminEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/api/v1/admin/auth", map[string]interface{}{
		"action":      "create",
		"email":       "admin@example.com",
		"password":    "Secret123!",
		"displayName": "Site Admin",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	admin := body["admin"].(map[string]interface{})
	assert.Equal(t, "admin@example.com", admin["email"])
	assert.Equal(t, "Site Admin", admin["display_name"])

	// The bootstrap only works once.
	rec = env.post(t, "/api/v1/admin/auth", map[string]interface{}{
		"action":   "create",
		"email":    "second@example.com",
		"password": "Another123!",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin account already exists. Only one admin is allowed.", decodeBody(t, rec)["error"])
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.createAndLogin(t)

	rec := env.post(t, "/api/v1/admin/auth", map[string]interface{}{
		"action":   "login",
		"email":    "admin@example.com",
		"password": "Secret123!",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])

	// The session cookie rides along for browser clients.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "admin_token", cookies[0].Name)
	assert.Equal(t, body["token"], cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createAndLogin(t)

	for _, payload := range []map[string]interface{}{
		{"action": "login", "email": "admin@example.com", "password": "WrongPass1!"},
		{"action": "login", "email": "nobody@example.com", "password": "Secret123!"},
	} {
		rec := env.post(t, "/api/v1/admin/auth", payload)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["error"])
	}
}

func TestLoginRequiresEmailAndPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/api/v1/admin/auth", map[string]interface{}{
		"action": "login",
		"email":  "admin@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email and password required", decodeBody(t, rec)["error"])
}

func TestValidateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createAndLogin(t)

	// Bearer header
	rec := env.post(t, "/api/v1/admin/auth", map[string]interface{}{"action": "validate"}, withBearer(tok))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "admin@example.com", body["admin"].(map[string]interface{})["email"])

	// Session cookie
	rec = env.post(t, "/api/v1/admin/auth", map[string]interface{}{"action": "validate"}, withCookie("admin_token", tok))
	body = decodeBody(t, rec)
	assert.Equal(t, true, body["valid"])

	// No token: still 200, just invalid.
	rec = env.post(t, "/api/v1/admin/auth", map[string]interface{}{"action": "validate"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.NotContains(t, body, "admin")
}

func TestValidatePrefersHeaderOverCookie(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createAndLogin(t)

	rec := env.post(t, "/api/v1/admin/auth", map[string]interface{}{"action": "validate"},
		withBearer("bogus"),
		withCookie("admin_token", tok),
	)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createAndLogin(t)

	rec := env.post(t, "/api/v1/admin/auth", map[string]interface{}{"action": "logout"}, withBearer(tok))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	// The cookie is cleared.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "admin_token", cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)

	// And the token no longer validates.
	rec = env.post(t, "/api/v1/admin/auth", map[string]interface{}{"action": "validate"}, withBearer(tok))
	assert.Equal(t, false, decodeBody(t, rec)["valid"])
}

func TestRequestResetEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.createAndLogin(t)

	// Registered and unregistered emails get the same response.
	for _, email := range []string{"admin@example.com", "nobody@example.com"} {
		rec := env.post(t, "/api/v1/admin/auth", map[string]interface{}{
			"action": "request-reset",
			"email":  email,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "If the email exists, a reset code has been generated.", body["message"])
	}
}

func TestResetPasswordEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.createAndLogin(t)

	rec := env.post(t, "/api/v1/admin/auth", map[string]interface{}{
		"action":      "reset-password",
		"email":       "admin@example.com",
		"code":        "000000",
		"newPassword": "NewSecret456!",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid reset code", decodeBody(t, rec)["error"])

	rec = env.post(t, "/api/v1/admin/auth", map[string]interface{}{
		"action": "reset-password",
		"email":  "admin@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email, code, and new password required", decodeBody(t, rec)["error"])
}

func TestAuthUnknownAction(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/api/v1/admin/auth", map[string]interface{}{"action": "destroy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid action", decodeBody(t, rec)["error"])
}

func TestAuthMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeBody(t, rec)["error"])
}

func TestAdminAPIRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	env.createAndLogin(t)

	for _, mutate := range []func(*http.Request){
		func(*http.Request) {},
		withBearer("bogus"),
	} {
		rec := env.post(t, "/api/v1/admin/api", map[string]interface{}{"action": "getUsers"}, mutate)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", decodeBody(t, rec)["error"])
	}
}

func TestGetUsersEndpoint(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createAndLogin(t)

	env.store.Stats.SeedProfile(models.Profile{UserID: "u1", Email: "one@example.com", DisplayName: "One"})

	rec := env.post(t, "/api/v1/admin/api", map[string]interface{}{"action": "getUsers"}, withBearer(tok))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	users := body["users"].([]interface{})
	require.Len(t, users, 1)
	user := users[0].(map[string]interface{})
	assert.Equal(t, "one@example.com", user["email"])
	assert.Equal(t, float64(0), user["total_earned"])
}

func TestGetGuestSubmissionsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createAndLogin(t)

	rec := env.post(t, "/api/v1/admin/api", map[string]interface{}{"action": "getGuestSubmissions"}, withBearer(tok))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Contains(t, body, "submissions")
}

func TestUpdateStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createAndLogin(t)

	rec := env.post(t, "/api/v1/admin/api", map[string]interface{}{
		"action": "updateStats",
		"userId": "u1",
		"stats": map[string]interface{}{
			"total_earned":    12.5,
			"posts_submitted": 2,
			"rewards_claimed": 1,
			"current_streak":  3,
		},
	}, withBearer(tok))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	stats, err := env.store.Stats.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 12.5, stats.TotalEarned)
	assert.Equal(t, 3, stats.CurrentStreak)
}

func TestUpdateStatsRequiresUserIDAndStats(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createAndLogin(t)

	for _, payload := range []map[string]interface{}{
		{"action": "updateStats", "stats": map[string]interface{}{"total_earned": 1}},
		{"action": "updateStats", "userId": "u1"},
	} {
		rec := env.post(t, "/api/v1/admin/api", payload, withBearer(tok))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "User ID and stats required", decodeBody(t, rec)["error"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestHealthEndpointUnhealthy(t *testing.T) {
	store := memory.NewStore()
	cfg := &config.Config{Session: config.SessionConfig{CookieName: "admin_token"}}
	hasher := hashing.NewHasherWithParams(hashing.Params{Iterations: 1000, SaltLength: 16, KeyLength: 32})
	authSvc := service.NewAuthService(store.Admins, store.Sessions, store.Resets,
		hasher, discardSender{}, audit.NewLogPublisher(), nil, nil, cfg)
	adminSvc := service.NewAdminService(store.Stats, store.Guests, audit.NewLogPublisher())
	router := NewRouter(
		NewAuthHandler(authSvc, cfg),
		NewAdminHandler(authSvc, adminSvc, cfg),
		stubHealth{err: errors.New("postgres: connection refused")},
		util.Get(),
	)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/api/v1/admin/other", map[string]interface{}{"action": "getUsers"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/auth", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
