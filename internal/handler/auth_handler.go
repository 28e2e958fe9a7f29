package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"rewards-admin/internal/config"
	"rewards-admin/internal/models"
	"rewards-admin/internal/service"
	"rewards-admin/internal/util"
)

// AuthHandler serves the admin-auth endpoint: one POST route dispatching
// on the "action" field to typed per-action payloads.
type AuthHandler struct {
	auth *service.AuthService
	cfg  *config.Config
}

func NewAuthHandler(auth *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg}
}

type actionEnvelope struct {
	Action string `json:"action"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createAdminRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type requestResetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

type loginResponse struct {
	Success bool                `json:"success"`
	Token   string              `json:"token"`
	Admin   models.AdminProfile `json:"admin"`
}

type validateResponse struct {
	Valid bool                 `json:"valid"`
	Admin *models.AdminProfile `json:"admin,omitempty"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type adminResponse struct {
	Success bool                `json:"success"`
	Admin   models.AdminProfile `json:"admin"`
}

func (h *AuthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var env actionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	util.Debug("Admin auth action", zap.String("action", env.Action))

	switch env.Action {
	case "login":
		h.login(w, r, body)
	case "validate":
		h.validate(w, r)
	case "logout":
		h.logout(w, r)
	case "request-reset":
		h.requestReset(w, r, body)
	case "reset-password":
		h.resetPassword(w, r, body)
	case "create":
		h.createAdmin(w, r, body)
	default:
		respondError(w, http.StatusBadRequest, "Invalid action")
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, body []byte) {
	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password required")
		return
	}

	tok, profile, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	h.setSessionCookie(w, tok)
	respondJSON(w, http.StatusOK, loginResponse{Success: true, Token: tok, Admin: profile})
}

func (h *AuthHandler) validate(w http.ResponseWriter, r *http.Request) {
	tok := h.tokenFromRequest(r)

	profile, ok := h.auth.Validate(r.Context(), tok)
	if !ok {
		respondJSON(w, http.StatusOK, validateResponse{Valid: false})
		return
	}
	respondJSON(w, http.StatusOK, validateResponse{Valid: true, Admin: &profile})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), h.tokenFromRequest(r))
	h.clearSessionCookie(w)
	respondJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *AuthHandler) requestReset(w http.ResponseWriter, r *http.Request, body []byte) {
	var req requestResetRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email required")
		return
	}

	if err := h.auth.RequestReset(r.Context(), req.Email); err != nil {
		respondServiceError(w, err)
		return
	}

	// Same shape whether or not the email is registered.
	respondJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "If the email exists, a reset code has been generated.",
	})
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request, body []byte) {
	var req resetPasswordRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Email == "" || req.Code == "" || req.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "Email, code, and new password required")
		return
	}

	if err := h.auth.ConfirmReset(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "Password has been reset. Please log in with your new password.",
	})
}

func (h *AuthHandler) createAdmin(w http.ResponseWriter, r *http.Request, body []byte) {
	var req createAdminRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password required")
		return
	}

	profile, err := h.auth.CreateAdmin(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, adminResponse{Success: true, Admin: profile})
}

// tokenFromRequest extracts the session token: Authorization bearer
// header first (API clients), then the session cookie (browsers).
func (h *AuthHandler) tokenFromRequest(r *http.Request) string {
	return tokenFromRequest(r, h.cfg.Session.CookieName)
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, tok string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(h.cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Session.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Session.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}
