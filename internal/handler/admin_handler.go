package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"rewards-admin/internal/config"
	"rewards-admin/internal/models"
	"rewards-admin/internal/service"
	"rewards-admin/internal/util"
)

// AdminHandler serves the admin-api endpoint. Every action requires a
// valid session token; validation failures return 401 before any data
// access happens.
type AdminHandler struct {
	auth  *service.AuthService
	admin *service.AdminService
	cfg   *config.Config
}

func NewAdminHandler(auth *service.AuthService, admin *service.AdminService, cfg *config.Config) *AdminHandler {
	return &AdminHandler{auth: auth, admin: admin, cfg: cfg}
}

type updateStatsRequest struct {
	UserID string             `json:"userId"`
	Stats  *models.StatsInput `json:"stats"`
}

type usersResponse struct {
	Users []models.UserSummary `json:"users"`
}

type submissionsResponse struct {
	Submissions []models.GuestSubmission `json:"submissions"`
}

func (h *AdminHandler) Handle(w http.ResponseWriter, r *http.Request) {
	tok := tokenFromRequest(r, h.cfg.Session.CookieName)
	if _, ok := h.auth.Validate(r.Context(), tok); !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

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

	util.Debug("Admin API action", zap.String("action", env.Action))

	switch env.Action {
	case "getUsers":
		h.getUsers(w, r)
	case "getGuestSubmissions":
		h.getGuestSubmissions(w, r)
	case "updateStats":
		h.updateStats(w, r, body)
	default:
		respondError(w, http.StatusBadRequest, "Invalid action")
	}
}

func (h *AdminHandler) getUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.GetUsers(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, usersResponse{Users: users})
}

func (h *AdminHandler) getGuestSubmissions(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.admin.GetGuestSubmissions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, submissionsResponse{Submissions: submissions})
}

func (h *AdminHandler) updateStats(w http.ResponseWriter, r *http.Request, body []byte) {
	var req updateStatsRequest
	if err := json.Unmarshal(body, &req); err != nil || req.UserID == "" || req.Stats == nil {
		respondError(w, http.StatusBadRequest, "User ID and stats required")
		return
	}

	if err := h.admin.UpdateStats(r.Context(), req.UserID, *req.Stats); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, successResponse{Success: true})
}
