package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"rewards-admin/internal/service"
	"rewards-admin/internal/util"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		util.Error("Failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondServiceError maps service sentinels onto statuses and terse
// messages. Anything unrecognized is a storage-level failure: logged
// with detail, reported generically.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrAdminExists):
		respondError(w, http.StatusForbidden, "Admin account already exists. Only one admin is allowed.")
	case errors.Is(err, service.ErrInvalidResetRequest):
		respondError(w, http.StatusBadRequest, "Invalid reset request")
	case errors.Is(err, service.ErrInvalidResetCode):
		respondError(w, http.StatusBadRequest, "Invalid reset code")
	case errors.Is(err, service.ErrPasswordTooShort):
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
	case errors.Is(err, service.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "Invalid input")
	default:
		util.Error("Request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
