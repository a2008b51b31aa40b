package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/interfaces"
)

// KeyHandler manages per-owner stored API credentials
type KeyHandler struct {
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

// NewKeyHandler creates a new key handler
func NewKeyHandler(kv interfaces.KeyValueStorage, logger arbor.ILogger) *KeyHandler {
	return &KeyHandler{kv: kv, logger: logger}
}

type setKeyRequest struct {
	UserID  string `json:"user_id"`
	Service string `json:"service"`
	APIKey  string `json:"api_key"`
}

// SetKeyHandler handles POST /api/keys - stores a credential for an owner
func (h *KeyHandler) SetKeyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req setKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Service = strings.ToLower(strings.TrimSpace(req.Service))
	if req.UserID == "" || req.Service == "" || strings.TrimSpace(req.APIKey) == "" {
		WriteError(w, http.StatusBadRequest, "user_id, service and api_key are required")
		return
	}
	if !common.KnownService(req.Service) {
		WriteError(w, http.StatusBadRequest, "Unknown service")
		return
	}

	key := common.OwnerKeyName(req.UserID, common.ServiceID(req.Service))
	if err := h.kv.Set(r.Context(), key, strings.TrimSpace(req.APIKey)); err != nil {
		h.logger.Error().Err(err).Str("service", req.Service).Msg("Failed to store API key")
		WriteError(w, http.StatusInternalServerError, "Failed to store API key")
		return
	}

	h.logger.Info().Str("service", req.Service).Str("user_id", req.UserID).Msg("Stored API key")
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"service": req.Service,
	})
}

// DeleteKeyHandler handles DELETE /api/keys/{service}?user_id= - removes a stored credential
func (h *KeyHandler) DeleteKeyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	service := strings.ToLower(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/keys/"), "/"))
	userID := r.URL.Query().Get("user_id")
	if service == "" || userID == "" {
		WriteError(w, http.StatusBadRequest, "service and user_id are required")
		return
	}
	if !common.KnownService(service) {
		WriteError(w, http.StatusBadRequest, "Unknown service")
		return
	}

	key := common.OwnerKeyName(userID, common.ServiceID(service))
	if err := h.kv.Delete(r.Context(), key); err != nil {
		h.logger.Error().Err(err).Str("service", service).Msg("Failed to delete API key")
		WriteError(w, http.StatusInternalServerError, "Failed to delete API key")
		return
	}

	h.logger.Info().Str("service", service).Str("user_id", userID).Msg("Deleted API key")
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"service": service,
	})
}
