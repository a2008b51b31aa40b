package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

// StateHandler serves persisted analysis states and their customer insights
type StateHandler struct {
	states   interfaces.StateStorage
	segments interfaces.SegmentStorage
	logger   arbor.ILogger
}

// NewStateHandler creates a new state handler
func NewStateHandler(states interfaces.StateStorage, segments interfaces.SegmentStorage, logger arbor.ILogger) *StateHandler {
	return &StateHandler{
		states:   states,
		segments: segments,
		logger:   logger,
	}
}

// ListStatesHandler handles GET /api/states - lists states for an owner
func (h *StateHandler) ListStatesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	userID := r.URL.Query().Get("user_id")
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	summaries, err := h.states.ListStates(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list states")
		WriteError(w, http.StatusInternalServerError, "Failed to list states")
		return
	}
	if summaries == nil {
		summaries = []*models.StateSummary{}
	}

	h.logger.Debug().Int("count", len(summaries)).Str("user_id", userID).Msg("Listed states")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"states": summaries,
		"count":  len(summaries),
	})
}

// StateRoutesHandler dispatches /api/states/{id} and /api/states/{id}/insights
func (h *StateHandler) StateRoutesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/states/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		h.getState(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "insights":
		h.getInsights(w, r, parts[0])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (h *StateHandler) getState(w http.ResponseWriter, r *http.Request, stateID string) {
	state, err := h.states.LoadState(r.Context(), stateID)
	if err != nil {
		if errors.Is(err, interfaces.ErrStateNotFound) {
			WriteError(w, http.StatusNotFound, "State not found")
			return
		}
		h.logger.Error().Err(err).Str("state_id", stateID).Msg("Failed to load state")
		WriteError(w, http.StatusInternalServerError, "Failed to load state")
		return
	}

	WriteJSON(w, http.StatusOK, state)
}

func (h *StateHandler) getInsights(w http.ResponseWriter, r *http.Request, stateID string) {
	segments, err := h.segments.GetSegments(r.Context(), stateID)
	if err != nil {
		h.logger.Error().Err(err).Str("state_id", stateID).Msg("Failed to load customer insights")
		WriteError(w, http.StatusInternalServerError, "Failed to load customer insights")
		return
	}
	if segments == nil {
		segments = []models.CustomerSegment{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"state_id": stateID,
		"insights": segments,
	})
}
