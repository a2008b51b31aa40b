package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/models"
)

// ChatResponder is the conversational interface backing the chat endpoint.
type ChatResponder interface {
	Respond(ctx context.Context, sessionID, ownerID, message string) (string, error)
	History(ctx context.Context, sessionID string) ([]*models.ChatTurn, error)
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chatService ChatResponder
	logger      arbor.ILogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService ChatResponder, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// ChatHandler handles POST /api/chat requests
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode chat request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Message == "" {
		WriteError(w, http.StatusBadRequest, "Message field is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	h.logger.Info().
		Str("session_id", req.SessionID).
		Int("message_length", len(req.Message)).
		Msg("Processing chat request")

	response, err := h.chatService.Respond(r.Context(), req.SessionID, req.UserID, req.Message)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to generate chat response")
		WriteError(w, http.StatusInternalServerError, "Failed to generate response")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"session_id": req.SessionID,
		"response":   response,
	})
}

// HistoryHandler handles GET /api/chat/history requests
func (h *ChatHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		WriteError(w, http.StatusBadRequest, "Missing session_id parameter")
		return
	}

	history, err := h.chatService.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load chat history")
		WriteError(w, http.StatusInternalServerError, "Failed to load chat history")
		return
	}
	if history == nil {
		history = []*models.ChatTurn{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"history":    history,
	})
}
