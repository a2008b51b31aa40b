// Package chat implements session-scoped conversation with the assistant.
package chat

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

const (
	// chatTemperature is the completion temperature for conversational
	// responses.
	chatTemperature = 0.7

	systemPrompt = "You are a helpful assistant. Respond to the user's query based on the provided chat history."

	configErrorResponse     = "Sorry, I encountered a configuration error while processing your message."
	unexpectedErrorResponse = "Sorry, I encountered an unexpected error while processing your message."
)

// Service persists chat turns and generates assistant responses. Failures
// produce a canned apology that is saved and returned like any other
// response, so the session history stays consistent.
type Service struct {
	storage  interfaces.ChatStorage
	provider interfaces.LLMProvider
	logger   arbor.ILogger
}

// NewService creates a chat service.
func NewService(storage interfaces.ChatStorage, provider interfaces.LLMProvider, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		provider: provider,
		logger:   logger,
	}
}

// Respond saves the user's message, generates a reply from the full session
// history, saves the reply, and returns it. The error return is reserved for
// storage failures; model failures degrade to a canned response.
func (s *Service) Respond(ctx context.Context, sessionID, ownerID, message string) (string, error) {
	s.logger.Info().
		Str("session_id", sessionID).
		Int("message_length", len(message)).
		Msg("Chat message received")

	if err := s.storage.SaveTurn(ctx, &models.ChatTurn{
		SessionID: sessionID,
		Role:      models.ChatRoleUser,
		Content:   message,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return "", err
	}

	history, err := s.storage.LoadHistory(ctx, sessionID)
	if err != nil {
		return "", err
	}

	service, err := s.provider.ServiceFor(ctx, ownerID, chatTemperature)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Chat LLM unavailable")
		return s.saveErrorResponse(ctx, sessionID, configErrorResponse)
	}

	messages := make([]interfaces.Message, 0, len(history)+1)
	messages = append(messages, interfaces.Message{Role: "system", Content: systemPrompt})
	for _, turn := range history {
		messages = append(messages, interfaces.Message{Role: turn.Role, Content: turn.Content})
	}

	response, err := service.Chat(ctx, messages)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Chat completion failed")
		return s.saveErrorResponse(ctx, sessionID, unexpectedErrorResponse)
	}

	if err := s.storage.SaveTurn(ctx, &models.ChatTurn{
		SessionID: sessionID,
		Role:      models.ChatRoleAssistant,
		Content:   response,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return "", err
	}

	s.logger.Info().Str("session_id", sessionID).Msg("Chat response generated")
	return response, nil
}

// History returns the session's turns in chronological order.
func (s *Service) History(ctx context.Context, sessionID string) ([]*models.ChatTurn, error) {
	return s.storage.LoadHistory(ctx, sessionID)
}

func (s *Service) saveErrorResponse(ctx context.Context, sessionID, response string) (string, error) {
	if err := s.storage.SaveTurn(ctx, &models.ChatTurn{
		SessionID: sessionID,
		Role:      models.ChatRoleAssistant,
		Content:   response,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to save error response")
	}
	return response, nil
}
