package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model operations including
// embeddings generation and chat completions. Implementations use cloud APIs
// (Anthropic Claude, Google Gemini) configured with a resolved credential and
// a fixed temperature.
type LLMService interface {
	// Embed generates an embedding vector for the given text. The vector is
	// used for similarity comparison in the retrieval index.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat generates a completion response based on the conversation history.
	// The messages slice should contain the full conversation context including
	// system prompts, user messages, and previous assistant responses.
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the LLM service is operational and can handle requests.
	HealthCheck(ctx context.Context) error

	// Close releases resources and performs cleanup operations.
	Close() error
}

// LLMProvider constructs LLM services on demand. A service is bound to the
// credential resolved for the requesting owner (per-owner stored key first,
// then environment, then configuration) and to the requested temperature.
type LLMProvider interface {
	// ServiceFor returns a completion service for the given owner and
	// temperature. ownerID may be empty for unauthenticated runs.
	ServiceFor(ctx context.Context, ownerID string, temperature float32) (LLMService, error)

	// Embedder returns the service used for embedding generation.
	Embedder(ctx context.Context) (LLMService, error)
}
