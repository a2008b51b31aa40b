package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/interfaces"
)

// Factory constructs LLM services on demand. Completion services are bound
// to the credential resolved for the requesting owner and to the requested
// temperature; the embedder is always Gemini since Claude has no embedding
// endpoint.
type Factory struct {
	config   *common.Config
	resolver *common.KeyResolver
	logger   arbor.ILogger

	mu       sync.Mutex
	embedder interfaces.LLMService
}

// NewFactory creates an LLM service factory.
func NewFactory(config *common.Config, resolver *common.KeyResolver, logger arbor.ILogger) *Factory {
	return &Factory{
		config:   config,
		resolver: resolver,
		logger:   logger,
	}
}

// ServiceFor returns a completion service for the given owner and temperature.
func (f *Factory) ServiceFor(ctx context.Context, ownerID string, temperature float32) (interfaces.LLMService, error) {
	switch f.config.LLM.Provider {
	case "claude":
		apiKey, err := f.resolver.Resolve(ctx, common.ServiceClaude, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve Anthropic API key: %w", err)
		}
		return NewClaudeService(&f.config.Claude, apiKey, temperature, f.logger)
	case "", "gemini":
		apiKey, err := f.resolver.Resolve(ctx, common.ServiceGemini, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve Google API key: %w", err)
		}
		return NewGeminiService(&f.config.Gemini, apiKey, temperature, f.logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider '%s'", f.config.LLM.Provider)
	}
}

// Embedder returns the shared embedding service, creating it on first use.
// Concurrent analysis runs share one factory, so the cached instance is
// guarded.
func (f *Factory) Embedder(ctx context.Context) (interfaces.LLMService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.embedder != nil {
		return f.embedder, nil
	}

	apiKey, err := f.resolver.Resolve(ctx, common.ServiceGemini, "")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Google API key for embeddings: %w", err)
	}

	service, err := NewGeminiService(&f.config.Gemini, apiKey, f.config.Gemini.Temperature, f.logger)
	if err != nil {
		return nil, err
	}

	f.embedder = service
	return service, nil
}
