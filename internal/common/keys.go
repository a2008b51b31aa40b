package common

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/calibrae/mercator/internal/interfaces"
)

// ServiceID identifies an external service for credential lookup. Lookup is
// an explicit enumerated mapping, not free-text matching.
type ServiceID string

const (
	ServiceTavily       ServiceID = "tavily"
	ServiceSerpAPI      ServiceID = "serpapi"
	ServiceNewsAPI      ServiceID = "newsapi"
	ServiceMediaStack   ServiceID = "mediastack"
	ServiceFMP          ServiceID = "fmp"
	ServiceAlphaVantage ServiceID = "alphavantage"
	ServiceGemini       ServiceID = "gemini"
	ServiceClaude       ServiceID = "claude"
)

// serviceEnvVars maps each service to its environment variable names, in
// priority order.
var serviceEnvVars = map[ServiceID][]string{
	ServiceTavily:       {"MERCATOR_TAVILY_API_KEY", "TAVILY_API_KEY"},
	ServiceSerpAPI:      {"MERCATOR_SERPAPI_API_KEY", "SERPAPI_API_KEY"},
	ServiceNewsAPI:      {"MERCATOR_NEWS_API_KEY", "NEWS_API_KEY"},
	ServiceMediaStack:   {"MERCATOR_MEDIASTACK_API_KEY", "MEDIASTACK_API_KEY"},
	ServiceFMP:          {"MERCATOR_FMP_API_KEY", "FINANCIAL_MODELING_PREP_API_KEY"},
	ServiceAlphaVantage: {"MERCATOR_ALPHAVANTAGE_API_KEY", "ALPHA_VANTAGE_API_KEY"},
	ServiceGemini:       {"MERCATOR_GEMINI_API_KEY", "GOOGLE_API_KEY"},
	ServiceClaude:       {"MERCATOR_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
}

// KeyResolver resolves API credentials. Resolution order: per-owner stored
// key, then environment variables, then the config fallback for LLM keys.
type KeyResolver struct {
	kv     interfaces.KeyValueStorage
	config *Config
}

// NewKeyResolver creates a resolver backed by the given key/value store.
func NewKeyResolver(kv interfaces.KeyValueStorage, config *Config) *KeyResolver {
	return &KeyResolver{kv: kv, config: config}
}

// KnownService reports whether the service name is one of the enumerated
// external services.
func KnownService(name string) bool {
	_, ok := serviceEnvVars[ServiceID(name)]
	return ok
}

// OwnerKeyName returns the storage key for an owner's stored credential.
func OwnerKeyName(ownerID string, service ServiceID) string {
	return fmt.Sprintf("apikey/%s/%s", ownerID, service)
}

// Resolve returns the credential for a service, checking the owner's stored
// key first when ownerID is non-empty. Returns an error when no key is found.
func (r *KeyResolver) Resolve(ctx context.Context, service ServiceID, ownerID string) (string, error) {
	if ownerID != "" && r.kv != nil {
		key, err := r.kv.Get(ctx, OwnerKeyName(ownerID, service))
		if err == nil && strings.TrimSpace(key) != "" {
			return strings.TrimSpace(key), nil
		}
	}

	for _, envName := range serviceEnvVars[service] {
		if value := os.Getenv(envName); strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), nil
		}
	}

	if r.config != nil {
		switch service {
		case ServiceGemini:
			if r.config.Gemini.APIKey != "" {
				return r.config.Gemini.APIKey, nil
			}
		case ServiceClaude:
			if r.config.Claude.APIKey != "" {
				return r.config.Claude.APIKey, nil
			}
		}
	}

	return "", fmt.Errorf("API key for service '%s' not found in owner store, environment, or config", service)
}
