package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/interfaces"
)

const (
	// DefaultTimeout is the default HTTP timeout for provider requests.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default outbound request rate across providers.
	DefaultRateLimit = 5
)

// APIError represents a non-2xx response from an external provider.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Gateway is the single access point to external data providers. It owns the
// shared HTTP client, the outbound rate limiter, the response cache, and the
// per-provider credential resolution.
type Gateway struct {
	config     *common.GatewayConfig
	logger     arbor.ILogger
	resolver   *common.KeyResolver
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *TTLCache

	search    []interfaces.SearchProvider
	news      []interfaces.NewsProvider
	financial []interfaces.FinancialProvider
	fetcher   interfaces.PageFetcher
}

// NewGateway creates a gateway with all providers registered. Providers whose
// credentials are absent at request time skip themselves without failing the
// collection.
func NewGateway(config *common.GatewayConfig, resolver *common.KeyResolver, logger arbor.ILogger) *Gateway {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rps := config.RequestsPerSec
	if rps <= 0 {
		rps = DefaultRateLimit
	}

	g := &Gateway{
		config:   config,
		logger:   logger,
		resolver: resolver,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		cache:   NewTTLCache(config.CacheTTL),
	}

	g.search = []interfaces.SearchProvider{
		NewTavilyProvider(g),
		NewSerpAPIProvider(g),
	}
	g.news = []interfaces.NewsProvider{
		NewNewsAPIProvider(g),
		NewMediaStackProvider(g),
	}
	g.financial = []interfaces.FinancialProvider{
		NewFMPProvider(g),
		NewAlphaVantageProvider(g),
	}
	g.fetcher = NewPageFetcher(g)

	return g
}

// SearchProviders returns the registered web search providers.
func (g *Gateway) SearchProviders() []interfaces.SearchProvider {
	return g.search
}

// NewsProviders returns the registered news providers.
func (g *Gateway) NewsProviders() []interfaces.NewsProvider {
	return g.news
}

// FinancialProviders returns the registered financial data providers.
func (g *Gateway) FinancialProviders() []interfaces.FinancialProvider {
	return g.financial
}

// PageFetcher returns the HTML page fetcher.
func (g *Gateway) PageFetcher() interfaces.PageFetcher {
	return g.fetcher
}

// Cache returns the response cache, used by the application's sweep job.
func (g *Gateway) Cache() *TTLCache {
	return g.cache
}

// apiKey resolves the credential for a provider's service. An empty string
// with no error means the provider has no key and should skip itself.
func (g *Gateway) apiKey(ctx context.Context, service common.ServiceID, ownerID string) string {
	key, err := g.resolver.Resolve(ctx, service, ownerID)
	if err != nil {
		g.logger.Debug().
			Str("service", string(service)).
			Msg("No API key configured, skipping provider")
		return ""
	}
	return key
}

// doJSON performs a rate-limited, cached, retried HTTP request and decodes
// the JSON response into result. Request bodies are only supported for POST.
// The cache key carries the owner so responses fetched under one owner's
// credential are never served to another owner.
func (g *Gateway) doJSON(ctx context.Context, name, ownerID, method, url string, headers map[string]string, body any, result any) error {
	cacheKey := ownerID + " " + method + " " + url
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		cacheKey += " " + string(payload)
	}

	if cached, ok := g.cache.Get(cacheKey); ok {
		g.logger.Debug().Str("provider", name).Msg("Provider response served from cache")
		return json.Unmarshal(cached, result)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}

	var responseBody []byte
	err := withRetry(ctx, g.logger, name, g.config.MaxRetries, g.config.RetryBaseDelay, func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &APIError{
				StatusCode: resp.StatusCode,
				Message:    string(msg),
				Endpoint:   url,
			}
		}

		responseBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	g.cache.Set(cacheKey, responseBody)

	if err := json.Unmarshal(responseBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
