package gateway

import (
	"context"

	"github.com/calibrae/mercator/internal/common"
)

const tavilyBaseURL = "https://api.tavily.com"

// TavilyProvider returns result URLs from the Tavily search API.
type TavilyProvider struct {
	gateway *Gateway
	baseURL string
}

// NewTavilyProvider creates a Tavily search provider.
func NewTavilyProvider(g *Gateway) *TavilyProvider {
	return &TavilyProvider{
		gateway: g,
		baseURL: tavilyBaseURL,
	}
}

// Name returns the provider name.
func (p *TavilyProvider) Name() string {
	return "tavily"
}

type tavilySearchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilySearchResponse struct {
	Results []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"results"`
}

// Search returns result URLs for the query. Without a credential the
// provider skips itself and returns nothing.
func (p *TavilyProvider) Search(ctx context.Context, query, ownerID string) ([]string, error) {
	apiKey := p.gateway.apiKey(ctx, common.ServiceTavily, ownerID)
	if apiKey == "" {
		return nil, nil
	}

	maxResults := p.gateway.config.MaxSearchResults
	if maxResults <= 0 {
		maxResults = 5
	}

	request := tavilySearchRequest{
		APIKey:     apiKey,
		Query:      query,
		MaxResults: maxResults,
	}

	var response tavilySearchResponse
	if err := p.gateway.doJSON(ctx, p.Name(), ownerID, "POST", p.baseURL+"/search", nil, request, &response); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(response.Results))
	for _, result := range response.Results {
		if result.URL != "" {
			urls = append(urls, result.URL)
		}
	}

	p.gateway.logger.Debug().
		Str("query", query).
		Int("urls", len(urls)).
		Msg("Tavily search completed")

	return urls, nil
}
