package gateway

import (
	"context"
	"fmt"
	"net/url"

	"github.com/calibrae/mercator/internal/common"
)

const serpAPIBaseURL = "https://serpapi.com"

// SerpAPIProvider returns result URLs from Google results via SerpAPI.
type SerpAPIProvider struct {
	gateway *Gateway
	baseURL string
}

// NewSerpAPIProvider creates a SerpAPI search provider.
func NewSerpAPIProvider(g *Gateway) *SerpAPIProvider {
	return &SerpAPIProvider{
		gateway: g,
		baseURL: serpAPIBaseURL,
	}
}

// Name returns the provider name.
func (p *SerpAPIProvider) Name() string {
	return "serpapi"
}

type serpAPIResponse struct {
	OrganicResults []struct {
		Link  string `json:"link"`
		Title string `json:"title"`
	} `json:"organic_results"`
}

// Search returns result URLs for the query. Without a credential the
// provider skips itself and returns nothing.
func (p *SerpAPIProvider) Search(ctx context.Context, query, ownerID string) ([]string, error) {
	apiKey := p.gateway.apiKey(ctx, common.ServiceSerpAPI, ownerID)
	if apiKey == "" {
		return nil, nil
	}

	maxResults := p.gateway.config.MaxSearchResults
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", maxResults))
	params.Set("api_key", apiKey)

	var response serpAPIResponse
	requestURL := fmt.Sprintf("%s/search.json?%s", p.baseURL, params.Encode())
	if err := p.gateway.doJSON(ctx, p.Name(), ownerID, "GET", requestURL, nil, nil, &response); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(response.OrganicResults))
	for _, result := range response.OrganicResults {
		if result.Link != "" {
			urls = append(urls, result.Link)
		}
		if len(urls) >= maxResults {
			break
		}
	}

	p.gateway.logger.Debug().
		Str("query", query).
		Int("urls", len(urls)).
		Msg("SerpAPI search completed")

	return urls, nil
}
