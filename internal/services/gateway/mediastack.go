package gateway

import (
	"context"
	"fmt"
	"net/url"

	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/models"
)

const mediaStackBaseURL = "https://api.mediastack.com"

// MediaStackProvider returns articles from the MediaStack news API.
type MediaStackProvider struct {
	gateway *Gateway
	baseURL string
}

// NewMediaStackProvider creates a MediaStack provider.
func NewMediaStackProvider(g *Gateway) *MediaStackProvider {
	return &MediaStackProvider{
		gateway: g,
		baseURL: mediaStackBaseURL,
	}
}

// Name returns the provider name.
func (p *MediaStackProvider) Name() string {
	return "mediastack"
}

type mediaStackResponse struct {
	Data []struct {
		Source      string `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"published_at"`
	} `json:"data"`
}

// FetchNews returns recent articles matching the query. Without a credential
// the provider skips itself and returns nothing.
func (p *MediaStackProvider) FetchNews(ctx context.Context, query, ownerID string) ([]models.Document, error) {
	apiKey := p.gateway.apiKey(ctx, common.ServiceMediaStack, ownerID)
	if apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("access_key", apiKey)
	params.Set("keywords", query)
	params.Set("languages", "en")
	params.Set("limit", "10")

	var response mediaStackResponse
	requestURL := fmt.Sprintf("%s/v1/news?%s", p.baseURL, params.Encode())
	if err := p.gateway.doJSON(ctx, p.Name(), ownerID, "GET", requestURL, nil, nil, &response); err != nil {
		return nil, err
	}

	documents := make([]models.Document, 0, len(response.Data))
	for _, article := range response.Data {
		documents = append(documents, models.Document{
			Source:      "mediastack",
			Title:       article.Title,
			Summary:     article.Description,
			Content:     article.Description,
			URL:         article.URL,
			PublishedAt: article.PublishedAt,
		})
	}

	p.gateway.logger.Debug().
		Str("query", query).
		Int("articles", len(documents)).
		Msg("MediaStack fetch completed")

	return documents, nil
}
