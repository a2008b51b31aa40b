package gateway

import (
	"context"
	"fmt"
	"net/url"

	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/models"
)

const newsAPIBaseURL = "https://newsapi.org"

// NewsAPIProvider returns articles from the NewsAPI "everything" endpoint.
type NewsAPIProvider struct {
	gateway *Gateway
	baseURL string
}

// NewNewsAPIProvider creates a NewsAPI provider.
func NewNewsAPIProvider(g *Gateway) *NewsAPIProvider {
	return &NewsAPIProvider{
		gateway: g,
		baseURL: newsAPIBaseURL,
	}
}

// Name returns the provider name.
func (p *NewsAPIProvider) Name() string {
	return "newsapi"
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// FetchNews returns recent articles matching the query. Without a credential
// the provider skips itself and returns nothing.
func (p *NewsAPIProvider) FetchNews(ctx context.Context, query, ownerID string) ([]models.Document, error) {
	apiKey := p.gateway.apiKey(ctx, common.ServiceNewsAPI, ownerID)
	if apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", "10")

	headers := map[string]string{"X-Api-Key": apiKey}

	var response newsAPIResponse
	requestURL := fmt.Sprintf("%s/v2/everything?%s", p.baseURL, params.Encode())
	if err := p.gateway.doJSON(ctx, p.Name(), ownerID, "GET", requestURL, headers, nil, &response); err != nil {
		return nil, err
	}

	documents := make([]models.Document, 0, len(response.Articles))
	for _, article := range response.Articles {
		content := article.Content
		if content == "" {
			content = article.Description
		}
		documents = append(documents, models.Document{
			Source:      "newsapi",
			Title:       article.Title,
			Summary:     article.Description,
			Content:     content,
			URL:         article.URL,
			PublishedAt: article.PublishedAt,
		})
	}

	p.gateway.logger.Debug().
		Str("query", query).
		Int("articles", len(documents)).
		Msg("NewsAPI fetch completed")

	return documents, nil
}
