package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/calibrae/mercator/internal/models"
)

const summaryLength = 1000

// HTMLPageFetcher retrieves a URL and extracts its title and cleaned body
// text as markdown. Fetch failures degrade to a placeholder document so one
// dead link never aborts a collection run.
type HTMLPageFetcher struct {
	gateway *Gateway
}

// NewPageFetcher creates an HTML page fetcher.
func NewPageFetcher(g *Gateway) *HTMLPageFetcher {
	return &HTMLPageFetcher{gateway: g}
}

// FetchPage retrieves and normalizes one page. The returned document always
// has a title and source; on failure the summary describes the error and the
// content is left empty.
func (f *HTMLPageFetcher) FetchPage(ctx context.Context, pageURL string) (*models.Document, error) {
	doc, err := f.fetch(ctx, pageURL)
	if err != nil {
		f.gateway.logger.Warn().Err(err).Str("url", pageURL).Msg("Page fetch failed, using placeholder")
		return &models.Document{
			Source:  "web",
			Title:   "Failed to Load: " + displayName(pageURL),
			Summary: fmt.Sprintf("Could not retrieve content: %v", err),
			URL:     pageURL,
		}, nil
	}
	return doc, nil
}

func (f *HTMLPageFetcher) fetch(ctx context.Context, pageURL string) (*models.Document, error) {
	if err := f.gateway.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.gateway.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.gateway.config.UserAgent)
	}

	resp, err := f.gateway.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
			Endpoint:   pageURL,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	gqDoc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(gqDoc.Find("title").First().Text())
	if title == "" {
		title = displayName(pageURL)
	}

	// Strip non-content elements before conversion
	gqDoc.Find("script, style, nav, footer, aside").Remove()

	bodyHTML, err := gqDoc.Find("body").Html()
	if err != nil || strings.TrimSpace(bodyHTML) == "" {
		bodyHTML = string(body)
	}

	converter := md.NewConverter(pageURL, true, nil)
	markdown, err := converter.ConvertString(bodyHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	markdown = strings.TrimSpace(markdown)

	summary := markdown
	if runes := []rune(summary); len(runes) > summaryLength {
		summary = string(runes[:summaryLength])
	}

	f.gateway.logger.Debug().
		Str("url", pageURL).
		Str("title", title).
		Int("content_length", len(markdown)).
		Msg("Page fetched")

	return &models.Document{
		Source:  "web",
		Title:   title,
		Summary: summary,
		Content: markdown,
		URL:     pageURL,
	}, nil
}

// displayName returns the hostname of a URL, or the raw string when it does
// not parse.
func displayName(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return pageURL
	}
	return parsed.Host
}
