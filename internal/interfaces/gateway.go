package interfaces

import (
	"context"

	"github.com/calibrae/mercator/internal/models"
)

// SearchProvider returns result URLs for a web search query.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query, ownerID string) ([]string, error)
}

// NewsProvider returns articles matching a query directly, without a
// separate page fetch.
type NewsProvider interface {
	Name() string
	FetchNews(ctx context.Context, query, ownerID string) ([]models.Document, error)
}

// FinancialProvider returns financial records for a query. Providers extract
// a ticker symbol from the query and return nothing when none is found.
type FinancialProvider interface {
	Name() string
	FetchFinancial(ctx context.Context, query, ownerID string) ([]models.FinancialRecord, error)
}

// PageFetcher retrieves a URL and extracts its title and cleaned body text.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (*models.Document, error)
}

// DataGateway is the uniform interface over all external data providers used
// by the data collection stage.
type DataGateway interface {
	SearchProviders() []SearchProvider
	NewsProviders() []NewsProvider
	FinancialProviders() []FinancialProvider
	PageFetcher() PageFetcher
}
