package gateway

import (
	"context"
	"fmt"
	"net/url"

	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/models"
)

const fmpBaseURL = "https://financialmodelingprep.com"

// FMPProvider returns company profiles and quotes from Financial Modeling
// Prep.
type FMPProvider struct {
	gateway *Gateway
	baseURL string
}

// NewFMPProvider creates a Financial Modeling Prep provider.
func NewFMPProvider(g *Gateway) *FMPProvider {
	return &FMPProvider{
		gateway: g,
		baseURL: fmpBaseURL,
	}
}

// Name returns the provider name.
func (p *FMPProvider) Name() string {
	return "fmp"
}

// FetchFinancial returns the company profile and stock quote for the first
// ticker-like token in the query. Queries without a symbol, or a missing
// credential, return nothing.
func (p *FMPProvider) FetchFinancial(ctx context.Context, query, ownerID string) ([]models.FinancialRecord, error) {
	symbol := extractSymbol(query)
	if symbol == "" {
		return nil, nil
	}

	apiKey := p.gateway.apiKey(ctx, common.ServiceFMP, ownerID)
	if apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("apikey", apiKey)

	var records []models.FinancialRecord

	var profiles []map[string]any
	profileURL := fmt.Sprintf("%s/api/v3/profile/%s?%s", p.baseURL, url.PathEscape(symbol), params.Encode())
	if err := p.gateway.doJSON(ctx, p.Name(), ownerID, "GET", profileURL, nil, nil, &profiles); err != nil {
		p.gateway.logger.Warn().Err(err).Str("symbol", symbol).Msg("FMP profile fetch failed")
	} else if len(profiles) > 0 {
		records = append(records, models.FinancialRecord{
			Source: "fmp",
			Type:   "company_profile",
			Symbol: symbol,
			Data:   profiles[0],
		})
	}

	var quotes []map[string]any
	quoteURL := fmt.Sprintf("%s/api/v3/quote/%s?%s", p.baseURL, url.PathEscape(symbol), params.Encode())
	if err := p.gateway.doJSON(ctx, p.Name(), ownerID, "GET", quoteURL, nil, nil, &quotes); err != nil {
		p.gateway.logger.Warn().Err(err).Str("symbol", symbol).Msg("FMP quote fetch failed")
	} else if len(quotes) > 0 {
		records = append(records, models.FinancialRecord{
			Source: "fmp",
			Type:   "stock_quote",
			Symbol: symbol,
			Data:   quotes[0],
		})
	}

	p.gateway.logger.Debug().
		Str("symbol", symbol).
		Int("records", len(records)).
		Msg("FMP fetch completed")

	return records, nil
}
