package gateway

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/models"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageProvider returns daily time series and company overviews from
// Alpha Vantage.
type AlphaVantageProvider struct {
	gateway *Gateway
	baseURL string
}

// NewAlphaVantageProvider creates an Alpha Vantage provider.
func NewAlphaVantageProvider(g *Gateway) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		gateway: g,
		baseURL: alphaVantageBaseURL,
	}
}

// Name returns the provider name.
func (p *AlphaVantageProvider) Name() string {
	return "alphavantage"
}

// FetchFinancial returns the latest daily bar and the company overview for
// the first ticker-like token in the query. Queries without a symbol, or a
// missing credential, return nothing.
func (p *AlphaVantageProvider) FetchFinancial(ctx context.Context, query, ownerID string) ([]models.FinancialRecord, error) {
	symbol := extractSymbol(query)
	if symbol == "" {
		return nil, nil
	}

	apiKey := p.gateway.apiKey(ctx, common.ServiceAlphaVantage, ownerID)
	if apiKey == "" {
		return nil, nil
	}

	var records []models.FinancialRecord

	if record := p.fetchDailySeries(ctx, symbol, apiKey, ownerID); record != nil {
		records = append(records, *record)
	}
	if record := p.fetchOverview(ctx, symbol, apiKey, ownerID); record != nil {
		records = append(records, *record)
	}

	p.gateway.logger.Debug().
		Str("symbol", symbol).
		Int("records", len(records)).
		Msg("Alpha Vantage fetch completed")

	return records, nil
}

func (p *AlphaVantageProvider) fetchDailySeries(ctx context.Context, symbol, apiKey, ownerID string) *models.FinancialRecord {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("apikey", apiKey)

	var response map[string]any
	requestURL := fmt.Sprintf("%s/query?%s", p.baseURL, params.Encode())
	if err := p.gateway.doJSON(ctx, p.Name(), ownerID, "GET", requestURL, nil, nil, &response); err != nil {
		p.gateway.logger.Warn().Err(err).Str("symbol", symbol).Msg("Alpha Vantage daily series fetch failed")
		return nil
	}

	series, ok := response["Time Series (Daily)"].(map[string]any)
	if !ok || len(series) == 0 {
		return nil
	}

	// Keys are dates; the lexicographically greatest is the most recent.
	dates := make([]string, 0, len(series))
	for date := range series {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	latest := dates[len(dates)-1]

	bar, ok := series[latest].(map[string]any)
	if !ok {
		return nil
	}
	bar["date"] = latest

	return &models.FinancialRecord{
		Source: "alphavantage",
		Type:   "daily_time_series_latest",
		Symbol: symbol,
		Data:   bar,
	}
}

func (p *AlphaVantageProvider) fetchOverview(ctx context.Context, symbol, apiKey, ownerID string) *models.FinancialRecord {
	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", symbol)
	params.Set("apikey", apiKey)

	var response map[string]any
	requestURL := fmt.Sprintf("%s/query?%s", p.baseURL, params.Encode())
	if err := p.gateway.doJSON(ctx, p.Name(), ownerID, "GET", requestURL, nil, nil, &response); err != nil {
		p.gateway.logger.Warn().Err(err).Str("symbol", symbol).Msg("Alpha Vantage overview fetch failed")
		return nil
	}

	// An empty object or an error note means no overview is available.
	if len(response) == 0 || response["Symbol"] == nil {
		return nil
	}

	return &models.FinancialRecord{
		Source: "alphavantage",
		Type:   "company_overview",
		Symbol: symbol,
		Data:   response,
	}
}
