package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// marketDomainPattern restricts domains to letters, numbers, spaces and hyphens.
var marketDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9\s-]+$`)

// AnalysisState is the unit of work threaded through the pipeline. Each stage
// reads the fields produced upstream and writes only the fields it owns. The
// state is persisted (upsert by ID) after every stage so a crashed or retried
// run leaves the last completed stage's output durably visible.
type AnalysisState struct {
	ID     string `json:"id"`
	UserID string `json:"user_id,omitempty"`

	MarketDomain string `json:"market_domain"`
	Query        string `json:"query,omitempty"`
	Question     string `json:"question,omitempty"`

	// Collections populated by the data collection stage
	RawDocuments        []Document        `json:"raw_documents"`
	CompetitorDocuments []Document        `json:"competitor_documents"`
	FinancialData       []FinancialRecord `json:"financial_data"`

	// Collections populated by the analysis stages
	Trends        []Trend           `json:"trends"`
	Opportunities []Opportunity     `json:"opportunities"`
	Strategies    []Strategy        `json:"strategies"`
	Segments      []CustomerSegment `json:"segments"`

	// Progressively populated fields
	ReportTemplate string `json:"report_template,omitempty"`
	Answer         string `json:"answer,omitempty"`
	ReportDir      string `json:"report_dir,omitempty"`
	IndexPath      string `json:"index_path,omitempty"`

	// Artifact registry
	ChartPaths    []string          `json:"chart_paths"`
	DownloadFiles map[string]string `json:"download_files"`

	CreatedAt time.Time `json:"created_at"`
}

// NewAnalysisState creates a validated state with defaults for all collections.
// The identifier is assigned once and never changes.
func NewAnalysisState(id, marketDomain, query, question, userID string) (*AnalysisState, error) {
	s := &AnalysisState{
		ID:                  id,
		UserID:              userID,
		Question:            strings.TrimSpace(question),
		RawDocuments:        []Document{},
		CompetitorDocuments: []Document{},
		FinancialData:       []FinancialRecord{},
		Trends:              []Trend{},
		Opportunities:       []Opportunity{},
		Strategies:          []Strategy{},
		Segments:            []CustomerSegment{},
		ChartPaths:          []string{},
		DownloadFiles:       map[string]string{},
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.SetMarketDomain(marketDomain); err != nil {
		return nil, err
	}
	if err := s.SetQuery(query); err != nil {
		return nil, err
	}
	return s, nil
}

// SetMarketDomain validates and assigns the market domain.
func (s *AnalysisState) SetMarketDomain(domain string) error {
	if err := ValidateMarketDomain(domain); err != nil {
		return err
	}
	s.MarketDomain = strings.TrimSpace(domain)
	return nil
}

// SetQuery validates and assigns the free-text query.
func (s *AnalysisState) SetQuery(query string) error {
	if err := ValidateQuery(query); err != nil {
		return err
	}
	s.Query = strings.TrimSpace(query)
	return nil
}

// QueryOrDomain returns the query when set, otherwise the market domain.
// Stages that address external providers by a single search term use this.
func (s *AnalysisState) QueryOrDomain() string {
	if s.Query != "" {
		return s.Query
	}
	return s.MarketDomain
}

// RegisterDownload records a downloadable artifact under a logical category.
func (s *AnalysisState) RegisterDownload(category, path string) {
	if s.DownloadFiles == nil {
		s.DownloadFiles = map[string]string{}
	}
	s.DownloadFiles[category] = path
}

// ValidateMarketDomain checks the market domain is non-empty and contains only
// letters, numbers, spaces, or hyphens.
func ValidateMarketDomain(domain string) error {
	trimmed := strings.TrimSpace(domain)
	if trimmed == "" {
		return fmt.Errorf("market domain cannot be empty")
	}
	if !marketDomainPattern.MatchString(trimmed) {
		return fmt.Errorf("market domain must contain only letters, numbers, spaces, or hyphens")
	}
	return nil
}

// ValidateQuery checks the query is at least 3 characters when provided.
// An empty query is valid.
func ValidateQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed != "" && len(trimmed) < 3 {
		return fmt.Errorf("query must be at least 3 characters long if provided")
	}
	return nil
}

// StateSummary is the listing row returned for per-owner state queries.
type StateSummary struct {
	StateID      string    `json:"state_id"`
	MarketDomain string    `json:"market_domain"`
	Query        string    `json:"query"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}
