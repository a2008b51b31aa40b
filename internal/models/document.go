package models

// Document represents a normalized article or fetched page from any source.
// Content is markdown converted from the source HTML where applicable.
type Document struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Content     string `json:"full_content"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Text returns the best available body text for indexing: full content when
// present, otherwise the summary.
func (d *Document) Text() string {
	if d.Content != "" {
		return d.Content
	}
	return d.Summary
}

// FinancialRecord represents one datum returned by a financial backend.
type FinancialRecord struct {
	Source string         `json:"source"`
	Type   string         `json:"type"` // company_profile, stock_quote, daily_time_series_latest, company_overview
	Symbol string         `json:"symbol"`
	Data   map[string]any `json:"data"`
}
