package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

// queryPrefixPattern matches characters not allowed in report directory
// names.
var queryPrefixPattern = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// reportDirName builds the per-run report directory name: a sanitized query
// prefix plus a timestamp.
func reportDirName(query string, now time.Time) string {
	base := query
	if base == "" {
		base = "general"
	}
	base = strings.ReplaceAll(strings.ToLower(base), " ", "_")
	if len(base) > 20 {
		base = base[:20]
	}
	base = queryPrefixPattern.ReplaceAllString(base, "_")
	return fmt.Sprintf("%s_%s", base, now.Format("20060102_150405"))
}

// dataFileBase returns the basename stem for the raw data artifacts.
func dataFileBase(marketDomain string) string {
	return strings.ReplaceAll(strings.ToLower(marketDomain), " ", "_") + "_data_sources"
}

// CollectStage gathers raw market data from every registered provider. A
// provider failure is logged and skipped; the only fatal condition is being
// unable to create the report directory.
type CollectStage struct {
	gateway    interfaces.DataGateway
	reportsDir string
	logger     arbor.ILogger
}

// NewCollectStage creates the data collection stage.
func NewCollectStage(gateway interfaces.DataGateway, reportsDir string, logger arbor.ILogger) *CollectStage {
	return &CollectStage{
		gateway:    gateway,
		reportsDir: reportsDir,
		logger:     logger,
	}
}

func (s *CollectStage) Name() string { return "market_data_collector" }

func (s *CollectStage) Run(ctx context.Context, state *models.AnalysisState) error {
	s.logger.Info().
		Str("domain", state.MarketDomain).
		Str("query", state.Query).
		Msg("Market data collection started")

	runDir := filepath.Join(s.reportsDir, reportDirName(state.Query, time.Now()))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("cannot create report directory '%s': %w", runDir, err)
	}
	state.ReportDir = runDir

	newsQuery := fmt.Sprintf("%s %s news trends developments emerging technologies", state.Query, state.MarketDomain)
	competitorQuery := fmt.Sprintf("%s %s competitor landscape key players market share", state.Query, state.MarketDomain)

	// Collect candidate URLs from every search provider for both queries.
	seen := make(map[string]bool)
	var urls []string
	for _, provider := range s.gateway.SearchProviders() {
		for _, query := range []string{newsQuery, competitorQuery} {
			found, err := provider.Search(ctx, query, state.UserID)
			if err != nil {
				s.logger.Warn().Err(err).Str("provider", provider.Name()).Msg("Search failed, continuing")
				continue
			}
			for _, u := range found {
				if !seen[u] {
					seen[u] = true
					urls = append(urls, u)
				}
			}
		}
	}
	s.logger.Info().Int("urls", len(urls)).Msg("Unique URLs collected from search providers")

	searchTerm := state.QueryOrDomain()

	var documents []models.Document
	for _, provider := range s.gateway.NewsProviders() {
		articles, err := provider.FetchNews(ctx, searchTerm, state.UserID)
		if err != nil {
			s.logger.Warn().Err(err).Str("provider", provider.Name()).Msg("News fetch failed, continuing")
			continue
		}
		documents = append(documents, articles...)
	}

	state.FinancialData = []models.FinancialRecord{}
	for _, provider := range s.gateway.FinancialProviders() {
		records, err := provider.FetchFinancial(ctx, searchTerm, state.UserID)
		if err != nil {
			s.logger.Warn().Err(err).Str("provider", provider.Name()).Msg("Financial fetch failed, continuing")
			continue
		}
		state.FinancialData = append(state.FinancialData, records...)
	}
	s.logger.Info().Int("records", len(state.FinancialData)).Msg("Financial data collected")

	// Fetch pages for URLs not already covered by a direct article.
	direct := make(map[string]bool, len(documents))
	for _, doc := range documents {
		direct[doc.URL] = true
	}
	for _, u := range urls {
		if direct[u] {
			s.logger.Debug().Str("url", u).Msg("Skipping URL fetched directly")
			continue
		}
		doc, err := s.gateway.PageFetcher().FetchPage(ctx, u)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", u).Msg("Page fetch failed, continuing")
			continue
		}
		documents = append(documents, *doc)
	}

	if documents == nil {
		documents = []models.Document{}
	}
	// Competitor documents share the collected corpus; the competitor search
	// query shapes which URLs enter it.
	state.RawDocuments = documents
	state.CompetitorDocuments = documents

	s.writeArtifacts(state, documents)

	s.logger.Info().Int("documents", len(documents)).Msg("Market data collection completed")
	return nil
}

// writeArtifacts saves the collected corpus as JSON and CSV download
// artifacts. Failures are logged and skipped.
func (s *CollectStage) writeArtifacts(state *models.AnalysisState, documents []models.Document) {
	base := dataFileBase(state.MarketDomain)

	jsonPath := filepath.Join(state.ReportDir, base+".json")
	if data, err := json.MarshalIndent(documents, "", "    "); err != nil {
		s.logger.Error().Err(err).Msg("Failed to serialize data sources")
	} else if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		s.logger.Error().Err(err).Str("path", jsonPath).Msg("Failed to save data sources JSON")
	} else {
		state.RegisterDownload("raw_data_json", jsonPath)
	}

	csvPath := filepath.Join(state.ReportDir, base+".csv")
	file, err := os.Create(csvPath)
	if err != nil {
		s.logger.Error().Err(err).Str("path", csvPath).Msg("Failed to save data sources CSV")
		return
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	_ = writer.Write([]string{"title", "summary", "url", "source", "full_content"})
	for _, doc := range documents {
		_ = writer.Write([]string{doc.Title, doc.Summary, doc.URL, doc.Source, doc.Content})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		s.logger.Error().Err(err).Str("path", csvPath).Msg("Failed to write data sources CSV")
		return
	}
	state.RegisterDownload("raw_data_csv", csvPath)
}
