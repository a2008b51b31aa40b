package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
	"github.com/calibrae/mercator/internal/services/llm"
)

const trendTemperature = 0.2

// TrendStage derives market trends from the collected corpus.
type TrendStage struct {
	provider    interfaces.LLMProvider
	sampleLimit int
	logger      arbor.ILogger
}

func NewTrendStage(provider interfaces.LLMProvider, sampleLimit int, logger arbor.ILogger) *TrendStage {
	return &TrendStage{provider: provider, sampleLimit: sampleLimit, logger: logger}
}

func (s *TrendStage) Name() string { return "trend_analyzer" }

func (s *TrendStage) Run(ctx context.Context, state *models.AnalysisState) error {
	s.logger.Info().Str("domain", state.MarketDomain).Msg("Trend analysis started")

	query := state.Query
	if query == "" {
		query = "general"
	}
	system := fmt.Sprintf("You are an expert market analyst for %s. Identify key trends from the provided data. "+
		"Return a JSON array of objects, each with 'trend_name' (string), 'description' (string), "+
		"'supporting_evidence' (string, cite sources if possible), 'estimated_impact' ('High'/'Medium'/'Low'), "+
		"'timeframe' ('Short-term'/'Medium-term'/'Long-term'). Aim for 3-5 trends.", state.MarketDomain)
	human := fmt.Sprintf("Data for %s (Query: %s):\n\nNews/Competitor Info (sample):\n{\"news_sample\": %s, \"competitors_sample\": %s}",
		state.MarketDomain, query,
		sampleJSON(state.RawDocuments, s.sampleLimit),
		sampleJSON(state.CompetitorDocuments, s.sampleLimit))

	output, err := completion(ctx, s.provider, s.logger, state, trendTemperature, system, human)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Trend analysis completion failed, using defaults")
		state.Trends = defaultTrends()
	} else {
		state.Trends = llm.ParseJSONList(s.logger, output, defaultTrends())
	}

	writeStageArtifact(s.logger, state, "market_trends.json", "trends_json", state.Trends)

	s.logger.Info().Int("trends", len(state.Trends)).Msg("Trend analysis completed")
	return nil
}
