package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
	"github.com/calibrae/mercator/internal/services/llm"
)

const strategyTemperature = 0.3

// StrategyStage recommends strategies addressing the identified
// opportunities.
type StrategyStage struct {
	provider    interfaces.LLMProvider
	sampleLimit int
	logger      arbor.ILogger
}

func NewStrategyStage(provider interfaces.LLMProvider, sampleLimit int, logger arbor.ILogger) *StrategyStage {
	return &StrategyStage{provider: provider, sampleLimit: sampleLimit, logger: logger}
}

func (s *StrategyStage) Name() string { return "strategy_recommender" }

func (s *StrategyStage) Run(ctx context.Context, state *models.AnalysisState) error {
	s.logger.Info().Str("domain", state.MarketDomain).Msg("Strategy recommendation started")

	system := fmt.Sprintf("Recommend strategies for %s based on opportunities, trends, and competitor data. "+
		"Return JSON array: 'strategy_title', 'description', 'implementation_steps' (list), 'expected_outcome', "+
		"'resource_requirements', 'priority_level', 'success_metrics'. Min 2-3.", state.MarketDomain)
	human := fmt.Sprintf("Context for %s:\nOpportunities: %s\nTrends: %s\nCompetitors (sample): {\"competitors_sample\": %s}",
		state.MarketDomain,
		sampleJSON(state.Opportunities, s.sampleLimit),
		sampleJSON(state.Trends, s.sampleLimit),
		sampleJSON(state.CompetitorDocuments, s.sampleLimit))

	output, err := completion(ctx, s.provider, s.logger, state, strategyTemperature, system, human)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Strategy completion failed, using defaults")
		state.Strategies = defaultStrategies()
	} else {
		state.Strategies = llm.ParseJSONList(s.logger, output, defaultStrategies())
	}

	writeStageArtifact(s.logger, state, "strategies.json", "strategies_json", state.Strategies)

	s.logger.Info().Int("strategies", len(state.Strategies)).Msg("Strategy recommendation completed")
	return nil
}
