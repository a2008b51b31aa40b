package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
	"github.com/calibrae/mercator/internal/services/llm"
)

const opportunityTemperature = 0.3

// OpportunityStage identifies market opportunities from trends and the
// collected corpus.
type OpportunityStage struct {
	provider    interfaces.LLMProvider
	sampleLimit int
	logger      arbor.ILogger
}

func NewOpportunityStage(provider interfaces.LLMProvider, sampleLimit int, logger arbor.ILogger) *OpportunityStage {
	return &OpportunityStage{provider: provider, sampleLimit: sampleLimit, logger: logger}
}

func (s *OpportunityStage) Name() string { return "opportunity_identifier" }

func (s *OpportunityStage) Run(ctx context.Context, state *models.AnalysisState) error {
	s.logger.Info().Str("domain", state.MarketDomain).Msg("Opportunity identification started")

	system := fmt.Sprintf("Identify market opportunities for %s based on trends, news, and competitor data. "+
		"Return JSON array: 'opportunity_name', 'description', 'target_segment', 'competitive_advantage', "+
		"'estimated_potential' (High/Medium/Low), 'timeframe_to_capture'. Min 2-3.", state.MarketDomain)
	human := fmt.Sprintf("Context for %s:\nTrends: %s\nNews/Competitors (sample): {\"news_sample\": %s}",
		state.MarketDomain,
		sampleJSON(state.Trends, s.sampleLimit),
		sampleJSON(state.RawDocuments, s.sampleLimit))

	output, err := completion(ctx, s.provider, s.logger, state, opportunityTemperature, system, human)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Opportunity completion failed, using defaults")
		state.Opportunities = defaultOpportunities()
	} else {
		state.Opportunities = llm.ParseJSONList(s.logger, output, defaultOpportunities())
	}

	writeStageArtifact(s.logger, state, "opportunities.json", "opportunities_json", state.Opportunities)

	s.logger.Info().Int("opportunities", len(state.Opportunities)).Msg("Opportunity identification completed")
	return nil
}
