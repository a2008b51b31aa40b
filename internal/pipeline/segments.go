package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
	"github.com/calibrae/mercator/internal/services/llm"
)

const segmentTemperature = 0.3

// SegmentStage identifies customer segments and records them both on the
// state and in segment storage for the insights API.
type SegmentStage struct {
	provider    interfaces.LLMProvider
	segments    interfaces.SegmentStorage
	sampleLimit int
	logger      arbor.ILogger
}

func NewSegmentStage(provider interfaces.LLMProvider, segments interfaces.SegmentStorage, sampleLimit int, logger arbor.ILogger) *SegmentStage {
	return &SegmentStage{provider: provider, segments: segments, sampleLimit: sampleLimit, logger: logger}
}

func (s *SegmentStage) Name() string { return "customer_insights_generator" }

func (s *SegmentStage) Run(ctx context.Context, state *models.AnalysisState) error {
	s.logger.Info().Str("domain", state.MarketDomain).Msg("Customer insights generation started")

	system := fmt.Sprintf("You are a customer insights expert for %s. Based on the provided market data, "+
		"identify key customer segments and their characteristics. Return a JSON array of objects, each with "+
		"'segment_name', 'description', 'percentage' (numeric), 'key_characteristics' (array), 'pain_points' (array), "+
		"'growth_potential' (string), 'satisfaction_score' (numeric 1-10), 'retention_rate' (numeric percentage), "+
		"'acquisition_cost' (string), 'lifetime_value' (string). Aim for 3-5 segments.", state.MarketDomain)
	human := fmt.Sprintf("Market data for %s:\nOpportunities: %s\nTrends: %s\nCompetitors: %s",
		state.MarketDomain,
		sampleJSON(state.Opportunities, s.sampleLimit),
		sampleJSON(state.Trends, s.sampleLimit),
		sampleJSON(state.CompetitorDocuments, s.sampleLimit))

	output, err := completion(ctx, s.provider, s.logger, state, segmentTemperature, system, human)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Customer insights completion failed, using defaults")
		state.Segments = defaultSegments()
	} else {
		state.Segments = llm.ParseJSONList(s.logger, output, defaultSegments())
	}

	writeStageArtifact(s.logger, state, "customer_insights.json", "customer_insights_json", state.Segments)

	if s.segments != nil {
		if err := s.segments.SaveSegments(ctx, state.ID, state.Segments); err != nil {
			s.logger.Error().Err(err).Str("state_id", state.ID).Msg("Failed to persist customer segments")
		}
	}

	s.logger.Info().Int("segments", len(state.Segments)).Msg("Customer insights generation completed")
	return nil
}
