package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

const templateTemperature = 0.1

// TemplateStage generates the markdown report skeleton the assembler fills
// in.
type TemplateStage struct {
	provider interfaces.LLMProvider
	logger   arbor.ILogger
}

func NewTemplateStage(provider interfaces.LLMProvider, logger arbor.ILogger) *TemplateStage {
	return &TemplateStage{provider: provider, logger: logger}
}

func (s *TemplateStage) Name() string { return "report_template_generator" }

func (s *TemplateStage) Run(ctx context.Context, state *models.AnalysisState) error {
	s.logger.Info().Str("domain", state.MarketDomain).Msg("Report template generation started")

	query := state.Query
	if query == "" {
		query = "General Overview"
	}

	system := fmt.Sprintf("Create a markdown report template for %s on query '%s'. "+
		"Sections: Title, Date, Prepared By, Executive Summary, Key Trends (name, desc, impact, timeframe), "+
		"Opportunities (name, desc, potential), Recommendations (title, desc, priority), Competitive Landscape, "+
		"Visualizations (placeholders like ![Chart Description](filename.png)), Appendix. No ```markdown``` fences.",
		state.MarketDomain, query)
	human := fmt.Sprintf("Generate template for market: %s, query: %s", state.MarketDomain, query)

	output, err := completion(ctx, s.provider, s.logger, state, templateTemperature, system, human)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Template completion failed, using default")
		state.ReportTemplate = defaultTemplate(state.MarketDomain)
		return nil
	}

	// Models sometimes wrap the whole response in markdown fences.
	cleaned := strings.TrimSpace(output)
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```markdown"))
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	if cleaned == "" {
		cleaned = defaultTemplate(state.MarketDomain)
	}
	state.ReportTemplate = cleaned

	s.logger.Info().Int("length", len(state.ReportTemplate)).Msg("Report template generation completed")
	return nil
}
