package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/models"
)

const reportFilename = "market_intelligence_report.md"

// ReportStage assembles the final markdown report from the template and the
// accumulated stage results, then writes a README summarizing the run.
type ReportStage struct {
	converter *ReportConverter
	logger    arbor.ILogger
}

func NewReportStage(converter *ReportConverter, logger arbor.ILogger) *ReportStage {
	return &ReportStage{converter: converter, logger: logger}
}

func (s *ReportStage) Name() string { return "final_report_generator" }

func (s *ReportStage) Run(ctx context.Context, state *models.AnalysisState) error {
	s.logger.Info().Str("state_id", state.ID).Msg("Final report generation started")

	if state.ReportDir == "" {
		s.logger.Warn().Msg("No report directory set, cannot save report")
		return nil
	}

	content := s.assemble(state)

	reportPath := filepath.Join(state.ReportDir, reportFilename)
	if err := os.WriteFile(reportPath, []byte(content), 0644); err != nil {
		s.logger.Error().Err(err).Str("path", reportPath).Msg("Failed to save report")
		return nil
	}
	state.RegisterDownload("final_report", reportPath)

	readmePath := filepath.Join(state.ReportDir, "README.md")
	if err := os.WriteFile(readmePath, []byte(s.readme(state)), 0644); err != nil {
		s.logger.Error().Err(err).Str("path", readmePath).Msg("Failed to save README")
	} else {
		state.RegisterDownload("readme", readmePath)
	}

	if s.converter != nil {
		s.converter.Convert(state, content)
	}

	s.logger.Info().Str("path", reportPath).Msg("Final report generation completed")
	return nil
}

func (s *ReportStage) assemble(state *models.AnalysisState) string {
	content := state.ReportTemplate
	if content == "" {
		content = fmt.Sprintf("# Market Intelligence Report: %s\n\nNo template available.", state.MarketDomain)
	}

	query := state.Query
	if query == "" {
		query = "General Analysis"
	}
	content = strings.ReplaceAll(content, "{{DATE}}", time.Now().Format("January 2, 2006"))
	content = strings.ReplaceAll(content, "{{MARKET_DOMAIN}}", state.MarketDomain)
	content = strings.ReplaceAll(content, "{{QUERY}}", query)

	var b strings.Builder
	b.WriteString(content)

	if len(state.Trends) > 0 {
		b.WriteString("\n## Key Market Trends\n\n")
		for i, trend := range capFive(state.Trends) {
			fmt.Fprintf(&b, "### %d. %s\n", i+1, orDefault(trend.Name, "Unknown Trend"))
			fmt.Fprintf(&b, "**Description:** %s\n\n", orDefault(trend.Description, "N/A"))
			fmt.Fprintf(&b, "**Impact:** %s\n\n", orDefault(trend.EstimatedImpact, "Unknown"))
			fmt.Fprintf(&b, "**Timeframe:** %s\n\n", orDefault(trend.Timeframe, "Unknown"))
			if trend.SupportingEvidence != "" {
				fmt.Fprintf(&b, "**Evidence:** %s\n\n", trend.SupportingEvidence)
			}
			b.WriteString("---\n\n")
		}
	}

	if len(state.Opportunities) > 0 {
		b.WriteString("\n## Market Opportunities\n\n")
		for i, opp := range capFive(state.Opportunities) {
			fmt.Fprintf(&b, "### %d. %s\n", i+1, orDefault(opp.Name, "Unknown Opportunity"))
			fmt.Fprintf(&b, "**Description:** %s\n\n", orDefault(opp.Description, "N/A"))
			fmt.Fprintf(&b, "**Potential:** %s\n\n", orDefault(opp.EstimatedPotential, "Unknown"))
			if opp.TargetSegment != "" {
				fmt.Fprintf(&b, "**Target Segment:** %s\n\n", opp.TargetSegment)
			}
			b.WriteString("---\n\n")
		}
	}

	if len(state.Segments) > 0 {
		b.WriteString("\n## Customer Insights\n\n")
		for i, segment := range capFive(state.Segments) {
			fmt.Fprintf(&b, "### %d. %s\n", i+1, orDefault(segment.Name, "Unknown Segment"))
			fmt.Fprintf(&b, "**Description:** %s\n\n", orDefault(segment.Description, "N/A"))
			fmt.Fprintf(&b, "**Market Share:** %v%%\n\n", segment.Percentage)
			fmt.Fprintf(&b, "**Satisfaction Score:** %v/10\n\n", segment.SatisfactionScore)
			fmt.Fprintf(&b, "**Growth Potential:** %s\n\n", orDefault(segment.GrowthPotential, "Unknown"))
			if len(segment.PainPoints) > 0 {
				b.WriteString("**Key Pain Points:**\n")
				for _, painPoint := range segment.PainPoints {
					fmt.Fprintf(&b, "- %s\n", painPoint)
				}
				b.WriteString("\n")
			}
			b.WriteString("---\n\n")
		}
	}

	if len(state.Strategies) > 0 {
		b.WriteString("\n## Strategic Recommendations\n\n")
		for i, strategy := range capFive(state.Strategies) {
			fmt.Fprintf(&b, "### %d. %s\n", i+1, orDefault(strategy.Title, "Unknown Strategy"))
			fmt.Fprintf(&b, "**Description:** %s\n\n", orDefault(strategy.Description, "N/A"))
			fmt.Fprintf(&b, "**Priority:** %s\n\n", orDefault(strategy.PriorityLevel, "Unknown"))
			if strategy.ExpectedOutcome != "" {
				fmt.Fprintf(&b, "**Expected Outcome:** %s\n\n", strategy.ExpectedOutcome)
			}
			if len(strategy.ImplementationSteps) > 0 {
				b.WriteString("**Implementation Steps:**\n")
				for _, step := range strategy.ImplementationSteps {
					fmt.Fprintf(&b, "- %s\n", step)
				}
				b.WriteString("\n")
			}
			b.WriteString("---\n\n")
		}
	}

	if len(state.ChartPaths) > 0 {
		b.WriteString("\n## Visualizations\n\n")
		for _, chartPath := range state.ChartPaths {
			name := chartTitle(chartPath)
			fmt.Fprintf(&b, "### %s\n", name)
			fmt.Fprintf(&b, "![%s](%s)\n\n", name, filepath.Base(chartPath))
		}
	}

	if state.Answer != "" && state.Question != "" {
		b.WriteString("\n## Analysis Response\n\n")
		fmt.Fprintf(&b, "**Question:** %s\n\n", state.Question)
		fmt.Fprintf(&b, "**Answer:** %s\n\n", state.Answer)
	}

	return b.String()
}

func (s *ReportStage) readme(state *models.AnalysisState) string {
	query := state.Query
	if query == "" {
		query = "General Analysis"
	}
	base := dataFileBase(state.MarketDomain)

	var b strings.Builder
	fmt.Fprintf(&b, "# Market Intelligence Report - %s\n\n", state.MarketDomain)
	fmt.Fprintf(&b, "Generated on: %s\n", time.Now().Format("January 2, 2006"))
	fmt.Fprintf(&b, "Query: %s\n\n", query)
	b.WriteString("## Files in this Report\n\n")
	b.WriteString("- `market_intelligence_report.md` - Complete market intelligence report\n")
	fmt.Fprintf(&b, "- `%s.json` - Raw data sources\n", base)
	fmt.Fprintf(&b, "- `%s.csv` - Raw data in CSV format\n", base)
	b.WriteString("- `market_trends.json` - Identified market trends\n")
	b.WriteString("- `opportunities.json` - Market opportunities\n")
	b.WriteString("- `customer_insights.json` - Customer segment analysis\n")
	b.WriteString("- `strategies.json` - Strategic recommendations\n")
	b.WriteString("\n## Charts Generated\n\n")
	for _, chartPath := range state.ChartPaths {
		fmt.Fprintf(&b, "- `%s` - %s\n", filepath.Base(chartPath), chartTitle(chartPath))
	}
	b.WriteString("\n## Summary\n\n")
	fmt.Fprintf(&b, "- **Trends Identified:** %d\n", len(state.Trends))
	fmt.Fprintf(&b, "- **Opportunities Found:** %d\n", len(state.Opportunities))
	fmt.Fprintf(&b, "- **Customer Segments:** %d\n", len(state.Segments))
	fmt.Fprintf(&b, "- **Strategic Recommendations:** %d\n", len(state.Strategies))
	fmt.Fprintf(&b, "- **Charts Generated:** %d\n\n", len(state.ChartPaths))
	b.WriteString("For detailed analysis, see the complete report in `market_intelligence_report.md`.\n")
	return b.String()
}

// chartTitle turns a chart file path into a display name, e.g.
// "market_trends_impact.png" becomes "Market Trends Impact".
func chartTitle(chartPath string) string {
	name := strings.TrimSuffix(filepath.Base(chartPath), ".png")
	words := strings.Split(name, "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func capFive[T any](items []T) []T {
	if len(items) > 5 {
		return items[:5]
	}
	return items
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
