// Package charts renders PNG visualizations of pipeline outputs.
package charts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/calibrae/mercator/internal/models"
)

// maxItems caps the number of entries per chart so labels stay legible.
const maxItems = 5

// Renderer writes chart PNGs for a completed analysis. Each chart is
// rendered independently: one failure is logged and skipped, never fatal.
type Renderer struct {
	logger arbor.ILogger
}

// NewRenderer creates a chart renderer.
func NewRenderer(logger arbor.ILogger) *Renderer {
	return &Renderer{logger: logger}
}

// Render writes one chart per non-empty collection into dir and returns the
// filenames written.
func (r *Renderer) Render(dir string, state *models.AnalysisState) []string {
	var written []string

	renderers := []struct {
		name string
		fn   func(path string) error
		skip bool
	}{
		{"market_trends_impact.png", func(p string) error { return r.renderTrends(p, state.Trends) }, len(state.Trends) == 0},
		{"opportunities_distribution.png", func(p string) error { return r.renderOpportunities(p, state.Opportunities) }, len(state.Opportunities) == 0},
		{"customer_insights.png", func(p string) error { return r.renderSegments(p, state.Segments) }, len(state.Segments) == 0},
		{"strategic_recommendations.png", func(p string) error { return r.renderStrategies(p, state.Strategies) }, len(state.Strategies) == 0},
	}

	for _, c := range renderers {
		if c.skip {
			continue
		}
		path := filepath.Join(dir, c.name)
		if err := c.fn(path); err != nil {
			r.logger.Warn().Err(err).Str("chart", c.name).Msg("Chart rendering failed, skipping")
			continue
		}
		written = append(written, c.name)
	}

	r.logger.Info().Int("charts", len(written)).Msg("Chart rendering completed")
	return written
}

// scoreLevel maps a qualitative impact or potential label to a numeric bar
// height.
func scoreLevel(level string) float64 {
	switch level {
	case "High", "Very High":
		return 3
	case "Medium":
		return 2
	default:
		return 1
	}
}

func truncateLabel(label string, limit int) string {
	runes := []rune(label)
	if len(runes) <= limit {
		return label
	}
	return string(runes[:limit]) + "..."
}

func (r *Renderer) renderTrends(path string, trends []models.Trend) error {
	values := make([]chart.Value, 0, maxItems)
	for i, trend := range trends {
		if i >= maxItems {
			break
		}
		values = append(values, chart.Value{
			Label: truncateLabel(trend.Name, 18),
			Value: scoreLevel(trend.EstimatedImpact),
		})
	}

	graph := chart.BarChart{
		Title:    "Market Trends by Estimated Impact",
		Width:    900,
		Height:   500,
		BarWidth: 80,
		Bars:     values,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 3.5},
		},
	}

	return writePNG(path, graph.Render)
}

func (r *Renderer) renderOpportunities(path string, opportunities []models.Opportunity) error {
	values := make([]chart.Value, 0, maxItems)
	for i, opp := range opportunities {
		if i >= maxItems {
			break
		}
		values = append(values, chart.Value{
			Label: truncateLabel(opp.Name, 18),
			Value: scoreLevel(opp.EstimatedPotential),
		})
	}

	graph := chart.PieChart{
		Title:  "Opportunities by Estimated Potential",
		Width:  700,
		Height: 700,
		Values: values,
	}

	return writePNG(path, graph.Render)
}

func (r *Renderer) renderSegments(path string, segments []models.CustomerSegment) error {
	values := make([]chart.Value, 0, maxItems)
	for i, segment := range segments {
		if i >= maxItems {
			break
		}
		values = append(values, chart.Value{
			Label: truncateLabel(segment.Name, 18),
			Value: segment.Percentage,
		})
	}

	graph := chart.PieChart{
		Title:  "Customer Segments by Market Share",
		Width:  700,
		Height: 700,
		Values: values,
	}

	return writePNG(path, graph.Render)
}

func (r *Renderer) renderStrategies(path string, strategies []models.Strategy) error {
	values := make([]chart.Value, 0, maxItems)
	for i, strategy := range strategies {
		if i >= maxItems {
			break
		}
		values = append(values, chart.Value{
			Label: truncateLabel(strategy.Title, 18),
			Value: scoreLevel(strategy.PriorityLevel),
		})
	}

	graph := chart.BarChart{
		Title:    "Strategies by Priority",
		Width:    900,
		Height:   500,
		BarWidth: 80,
		Bars:     values,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 3.5},
		},
	}

	return writePNG(path, graph.Render)
}

func writePNG(path string, render func(chart.RendererProvider, io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer file.Close()

	if err := render(chart.PNG, file); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
