package pipeline

import (
	"context"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/models"
)

// ChartRenderer writes chart images into a directory and returns the
// basenames of the files it produced.
type ChartRenderer interface {
	Render(dir string, state *models.AnalysisState) []string
}

// ChartStage renders PNG charts for the report. Rendering failures are
// logged inside the renderer; the stage records whichever files were
// written.
type ChartStage struct {
	renderer ChartRenderer
	logger   arbor.ILogger
}

func NewChartStage(renderer ChartRenderer, logger arbor.ILogger) *ChartStage {
	return &ChartStage{renderer: renderer, logger: logger}
}

func (s *ChartStage) Name() string { return "generate_charts" }

func (s *ChartStage) Run(ctx context.Context, state *models.AnalysisState) error {
	s.logger.Info().Str("state_id", state.ID).Msg("Chart generation started")

	if state.ReportDir == "" {
		s.logger.Warn().Msg("No report directory set, cannot save charts")
		return nil
	}

	names := s.renderer.Render(state.ReportDir, state)
	for _, name := range names {
		state.ChartPaths = append(state.ChartPaths, filepath.Join(state.ReportDir, name))
	}

	s.logger.Info().Int("charts", len(names)).Msg("Chart generation completed")
	return nil
}
