package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

// Orchestrator runs the analysis stages strictly in order and persists the
// state after every stage. A stage error aborts the run and produces an
// error report; state save failures are logged and the run continues.
type Orchestrator struct {
	stages     []Stage
	states     interfaces.StateStorage
	reportsDir string
	logger     arbor.ILogger
}

// NewOrchestrator assembles the analysis workflow in execution order.
func NewOrchestrator(config *common.Config, provider interfaces.LLMProvider, gateway interfaces.DataGateway, storage interfaces.StorageManager, converter *ReportConverter, renderer ChartRenderer, logger arbor.ILogger) *Orchestrator {
	p := &config.Pipeline
	return &Orchestrator{
		stages: []Stage{
			NewCollectStage(gateway, config.Reports.Dir, logger),
			NewTrendStage(provider, p.SampleLimit, logger),
			NewOpportunityStage(provider, p.SampleLimit, logger),
			NewStrategyStage(provider, p.SampleLimit, logger),
			NewSegmentStage(provider, storage.SegmentStorage(), p.SampleLimit, logger),
			NewTemplateStage(provider, logger),
			NewVectorStage(provider, p.ChunkSize, p.ChunkOverlap, logger),
			NewQuestionStage(provider, p.TopK, logger),
			NewChartStage(renderer, logger),
			NewReportStage(converter, logger),
		},
		states:     storage.StateStorage(),
		reportsDir: config.Reports.Dir,
		logger:     logger,
	}
}

// Run executes the full analysis for one request. The returned result is
// always non-nil; Success is false only when state creation or a stage
// failed outright.
func (o *Orchestrator) Run(ctx context.Context, query, marketDomain, question, userID string) *models.PipelineResult {
	o.logger.Info().
		Str("query", query).
		Str("domain", marketDomain).
		Str("user_id", userID).
		Msg("Analysis run started")

	state, err := models.NewAnalysisState(common.NewStateID(), marketDomain, query, question, userID)
	if err != nil {
		o.logger.Error().Err(err).Msg("Invalid analysis request")
		return o.failureResult(common.NewStateID(), query, marketDomain, question, err)
	}

	for _, stage := range o.stages {
		if err := ctx.Err(); err != nil {
			o.logger.Warn().Err(err).Str("stage", stage.Name()).Msg("Run cancelled")
			return o.failureResult(state.ID, query, marketDomain, question, err)
		}

		o.logger.Info().Str("stage", stage.Name()).Str("state_id", state.ID).Msg("Stage started")
		if err := stage.Run(ctx, state); err != nil {
			o.logger.Error().Err(err).Str("stage", stage.Name()).Str("state_id", state.ID).Msg("Stage failed")
			o.saveState(ctx, state)
			return o.failureResult(state.ID, query, marketDomain, question, fmt.Errorf("stage %s: %w", stage.Name(), err))
		}
		o.saveState(ctx, state)
	}

	o.logger.Info().Str("state_id", state.ID).Msg("Analysis run completed")
	return o.successResult(state)
}

func (o *Orchestrator) saveState(ctx context.Context, state *models.AnalysisState) {
	if err := o.states.SaveState(ctx, state); err != nil {
		o.logger.Error().Err(err).Str("state_id", state.ID).Msg("Failed to persist state")
	}
}

func (o *Orchestrator) successResult(state *models.AnalysisState) *models.PipelineResult {
	chartNames := make([]string, 0, len(state.ChartPaths))
	for _, path := range state.ChartPaths {
		chartNames = append(chartNames, filepath.Base(path))
	}
	base := dataFileBase(state.MarketDomain)

	result := &models.PipelineResult{
		StateID:        state.ID,
		Success:        true,
		ReportDir:      state.ReportDir,
		ReportFilename: reportFilename,
		ChartFilenames: chartNames,
		DataJSONName:   base + ".json",
		DataCSVName:    base + ".csv",
		ReadmeFilename: "README.md",
		Answer:         state.Answer,
		DownloadFiles:  state.DownloadFiles,
	}
	if state.IndexPath != "" {
		result.IndexDirname = filepath.Base(state.IndexPath)
	}
	return result
}

// failureResult writes an error report directory so failed runs leave an
// inspectable artifact, then returns the failed result.
func (o *Orchestrator) failureResult(stateID, query, marketDomain, question string, runErr error) *models.PipelineResult {
	result := &models.PipelineResult{
		StateID:        stateID,
		Success:        false,
		ChartFilenames: []string{},
		Error:          runErr.Error(),
	}

	name := "ERROR_REPORT_" + common.ShortID(stateID)
	dir := filepath.Join(o.reportsDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		o.logger.Error().Err(err).Str("dir", dir).Msg("Failed to create error report directory")
		return result
	}

	if question == "" {
		question = "N/A"
	}
	content := fmt.Sprintf(`# Market Intelligence - Error Report

**Error ID:** %s
**Timestamp:** %s
**Query:** %s
**Market Domain:** %s
**Question:** %s

## Error Details

`+"```\n%v\n```", stateID, time.Now().Format(time.RFC3339), query, marketDomain, question, runErr)

	path := filepath.Join(dir, name+".md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		o.logger.Error().Err(err).Str("path", path).Msg("Failed to write error report")
		return result
	}

	result.ReportDir = dir
	result.ReportFilename = name + ".md"
	return result
}
