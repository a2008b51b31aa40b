// Package pipeline implements the staged market analysis workflow. Stages
// run strictly in order over a shared mutable state; the orchestrator
// persists the state after every stage so interrupted runs keep the last
// completed stage's output.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

// Stage is one step of the analysis workflow. Run mutates only the state
// fields the stage owns. A non-nil error aborts the whole run; stages that
// can degrade to defaults return nil instead.
type Stage interface {
	Name() string
	Run(ctx context.Context, state *models.AnalysisState) error
}

// completion requests one completion at the given temperature for the
// state's owner. Used by every analysis stage.
func completion(ctx context.Context, provider interfaces.LLMProvider, logger arbor.ILogger, state *models.AnalysisState, temperature float32, system, human string) (string, error) {
	service, err := provider.ServiceFor(ctx, state.UserID, temperature)
	if err != nil {
		return "", fmt.Errorf("LLM service unavailable: %w", err)
	}
	defer service.Close()

	return service.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: human},
	})
}

// writeStageArtifact saves a stage's result list as a JSON artifact in the
// report directory and registers it for download. Failures are logged and
// skipped; the result stays on the state either way.
func writeStageArtifact(logger arbor.ILogger, state *models.AnalysisState, filename, category string, value any) {
	if state.ReportDir == "" {
		return
	}
	path := filepath.Join(state.ReportDir, filename)
	data, err := json.MarshalIndent(value, "", "    ")
	if err != nil {
		logger.Error().Err(err).Str("file", filename).Msg("Failed to serialize stage artifact")
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to save stage artifact")
		return
	}
	state.RegisterDownload(category, path)
}

// sampleJSON marshals at most limit items of a collection for inclusion in a
// prompt.
func sampleJSON[T any](items []T, limit int) string {
	if limit <= 0 {
		limit = 5
	}
	if len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}
