package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
	"github.com/calibrae/mercator/internal/services/index"
)

// VectorStage builds the retrieval index from the saved data sources
// artifact. Failures leave IndexPath empty; the question stage degrades to a
// canned answer.
type VectorStage struct {
	provider     interfaces.LLMProvider
	chunkSize    int
	chunkOverlap int
	logger       arbor.ILogger
}

func NewVectorStage(provider interfaces.LLMProvider, chunkSize, chunkOverlap int, logger arbor.ILogger) *VectorStage {
	return &VectorStage{
		provider:     provider,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

func (s *VectorStage) Name() string { return "setup_vector_store" }

func (s *VectorStage) Run(ctx context.Context, state *models.AnalysisState) error {
	s.logger.Info().Str("state_id", state.ID).Msg("Vector store setup started")
	state.IndexPath = ""

	if state.ReportDir == "" {
		s.logger.Warn().Msg("Report directory not set, skipping vector store setup")
		return nil
	}

	documents := s.loadDocuments(state)

	embedder, err := s.provider.Embedder(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Embedder unavailable, skipping vector store setup")
		return nil
	}

	builder := index.NewBuilder(embedder, s.chunkSize, s.chunkOverlap, s.logger)
	idx, err := builder.Build(ctx, documents)
	if err != nil {
		s.logger.Error().Err(err).Msg("Vector store build failed")
		return nil
	}

	suffix := common.ShortID(state.ID)
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	storeDir := filepath.Join(state.ReportDir, "vector_store_"+suffix)
	if err := idx.Save(storeDir); err != nil {
		s.logger.Error().Err(err).Str("dir", storeDir).Msg("Failed to save vector store")
		return nil
	}

	state.IndexPath = storeDir
	s.logger.Info().Str("path", storeDir).Int("chunks", len(idx.Chunks)).Msg("Vector store setup completed")
	return nil
}

// loadDocuments reads the data sources artifact back from disk, falling back
// to the in-memory corpus and finally a minimal placeholder document.
func (s *VectorStage) loadDocuments(state *models.AnalysisState) []models.Document {
	var documents []models.Document

	path := filepath.Join(state.ReportDir, dataFileBase(state.MarketDomain)+".json")
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &documents); err != nil {
			s.logger.Error().Err(err).Str("path", path).Msg("Failed to parse data sources artifact")
			documents = nil
		}
	}
	if documents == nil {
		documents = state.RawDocuments
	}

	var usable []models.Document
	for _, doc := range documents {
		if doc.Text() != "" {
			usable = append(usable, doc)
		}
	}
	if len(usable) > 0 {
		return usable
	}

	s.logger.Warn().Msg("No documents found for vector store, creating minimal fallback")
	query := state.Query
	if query == "" {
		query = "N/A"
	}
	return []models.Document{{
		Source:  "Fallback",
		Title:   "Fallback Document",
		Content: fmt.Sprintf("Market Intelligence Report for %s. Query: %s.", state.MarketDomain, query),
	}}
}
