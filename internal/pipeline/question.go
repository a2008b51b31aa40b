package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
	"github.com/calibrae/mercator/internal/services/index"
)

const questionTemperature = 0.2

// QuestionStage answers the optional user question against the retrieval
// index. Every failure degrades to a canned response; the stage never
// aborts the run.
type QuestionStage struct {
	provider interfaces.LLMProvider
	topK     int
	logger   arbor.ILogger
}

func NewQuestionStage(provider interfaces.LLMProvider, topK int, logger arbor.ILogger) *QuestionStage {
	return &QuestionStage{provider: provider, topK: topK, logger: logger}
}

func (s *QuestionStage) Name() string { return "rag_query_handler" }

func (s *QuestionStage) Run(ctx context.Context, state *models.AnalysisState) error {
	s.logger.Info().Str("state_id", state.ID).Str("question", state.Question).Msg("Question answering started")

	if state.Question == "" {
		s.logger.Info().Msg("No question provided, skipping")
		state.Answer = "No question provided for RAG query."
		return nil
	}

	if state.IndexPath == "" || !dirExists(state.IndexPath) {
		s.logger.Warn().Str("path", state.IndexPath).Msg("Vector store not found, cannot answer question")
		state.Answer = "Vector store not available. Cannot answer question."
		return nil
	}

	answer, err := s.answer(ctx, state)
	if err != nil {
		s.logger.Error().Err(err).Str("question", state.Question).Msg("Question answering failed")
		state.Answer = fmt.Sprintf("Error processing question: %v", err)
		return nil
	}
	state.Answer = answer

	s.logger.Info().Str("question", state.Question).Msg("Question answering completed")
	return nil
}

func (s *QuestionStage) answer(ctx context.Context, state *models.AnalysisState) (string, error) {
	idx, err := index.Load(state.IndexPath, s.logger)
	if err != nil {
		return "", err
	}

	embedder, err := s.provider.Embedder(ctx)
	if err != nil {
		return "", err
	}

	results, err := idx.Search(ctx, embedder, state.Question, s.topK)
	if err != nil {
		return "", err
	}

	var contexts []string
	for _, result := range results {
		contexts = append(contexts, result.Chunk.Text)
	}

	system := "Use the following pieces of context to answer the question at the end. " +
		"If you don't know the answer, just say that you don't know, don't try to make up an answer."
	human := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", strings.Join(contexts, "\n\n"), state.Question)

	response, err := completion(ctx, s.provider, s.logger, state, questionTemperature, system, human)
	if err != nil {
		return "", err
	}
	if response == "" {
		return "No response generated.", nil
	}
	return response, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
