// Package index implements a file-backed embedding index over document
// chunks, used for retrieval-augmented question answering.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

const indexFilename = "index.json"

// Chunk is one indexed slice of a source document.
type Chunk struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Embedding []float32 `json:"embedding"`
}

// SearchResult is one retrieved chunk with its similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Index holds embedded chunks and answers nearest-neighbor queries by cosine
// similarity.
type Index struct {
	Chunks []Chunk `json:"chunks"`

	logger arbor.ILogger
}

// Builder constructs indexes from documents using an embedding service.
type Builder struct {
	embedder     interfaces.LLMService
	logger       arbor.ILogger
	chunkSize    int
	chunkOverlap int
}

// NewBuilder creates an index builder.
func NewBuilder(embedder interfaces.LLMService, chunkSize, chunkOverlap int, logger arbor.ILogger) *Builder {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return &Builder{
		embedder:     embedder,
		logger:       logger,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Build chunks the documents, embeds every chunk, and returns the index.
// Documents with no body text are skipped. An error is returned only when no
// chunk could be embedded at all.
func (b *Builder) Build(ctx context.Context, documents []models.Document) (*Index, error) {
	idx := &Index{logger: b.logger}

	embedded := 0
	failed := 0
	for _, doc := range documents {
		text := doc.Text()
		if text == "" {
			continue
		}

		for _, chunkText := range SplitText(text, b.chunkSize, b.chunkOverlap) {
			embedding, err := b.embedder.Embed(ctx, chunkText)
			if err != nil {
				failed++
				b.logger.Warn().Err(err).Str("title", doc.Title).Msg("Chunk embedding failed, skipping")
				continue
			}
			idx.Chunks = append(idx.Chunks, Chunk{
				Text:      chunkText,
				Source:    doc.Source,
				Title:     doc.Title,
				Embedding: embedding,
			})
			embedded++
		}
	}

	if embedded == 0 {
		return nil, fmt.Errorf("no chunks could be embedded (%d failures)", failed)
	}

	b.logger.Info().
		Int("chunks", embedded).
		Int("failed", failed).
		Int("documents", len(documents)).
		Msg("Retrieval index built")

	return idx, nil
}

// Search embeds the query and returns the topK most similar chunks, best
// first.
func (idx *Index) Search(ctx context.Context, embedder interfaces.LLMService, query string, topK int) ([]SearchResult, error) {
	if len(idx.Chunks) == 0 {
		return nil, fmt.Errorf("index is empty")
	}
	if topK <= 0 {
		topK = 5
	}

	queryEmbedding, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results := make([]SearchResult, 0, len(idx.Chunks))
	for _, chunk := range idx.Chunks {
		results = append(results, SearchResult{
			Chunk: chunk,
			Score: cosineSimilarity(queryEmbedding, chunk.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// Save writes the index as JSON under dir, creating the directory as needed.
func (idx *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to serialize index: %w", err)
	}

	path := filepath.Join(dir, indexFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}

	return nil
}

// Load reads an index previously written by Save.
func Load(dir string, logger arbor.ILogger) (*Index, error) {
	path := filepath.Join(dir, indexFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	idx := &Index{logger: logger}
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}

	return idx, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors, or 0
// when either has zero magnitude or the lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
