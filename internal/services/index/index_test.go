package index

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

// stubEmbedder maps known substrings to fixed vectors so similarity ordering
// is deterministic.
type stubEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.fail {
		return nil, fmt.Errorf("embedding unavailable")
	}
	for key, vector := range s.vectors {
		if strings.Contains(text, key) {
			return vector, nil
		}
	}
	return []float32{0, 0, 1}, nil
}

func (s *stubEmbedder) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (s *stubEmbedder) HealthCheck(ctx context.Context) error { return nil }
func (s *stubEmbedder) Close() error                          { return nil }

func TestSplitText(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := SplitText("hello world", 1000, 200)
		assert.Equal(t, []string{"hello world"}, chunks)
	})

	t.Run("empty text yields no chunks", func(t *testing.T) {
		assert.Nil(t, SplitText("", 1000, 200))
	})

	t.Run("chunks overlap", func(t *testing.T) {
		text := strings.Repeat("a", 10) + strings.Repeat("b", 10)
		chunks := SplitText(text, 10, 4)
		require.GreaterOrEqual(t, len(chunks), 2)
		assert.Equal(t, "aaaaaaaaaa", chunks[0])
		// Second chunk starts 6 characters in, repeating the last 4 of chunk 1
		assert.Equal(t, "aaaabbbbbb", chunks[1])
	})

	t.Run("every chunk within size", func(t *testing.T) {
		text := strings.Repeat("x", 2500)
		for _, chunk := range SplitText(text, 1000, 200) {
			assert.LessOrEqual(t, len(chunk), 1000)
		}
	})
}

func TestIndexBuildAndSearch(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"solar":   {1, 0, 0},
		"wind":    {0, 1, 0},
		"battery": {0.9, 0.1, 0},
	}}

	builder := NewBuilder(embedder, 1000, 200, arbor.NewLogger())
	docs := []models.Document{
		{Source: "web", Title: "Solar", Content: "solar deployment is accelerating"},
		{Source: "web", Title: "Wind", Content: "wind capacity additions slowed"},
		{Source: "web", Title: "Storage", Content: "battery storage growth continues"},
		{Source: "web", Title: "Empty"},
	}

	idx, err := builder.Build(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, idx.Chunks, 3, "empty documents are skipped")

	results, err := idx.Search(context.Background(), embedder, "solar outlook", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Solar", results[0].Chunk.Title)
	assert.Equal(t, "Storage", results[1].Chunk.Title)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestIndexBuild_AllEmbeddingsFail(t *testing.T) {
	builder := NewBuilder(&stubEmbedder{fail: true}, 1000, 200, arbor.NewLogger())
	docs := []models.Document{{Title: "Doc", Content: "some content"}}

	_, err := builder.Build(context.Background(), docs)
	assert.Error(t, err)
}

func TestIndexSaveAndLoad(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{"alpha": {1, 0, 0}}}
	builder := NewBuilder(embedder, 1000, 200, arbor.NewLogger())

	idx, err := builder.Build(context.Background(), []models.Document{
		{Source: "web", Title: "Alpha", Content: "alpha content"},
	})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, idx.Save(dir))

	loaded, err := Load(dir, arbor.NewLogger())
	require.NoError(t, err)
	require.Len(t, loaded.Chunks, 1)
	assert.Equal(t, "Alpha", loaded.Chunks[0].Title)
	assert.Equal(t, []float32{1, 0, 0}, loaded.Chunks[0].Embedding)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1}), "mismatched lengths score zero")
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 0}), "zero vector scores zero")
}
