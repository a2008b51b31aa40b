package llm

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/common"
)

func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	t.Setenv("GOOGLE_API_KEY", "test-key")

	cfg := &common.Config{}
	cfg.LLM.Provider = "gemini"
	cfg.Gemini.Timeout = "30s"

	return NewFactory(cfg, common.NewKeyResolver(nil, nil), arbor.NewLogger())
}

func TestFactoryServiceFor_UnknownProvider(t *testing.T) {
	factory := newTestFactory(t)
	factory.config.LLM.Provider = "oracle"

	_, err := factory.ServiceFor(context.Background(), "", 0.2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM provider")
}

func TestFactoryEmbedder_SharedInstance(t *testing.T) {
	factory := newTestFactory(t)

	first, err := factory.Embedder(context.Background())
	require.NoError(t, err)
	second, err := factory.Embedder(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestFactoryEmbedder_ConcurrentAccess(t *testing.T) {
	factory := newTestFactory(t)

	var wg sync.WaitGroup
	services := make([]any, 8)
	for i := range services {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			service, err := factory.Embedder(context.Background())
			assert.NoError(t, err)
			services[slot] = service
		}(i)
	}
	wg.Wait()

	for _, service := range services {
		assert.Same(t, services[0], service)
	}
}
