package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/common"
)

func newTestGateway(t *testing.T, envKeys map[string]string) *Gateway {
	t.Helper()

	for name, value := range envKeys {
		t.Setenv(name, value)
	}

	cfg := &common.GatewayConfig{
		RequestTimeout:   5 * time.Second,
		MaxRetries:       2,
		RetryBaseDelay:   time.Millisecond,
		CacheTTL:         time.Minute,
		RequestsPerSec:   1000,
		MaxSearchResults: 5,
	}
	resolver := common.NewKeyResolver(nil, nil)
	return NewGateway(cfg, resolver, arbor.NewLogger())
}

func TestTavilySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		fmt.Fprint(w, `{"results": [{"url": "https://example.com/a"}, {"url": "https://example.com/b"}]}`)
	}))
	defer server.Close()

	g := newTestGateway(t, map[string]string{"TAVILY_API_KEY": "test-key"})
	provider := NewTavilyProvider(g)
	provider.baseURL = server.URL

	urls, err := provider.Search(context.Background(), "ai market", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, urls)
}

func TestTavilySearch_NoKeySkips(t *testing.T) {
	g := newTestGateway(t, map[string]string{"TAVILY_API_KEY": "", "MERCATOR_TAVILY_API_KEY": ""})
	provider := NewTavilyProvider(g)

	urls, err := provider.Search(context.Background(), "ai market", "")
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestSerpAPISearch_CapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ai market", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"organic_results": [
			{"link": "https://a.example"}, {"link": "https://b.example"}, {"link": "https://c.example"},
			{"link": "https://d.example"}, {"link": "https://e.example"}, {"link": "https://f.example"}
		]}`)
	}))
	defer server.Close()

	g := newTestGateway(t, map[string]string{"SERPAPI_API_KEY": "test-key"})
	provider := NewSerpAPIProvider(g)
	provider.baseURL = server.URL

	urls, err := provider.Search(context.Background(), "ai market", "")
	require.NoError(t, err)
	assert.Len(t, urls, 5)
}

func TestNewsAPIFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		fmt.Fprint(w, `{"status": "ok", "articles": [
			{"source": {"name": "Example News"}, "title": "AI boom", "description": "summary here",
			 "content": "full text", "url": "https://news.example/1", "publishedAt": "2026-08-01T10:00:00Z"}
		]}`)
	}))
	defer server.Close()

	g := newTestGateway(t, map[string]string{"NEWS_API_KEY": "test-key"})
	provider := NewNewsAPIProvider(g)
	provider.baseURL = server.URL

	docs, err := provider.FetchNews(context.Background(), "ai market", "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "newsapi", docs[0].Source)
	assert.Equal(t, "AI boom", docs[0].Title)
	assert.Equal(t, "full text", docs[0].Content)
	assert.Equal(t, "2026-08-01T10:00:00Z", docs[0].PublishedAt)
}

func TestMediaStackFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("access_key"))
		fmt.Fprint(w, `{"data": [
			{"source": "wire", "title": "Chip supply", "description": "desc", "url": "https://m.example/1",
			 "published_at": "2026-08-02T00:00:00+00:00"}
		]}`)
	}))
	defer server.Close()

	g := newTestGateway(t, map[string]string{"MEDIASTACK_API_KEY": "test-key"})
	provider := NewMediaStackProvider(g)
	provider.baseURL = server.URL

	docs, err := provider.FetchNews(context.Background(), "semiconductors", "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "mediastack", docs[0].Source)
	assert.Equal(t, "Chip supply", docs[0].Title)
}

func TestFMPFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v3/profile/NVDA":
			fmt.Fprint(w, `[{"companyName": "NVIDIA", "industry": "Semiconductors"}]`)
		case r.URL.Path == "/api/v3/quote/NVDA":
			fmt.Fprint(w, `[{"price": 1234.5, "volume": 100}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	g := newTestGateway(t, map[string]string{"FINANCIAL_MODELING_PREP_API_KEY": "test-key"})
	provider := NewFMPProvider(g)
	provider.baseURL = server.URL

	records, err := provider.FetchFinancial(context.Background(), "NVDA earnings outlook", "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "company_profile", records[0].Type)
	assert.Equal(t, "NVDA", records[0].Symbol)
	assert.Equal(t, "stock_quote", records[1].Type)
}

func TestFMPFetch_NoSymbol(t *testing.T) {
	g := newTestGateway(t, map[string]string{"FINANCIAL_MODELING_PREP_API_KEY": "test-key"})
	provider := NewFMPProvider(g)

	records, err := provider.FetchFinancial(context.Background(), "renewable energy trends", "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAlphaVantageFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case "TIME_SERIES_DAILY":
			fmt.Fprint(w, `{"Time Series (Daily)": {
				"2026-08-27": {"4. close": "101.0"},
				"2026-08-28": {"4. close": "102.0"}
			}}`)
		case "OVERVIEW":
			fmt.Fprint(w, `{"Symbol": "TSLA", "Name": "Tesla Inc", "Sector": "Consumer Cyclical"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	g := newTestGateway(t, map[string]string{"ALPHA_VANTAGE_API_KEY": "test-key"})
	provider := NewAlphaVantageProvider(g)
	provider.baseURL = server.URL

	records, err := provider.FetchFinancial(context.Background(), "TSLA deliveries", "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "daily_time_series_latest", records[0].Type)
	assert.Equal(t, "2026-08-28", records[0].Data["date"])
	assert.Equal(t, "company_overview", records[1].Type)
}

func TestDoJSON_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer server.Close()

	g := newTestGateway(t, nil)

	var result map[string]bool
	err := g.doJSON(context.Background(), "test", "", http.MethodGet, server.URL, nil, nil, &result)
	require.NoError(t, err)
	assert.True(t, result["ok"])
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoJSON_CachesResponses(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"value": "cached"}`)
	}))
	defer server.Close()

	g := newTestGateway(t, nil)

	for i := 0; i < 3; i++ {
		var result map[string]string
		err := g.doJSON(context.Background(), "test", "", http.MethodGet, server.URL, nil, nil, &result)
		require.NoError(t, err)
		assert.Equal(t, "cached", result["value"])
	}
	assert.Equal(t, int32(1), calls.Load(), "repeated identical requests should hit the cache")
}

type mapKV map[string]string

func (m mapKV) Get(_ context.Context, key string) (string, error) {
	value, ok := m[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found", key)
	}
	return value, nil
}

func (m mapKV) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m mapKV) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func TestNewsAPIFetch_CacheIsolatedPerOwner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status": "ok", "articles": [
			{"source": {"name": "Example News"}, "title": "seen-by-%s", "description": "d",
			 "content": "c", "url": "https://news.example/1", "publishedAt": "2026-08-01T10:00:00Z"}
		]}`, r.Header.Get("X-Api-Key"))
	}))
	defer server.Close()

	g := newTestGateway(t, nil)
	g.resolver = common.NewKeyResolver(mapKV{
		common.OwnerKeyName("owner-a", common.ServiceNewsAPI): "key-a",
		common.OwnerKeyName("owner-b", common.ServiceNewsAPI): "key-b",
	}, nil)
	provider := NewNewsAPIProvider(g)
	provider.baseURL = server.URL

	docsA, err := provider.FetchNews(context.Background(), "ai market", "owner-a")
	require.NoError(t, err)
	require.Len(t, docsA, 1)
	assert.Equal(t, "seen-by-key-a", docsA[0].Title)

	// Same query within the TTL under a different owner must not reuse the
	// response fetched with the first owner's credential.
	docsB, err := provider.FetchNews(context.Background(), "ai market", "owner-b")
	require.NoError(t, err)
	require.Len(t, docsB, 1)
	assert.Equal(t, "seen-by-key-b", docsB[0].Title)

	docsA2, err := provider.FetchNews(context.Background(), "ai market", "owner-a")
	require.NoError(t, err)
	require.Len(t, docsA2, 1)
	assert.Equal(t, "seen-by-key-a", docsA2[0].Title, "repeat request for the same owner should still serve its own cached response")
}

func TestPageFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Market Report</title></head>
			<body><script>evil()</script><nav>menu</nav>
			<h1>Heading</h1><p>Body paragraph text.</p><footer>foot</footer></body></html>`)
	}))
	defer server.Close()

	g := newTestGateway(t, nil)
	fetcher := NewPageFetcher(g)

	doc, err := fetcher.FetchPage(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Market Report", doc.Title)
	assert.Contains(t, doc.Content, "Body paragraph text.")
	assert.NotContains(t, doc.Content, "evil()")
	assert.NotContains(t, doc.Content, "menu")
}

func TestPageFetcher_FailurePlaceholder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	g := newTestGateway(t, nil)
	g.config.MaxRetries = 0
	fetcher := NewPageFetcher(g)

	doc, err := fetcher.FetchPage(context.Background(), server.URL+"/missing")
	require.NoError(t, err)
	assert.Contains(t, doc.Title, "Failed to Load:")
	assert.Contains(t, doc.Summary, "Could not retrieve content")
	assert.Empty(t, doc.Content)
}

func TestPageFetcher_SummaryKeepsRunesIntact(t *testing.T) {
	long := strings.Repeat("é", summaryLength+50)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Long</title></head><body><p>%s</p></body></html>`, long)
	}))
	defer server.Close()

	g := newTestGateway(t, nil)
	fetcher := NewPageFetcher(g)

	doc, err := fetcher.FetchPage(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(doc.Summary))
	assert.Equal(t, summaryLength, len([]rune(doc.Summary)))
}

func TestTTLCacheSweep(t *testing.T) {
	cache := NewTTLCache(time.Millisecond)
	cache.Set("a", []byte("1"))
	cache.Set("b", []byte("2"))

	time.Sleep(5 * time.Millisecond)
	removed := cache.Sweep()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, cache.Len())
}

func TestExtractSymbol(t *testing.T) {
	assert.Equal(t, "NVDA", extractSymbol("NVDA earnings outlook"))
	assert.Equal(t, "", extractSymbol("renewable energy trends"))
	assert.Equal(t, "AI", extractSymbol("the AI hardware market"))
}
