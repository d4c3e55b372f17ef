package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/handler"
)

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(5), percentile(sorted, 50))
	assert.Equal(t, time.Duration(9), percentile(sorted, 90))
	assert.Equal(t, time.Duration(10), percentile(sorted, 99))
	assert.Equal(t, time.Duration(1), percentile(sorted, 0))
	assert.Equal(t, time.Duration(0), percentile(nil, 50))
}

func TestRunLoadTestAgainstHandler(t *testing.T) {
	engine := indexer.NewEngine()
	for _, text := range demoDocuments {
		engine.AddDocument(text)
	}
	c, err := cache.New(cache.Config{LocalSize: 32}, nil, nil)
	require.NoError(t, err)
	mux := http.NewServeMux()
	handler.New(engine, handler.WithCache(c)).Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	stats, err := runLoadTest(ctx, srv.Client(), &loadOptions{
		baseURL:     srv.URL,
		concurrency: 2,
		queries:     []string{"fox", "fox OR dog"},
	})
	require.NoError(t, err)
	assert.Positive(t, stats.success.Load())
	assert.Positive(t, stats.cacheHits.Load())

	var out bytes.Buffer
	printLoadReport(&out, stats, 200*time.Millisecond)
	assert.Contains(t, out.String(), "=== Latency ===")
	assert.Contains(t, out.String(), "  200: ")
}
