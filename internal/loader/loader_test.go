package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/resilience"
)

func writeSeed(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

type staticSource struct {
	name string
	docs []string
	err  error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Documents(context.Context) ([]string, error) {
	return s.docs, s.err
}

func TestFileSourceFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want []string
	}{
		{"lines", "seed.txt", "The quick brown fox\n\n  \t\nThe lazy dog\n", []string{"The quick brown fox", "The lazy dog"}},
		{"lines keep text", "seed.txt", "  The lazy dog  \r\nfox\n", []string{"  The lazy dog  ", "fox"}},
		{"yaml list", "seed.yaml", "- The quick brown fox\n- The lazy dog\n", []string{"The quick brown fox", "The lazy dog"}},
		{"yaml mapping", "seed.yml", "documents:\n  - one\n  - \"\"\n", []string{"one", ""}},
		{"yaml empty", "seed.yaml", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := FileSource{Path: writeSeed(t, tt.file, tt.body)}.Documents(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, docs)
		})
	}
}

func TestFileSourceErrors(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "missing.txt")}.Documents(context.Background())
	assert.Error(t, err)

	_, err = FileSource{Path: writeSeed(t, "bad.yaml", "- [unclosed")}.Documents(context.Background())
	assert.Error(t, err)

	_, err = FileSource{Path: writeSeed(t, "scalar.yaml", "just a string")}.Documents(context.Background())
	assert.ErrorContains(t, err, "must be a list")
}

func TestLoadAddsInSourceOrder(t *testing.T) {
	e := indexer.NewEngine()
	results, err := Load(context.Background(), e,
		staticSource{name: "a", docs: []string{"The quick brown fox", "The lazy dog"}},
		staticSource{name: "b", docs: []string{"The fox and the dog are friends"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []Result{
		{Source: "a", First: 0, Count: 2},
		{Source: "b", First: 2, Count: 1},
	}, results)
	assert.Equal(t, []index.DocID{2}, e.Search(context.Background(), "fox AND dog").IDs)
}

func TestLoadFailingSourceLeavesIndexEmpty(t *testing.T) {
	e := indexer.NewEngine()
	_, err := Load(context.Background(), e,
		staticSource{name: "ok", docs: []string{"fox"}},
		staticSource{name: "broken", err: errors.New("boom")},
	)
	assert.ErrorContains(t, err, "broken")
	assert.Equal(t, 0, e.Stats().Documents)
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, isPermanent(&pq.Error{Code: "42P01"}))
	assert.True(t, isPermanent(&pq.Error{Code: "22P02"}))
	assert.False(t, isPermanent(&pq.Error{Code: "08006"}))
	assert.False(t, isPermanent(errors.New("dial tcp: refused")))
}

// TestPostgresSource needs a reachable database; set TS_TEST_POSTGRES=1 and
// the usual TS_POSTGRES_* variables to run it.
func TestPostgresSource(t *testing.T) {
	if os.Getenv("TS_TEST_POSTGRES") == "" {
		t.Skip("TS_TEST_POSTGRES not set")
	}
	cfg, err := config.Load("")
	require.NoError(t, err)
	ctx := context.Background()
	client, err := postgres.New(ctx, cfg.Postgres)
	require.NoError(t, err)
	defer client.Close()

	src := PostgresSource{
		Client: client,
		Query:  `SELECT t FROM (VALUES (1, 'The quick brown fox'), (2, NULL), (3, 'The lazy dog')) AS v(n, t) ORDER BY n`,
	}
	docs, err := src.Documents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"The quick brown fox", "", "The lazy dog"}, docs)

	bad := PostgresSource{Client: client, Query: "SELECT FROM nowhere_table", Retry: resilience.RetryConfig{MaxAttempts: 5}}
	_, err = bad.Documents(ctx)
	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))
}
