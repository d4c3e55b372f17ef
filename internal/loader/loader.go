// Package loader seeds an engine with documents at startup. Sources are
// read fully before any document is added, so a failing source leaves the
// index untouched.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
)

// Source yields document texts in the order they should be indexed.
type Source interface {
	Name() string
	Documents(ctx context.Context) ([]string, error)
}

// Adder is the write side of the engine used for seeding.
type Adder interface {
	AddDocument(text string) index.DocID
}

// Result reports what Load indexed from one source.
type Result struct {
	Source string
	First  index.DocID
	Count  int
}

// Load reads every source, then adds the documents source by source in
// order. Ids are therefore contiguous per source.
func Load(ctx context.Context, engine Adder, sources ...Source) ([]Result, error) {
	logger := slog.Default().With("component", "seed-loader")
	batches := make([][]string, len(sources))
	for i, src := range sources {
		start := time.Now()
		docs, err := src.Documents(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading seed source %s: %w", src.Name(), err)
		}
		batches[i] = docs
		logger.Info("seed source read",
			"source", src.Name(),
			"documents", len(docs),
			"elapsed", time.Since(start),
		)
	}

	results := make([]Result, 0, len(sources))
	for i, docs := range batches {
		r := Result{Source: sources[i].Name(), Count: len(docs)}
		for j, text := range docs {
			id := engine.AddDocument(text)
			if j == 0 {
				r.First = id
			}
		}
		results = append(results, r)
	}
	return results, nil
}
