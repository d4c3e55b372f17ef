package indexer

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
)

// ChangeListener is notified after every successful mutation. Calls happen
// outside the index lock and must not block. Mutations from different
// goroutines may be reported out of order; generation is the index
// generation the mutation committed at and totally orders them.
type ChangeListener interface {
	DocumentAdded(doc index.Document, generation uint64)
	DocumentDeleted(id index.DocID, generation uint64)
}

type Stats struct {
	Documents  int         `json:"documents"`
	Terms      int         `json:"terms"`
	Generation uint64      `json:"generation"`
	NextID     index.DocID `json:"next_id"`
}

// Engine owns one document index and answers boolean queries over it. Each
// Engine is independent; several may coexist in one process.
type Engine struct {
	memIndex  *index.MemoryIndex
	executor  *executor.Executor
	metrics   *metrics.Metrics
	listeners []ChangeListener
	logger    *slog.Logger
}

type Option func(*Engine)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithListener(l ChangeListener) Option {
	return func(e *Engine) {
		e.listeners = append(e.listeners, l)
	}
}

func NewEngine(opts ...Option) *Engine {
	memIndex := index.NewMemoryIndex()
	e := &Engine{
		memIndex: memIndex,
		executor: executor.New(memIndex),
		logger:   slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddDocument indexes text under a new id and returns it. It never fails.
func (e *Engine) AddDocument(text string) index.DocID {
	id, generation := e.memIndex.Add(text)
	e.logger.Debug("document indexed",
		"doc_id", id,
		"text_size", len(text),
	)
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
	}
	e.updateGauges()
	for _, l := range e.listeners {
		l.DocumentAdded(index.Document{ID: id, Text: text}, generation)
	}
	return id
}

// DeleteDocument removes id from the index. It returns an error wrapping
// errors.ErrDocumentNotFound, and changes nothing, when id is unknown.
func (e *Engine) DeleteDocument(id index.DocID) error {
	generation, ok := e.memIndex.Delete(id)
	if !ok {
		if e.metrics != nil {
			e.metrics.DocsDeletedTotal.WithLabelValues("not_found").Inc()
		}
		return apperrors.NotFound(id)
	}
	e.logger.Debug("document deleted", "doc_id", id)
	if e.metrics != nil {
		e.metrics.DocsDeletedTotal.WithLabelValues("deleted").Inc()
	}
	e.updateGauges()
	for _, l := range e.listeners {
		l.DocumentDeleted(id, generation)
	}
	return nil
}

func (e *Engine) GetDocument(id index.DocID) (index.Document, error) {
	doc, ok := e.memIndex.Document(id)
	if !ok {
		return index.Document{}, apperrors.NotFound(id)
	}
	return doc, nil
}

// Resolve maps result ids back to their documents, skipping ids deleted
// since the search ran.
func (e *Engine) Resolve(ids []index.DocID) []index.Document {
	return e.memIndex.Documents(ids)
}

// Search parses and evaluates query. Malformed queries are evaluated on a
// best-effort basis; an empty query matches nothing.
func (e *Engine) Search(ctx context.Context, query string) *executor.SearchResult {
	start := time.Now()
	plan := parser.Parse(query)
	result := e.Execute(ctx, plan)
	e.metrics.ObserveSearch(result.TotalHits, plan.Empty(), "bypass", time.Since(start))
	return result
}

// Execute evaluates an already parsed plan without recording metrics.
func (e *Engine) Execute(ctx context.Context, plan *parser.QueryPlan) *executor.SearchResult {
	return e.executor.Execute(ctx, plan)
}

func (e *Engine) Generation() uint64 {
	return e.memIndex.Generation()
}

// Snapshot returns sorted copies of the document store and inverted index.
func (e *Engine) Snapshot() index.Snapshot {
	return e.memIndex.Snapshot()
}

func (e *Engine) Stats() Stats {
	var stats Stats
	e.memIndex.View(func(v index.View) {
		stats.Documents = v.DocCount()
		stats.Terms = v.TermCount()
		stats.Generation = v.Generation()
		stats.NextID = v.NextID()
	})
	return stats
}

func (e *Engine) updateGauges() {
	if e.metrics == nil {
		return
	}
	e.metrics.IndexDocuments.Set(float64(e.memIndex.DocCount()))
	e.metrics.IndexTerms.Set(float64(e.memIndex.TermCount()))
}
