package executor

import (
	"context"
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
)

// PostingSource resolves a term to its posting set. A nil result means the
// term is not indexed.
type PostingSource interface {
	Postings(term string) *roaring.Bitmap
}

// Index is the read side of the document index the executor queries.
type Index interface {
	View(fn func(v index.View))
}

type SearchResult struct {
	Query      string         `json:"query"`
	Plan       string         `json:"plan"`
	TotalHits  int            `json:"total_hits"`
	IDs        []index.DocID  `json:"ids"`
	TermStats  map[string]int `json:"term_stats"`
	Generation uint64         `json:"generation"`
}

type Executor struct {
	index  Index
	logger *slog.Logger
}

func New(idx Index) *Executor {
	return &Executor{
		index:  idx,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute evaluates plan against a single consistent view of the index.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan) *SearchResult {
	result := &SearchResult{
		Query:     plan.RawQuery,
		Plan:      plan.String(),
		IDs:       []index.DocID{},
		TermStats: make(map[string]int, len(plan.Clauses)),
	}
	if plan.Empty() {
		return result
	}
	var matched *roaring.Bitmap
	e.index.View(func(v index.View) {
		matched = Evaluate(plan, v)
		for _, c := range plan.Clauses {
			if bm := v.Postings(c.Term); bm != nil {
				result.TermStats[c.Term] = int(bm.GetCardinality())
			} else {
				result.TermStats[c.Term] = 0
			}
		}
		result.Generation = v.Generation()
	})
	result.IDs = index.IDs(matched)
	result.TotalHits = len(result.IDs)

	logger.Attach(ctx, e.logger).Debug("query executed",
		"query", plan.RawQuery,
		"plan", result.Plan,
		"hits", result.TotalHits,
		"generation", result.Generation,
	)
	return result
}

// Evaluate folds the clauses of plan left to right, starting from the first
// operand's posting set. OR is set union and AND is set intersection. The
// returned bitmap is owned by the caller.
func Evaluate(plan *parser.QueryPlan, src PostingSource) *roaring.Bitmap {
	if plan.Empty() {
		return roaring.New()
	}
	result := clone(src.Postings(plan.Clauses[0].Term))
	for _, c := range plan.Clauses[1:] {
		postings := src.Postings(c.Term)
		switch c.Op {
		case parser.OpOR:
			if postings != nil {
				result.Or(postings)
			}
		default:
			if postings == nil {
				result.Clear()
				continue
			}
			result.And(postings)
		}
	}
	return result
}

func clone(bm *roaring.Bitmap) *roaring.Bitmap {
	if bm == nil {
		return roaring.New()
	}
	return bm.Clone()
}
