// Package handler serves the document and search HTTP API over one engine.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/tracing"
)

// Engine is the index the handler serves. *indexer.Engine satisfies it.
type Engine interface {
	AddDocument(text string) index.DocID
	DeleteDocument(id index.DocID) error
	GetDocument(id index.DocID) (index.Document, error)
	Resolve(ids []index.DocID) []index.Document
	Execute(ctx context.Context, plan *parser.QueryPlan) *executor.SearchResult
	Generation() uint64
	Stats() indexer.Stats
	Snapshot() index.Snapshot
}

type Handler struct {
	engine       Engine
	cache        *cache.QueryCache
	metrics      *metrics.Metrics
	maxBodyBytes int64
	logger       *slog.Logger
}

type Option func(*Handler)

func WithCache(c *cache.QueryCache) Option {
	return func(h *Handler) {
		h.cache = c
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		h.maxBodyBytes = n
	}
}

func New(engine Engine, opts ...Option) *Handler {
	h := &Handler{
		engine:       engine,
		maxBodyBytes: 1 << 20,
		logger:       slog.Default().With("component", "search-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/documents", h.AddDocument)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.GetDocument)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.DeleteDocument)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

type addRequest struct {
	Text *string `json:"text"`
}

type addResponse struct {
	ID index.DocID `json:"id"`
}

type SearchResponse struct {
	executor.SearchResult
	Documents []index.Document `json:"documents,omitempty"`
	CacheHit  bool             `json:"cache_hit"`
	CacheTier string           `json:"cache_tier,omitempty"`
	TookMs    float64          `json:"took_ms"`
}

type StatsResponse struct {
	Index    indexer.Stats   `json:"index"`
	Cache    *cache.Stats    `json:"cache,omitempty"`
	Snapshot *index.Snapshot `json:"snapshot,omitempty"`
}

func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == nil {
		h.writeError(w, http.StatusBadRequest, "field 'text' is required")
		return
	}
	id := h.engine.AddDocument(*req.Text)
	logger.FromContext(r.Context()).Info("document added", "doc_id", id, "text_size", len(*req.Text))
	h.writeJSON(w, http.StatusCreated, addResponse{ID: id})
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	doc, err := h.engine.GetDocument(id)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.engine.DeleteDocument(id); err != nil {
		h.writeAppError(w, err)
		return
	}
	logger.FromContext(r.Context()).Info("document deleted", "doc_id", id)
	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Search evaluates q. Non-empty plans go through the query cache when one
// is configured; an empty or missing q yields an empty result.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := tracing.Start(r.Context(), "search")
	defer span.Log(ctx, h.logger)
	defer span.End()
	query := r.URL.Query().Get("q")

	includeText := false
	if v := r.URL.Query().Get("include_text"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "include_text must be a boolean")
			return
		}
		includeText = parsed
	}

	plan := parser.Parse(query)
	span.SetAttr("plan", plan.String())
	evalCtx, evalSpan := tracing.Start(ctx, "evaluate")
	var result *executor.SearchResult
	tier := cache.TierNone
	cacheStatus := "bypass"
	if h.cache != nil && !plan.Empty() {
		result, tier = h.cache.GetOrCompute(evalCtx, plan, h.engine.Generation(), func() *executor.SearchResult {
			return h.engine.Execute(evalCtx, plan)
		})
		cacheStatus = "miss"
		if tier != cache.TierNone {
			cacheStatus = "hit"
		}
	} else {
		result = h.engine.Execute(evalCtx, plan)
	}
	evalSpan.SetAttr("cache", cacheStatus)
	evalSpan.SetAttr("hits", result.TotalHits)
	evalSpan.End()

	resp := SearchResponse{
		SearchResult: *result,
		CacheHit:     tier != cache.TierNone,
		CacheTier:    string(tier),
	}
	resp.Query = query
	if includeText {
		_, resolveSpan := tracing.Start(ctx, "resolve")
		resp.Documents = h.engine.Resolve(result.IDs)
		resolveSpan.End()
	}
	elapsed := time.Since(start)
	resp.TookMs = float64(elapsed.Microseconds()) / 1000
	h.metrics.ObserveSearch(result.TotalHits, plan.Empty(), cacheStatus, elapsed)

	logger.FromContext(ctx).Info("search completed",
		"query", query,
		"plan", result.Plan,
		"total_hits", result.TotalHits,
		"cache", cacheStatus,
		"latency", elapsed,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Index: h.engine.Stats()}
	if h.cache != nil {
		s := h.cache.Stats()
		resp.Cache = &s
	}
	if verbose, _ := strconv.ParseBool(r.URL.Query().Get("verbose")); verbose {
		snap := h.engine.Snapshot()
		resp.Snapshot = &snap
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusBadGateway, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (index.DocID, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid document id "+strconv.Quote(raw))
		return 0, false
	}
	return index.DocID(id), true
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		message = "internal error"
	}
	h.writeError(w, status, message)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
