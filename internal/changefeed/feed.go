// Package changefeed publishes index mutations to Kafka in batches. A Feed
// is registered as an engine change listener; it never blocks the mutating
// caller and drops events when its buffer is full.
package changefeed

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
)

// Publisher writes a batch of events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

type Config struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

type Feed struct {
	publisher Publisher
	cfg       Config
	eventCh   chan ChangeEvent
	pending   []kafka.Event
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func New(publisher Publisher, cfg Config, m *metrics.Metrics) *Feed {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Feed{
		publisher: publisher,
		cfg:       cfg,
		eventCh:   make(chan ChangeEvent, cfg.BufferSize),
		pending:   make([]kafka.Event, 0, cfg.BatchSize),
		metrics:   m,
		logger:    slog.Default().With("component", "change-feed"),
		now:       time.Now,
	}
}

func (f *Feed) DocumentAdded(doc index.Document, generation uint64) {
	f.track(ChangeEvent{
		Type:       ChangeAdded,
		DocumentID: doc.ID,
		Text:       doc.Text,
		Generation: generation,
		Timestamp:  f.now(),
	})
}

func (f *Feed) DocumentDeleted(id index.DocID, generation uint64) {
	f.track(ChangeEvent{Type: ChangeDeleted, DocumentID: id, Generation: generation, Timestamp: f.now()})
}

// Run batches buffered events until ctx is cancelled, then drains the buffer
// and makes a final flush bounded by a short deadline.
func (f *Feed) Run(ctx context.Context) error {
	f.logger.Info("change feed started",
		"buffer_size", f.cfg.BufferSize,
		"batch_size", f.cfg.BatchSize,
		"flush_interval", f.cfg.FlushInterval,
	)
	ticker := time.NewTicker(f.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case event := <-f.eventCh:
			f.enqueue(event)
			if len(f.pending) >= f.cfg.BatchSize {
				f.flush(ctx)
			}
		case <-ticker.C:
			f.flush(ctx)
		case <-ctx.Done():
			f.drain()
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			f.flush(flushCtx)
			cancel()
			f.logger.Info("change feed stopped", "unpublished", len(f.pending))
			return nil
		}
	}
}

// Buffered returns the number of events waiting in the channel.
func (f *Feed) Buffered() int {
	return len(f.eventCh)
}

func (f *Feed) track(event ChangeEvent) {
	select {
	case f.eventCh <- event:
	default:
		f.count("dropped", 1)
		f.logger.Warn("change event dropped (buffer full)",
			"type", string(event.Type),
			"doc_id", event.DocumentID,
		)
	}
}

func (f *Feed) enqueue(event ChangeEvent) {
	f.pending = append(f.pending, kafka.Event{
		Key:   strconv.FormatUint(uint64(event.DocumentID), 10),
		Value: event,
	})
}

func (f *Feed) drain() {
	for {
		select {
		case event := <-f.eventCh:
			f.enqueue(event)
		default:
			return
		}
	}
}

// flush publishes the pending batch. A failed batch stays pending for the
// next flush; past three batches' worth the oldest events are dropped.
func (f *Feed) flush(ctx context.Context) {
	if len(f.pending) == 0 {
		return
	}
	if err := f.publisher.PublishBatch(ctx, f.pending); err != nil {
		f.count("failed", len(f.pending))
		f.logger.Error("change batch flush failed",
			"batch_size", len(f.pending),
			"error", err,
		)
		if limit := f.cfg.BatchSize * 3; len(f.pending) > limit {
			dropped := len(f.pending) - limit
			f.pending = append(f.pending[:0], f.pending[dropped:]...)
			f.count("dropped", dropped)
			f.logger.Warn("pending change events dropped", "dropped", dropped)
		}
		return
	}
	f.count("published", len(f.pending))
	f.logger.Debug("change batch flushed", "events", len(f.pending))
	f.pending = make([]kafka.Event, 0, f.cfg.BatchSize)
}

func (f *Feed) count(status string, n int) {
	if f.metrics != nil {
		f.metrics.ChangeEventsTotal.WithLabelValues(status).Add(float64(n))
	}
}
