// Package publisher writes document commands to the ingest topic, for
// clients that feed a running search service through Kafka instead of HTTP.
package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
)

// Producer is the subset of *kafka.Producer the publisher uses.
type Producer interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

type Publisher struct {
	producer Producer
	logger   *slog.Logger
}

func New(producer Producer) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "ingest-publisher"),
	}
}

func (p *Publisher) Add(ctx context.Context, texts ...string) error {
	events := make([]ingestion.IngestEvent, 0, len(texts))
	for _, text := range texts {
		events = append(events, ingestion.AddEvent(text))
	}
	return p.Publish(ctx, events...)
}

func (p *Publisher) Delete(ctx context.Context, ids ...index.DocID) error {
	events := make([]ingestion.IngestEvent, 0, len(ids))
	for _, id := range ids {
		events = append(events, ingestion.DeleteEvent(id))
	}
	return p.Publish(ctx, events...)
}

// Publish validates every command, then writes them in one batch so they
// keep their relative order on the stream.
func (p *Publisher) Publish(ctx context.Context, events ...ingestion.IngestEvent) error {
	batch := make([]kafka.Event, 0, len(events))
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
		batch = append(batch, kafka.Event{Key: ingestion.StreamKey, Value: e})
	}
	if err := p.producer.PublishBatch(ctx, batch); err != nil {
		return fmt.Errorf("publishing ingest commands: %w", err)
	}
	p.logger.Info("ingest commands published", "count", len(batch))
	return nil
}
