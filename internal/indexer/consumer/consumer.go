// Package consumer applies document commands from the ingest topic to an
// indexer engine.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
)

// Engine is the write side of the index the consumer drives.
type Engine interface {
	AddDocument(text string) index.DocID
	DeleteDocument(id index.DocID) error
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start consumes until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a MessageHandler applying each IngestEvent to engine.
// Undecodable or invalid commands are reported as kafka.ErrMalformed so they
// are committed and skipped. Deleting an unknown id is logged and committed.
func HandleMessage(engine Engine, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	count := func(op ingestion.Op, status string) {
		if m != nil {
			m.IngestEventsTotal.WithLabelValues(string(op), status).Inc()
		}
	}
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			count("unknown", "malformed")
			return err
		}
		if err := event.Validate(); err != nil {
			count(event.Op, "malformed")
			return fmt.Errorf("%w: %v", kafka.ErrMalformed, err)
		}

		switch event.Op {
		case ingestion.OpAdd:
			id := engine.AddDocument(event.Text)
			count(event.Op, "applied")
			logger.Debug("document added from stream", "doc_id", id, "key", string(key))
		case ingestion.OpDelete:
			id := *event.DocumentID
			if err := engine.DeleteDocument(id); err != nil {
				if errors.Is(err, apperrors.ErrDocumentNotFound) {
					count(event.Op, "not_found")
					logger.Warn("delete for unknown document", "doc_id", id)
					return nil
				}
				count(event.Op, "failed")
				return fmt.Errorf("deleting document %d: %w", id, err)
			}
			count(event.Op, "applied")
			logger.Debug("document deleted from stream", "doc_id", id)
		}
		return nil
	}
}
