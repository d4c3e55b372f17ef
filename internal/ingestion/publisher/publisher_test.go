package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
)

type captureProducer struct {
	events []kafka.Event
	err    error
}

func (c *captureProducer) PublishBatch(_ context.Context, events []kafka.Event) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, events...)
	return nil
}

func TestAddAndDelete(t *testing.T) {
	prod := &captureProducer{}
	p := New(prod)
	ctx := context.Background()

	require.NoError(t, p.Add(ctx, "quick fox", "lazy dog"))
	require.NoError(t, p.Delete(ctx, 1))
	require.Len(t, prod.events, 3)

	for _, e := range prod.events {
		assert.Equal(t, ingestion.StreamKey, e.Key)
	}
	assert.Equal(t, ingestion.OpAdd, prod.events[0].Value.(ingestion.IngestEvent).Op)
	del := prod.events[2].Value.(ingestion.IngestEvent)
	assert.Equal(t, ingestion.OpDelete, del.Op)
	assert.EqualValues(t, 1, *del.DocumentID)
}

func TestPublishRejectsInvalidCommand(t *testing.T) {
	prod := &captureProducer{}
	err := New(prod).Publish(context.Background(), ingestion.AddEvent("ok"), ingestion.IngestEvent{Op: "drop"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, prod.events, "nothing is written when any command is invalid")
}

func TestPublishProducerError(t *testing.T) {
	err := New(&captureProducer{err: errors.New("down")}).Add(context.Background(), "x")
	assert.ErrorContains(t, err, "publishing ingest commands")
}
