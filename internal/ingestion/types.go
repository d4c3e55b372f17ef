// Package ingestion defines the command schema of the document ingest
// stream. Producers publish IngestEvents; the index consumer applies them to
// the engine in stream order.
package ingestion

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
)

type Op string

const (
	OpAdd    Op = "add"
	OpDelete Op = "delete"
)

// StreamKey is the partition key of every ingest command. A single key keeps
// adds and the deletes that follow them in one ordered partition.
const StreamKey = "ingest"

// IngestEvent is one command on the ingest topic. Text is used by add and
// DocumentID by delete.
type IngestEvent struct {
	Op         Op           `json:"op"`
	Text       string       `json:"text,omitempty"`
	DocumentID *index.DocID `json:"document_id,omitempty"`
	IssuedAt   time.Time    `json:"issued_at,omitzero"`
}

func AddEvent(text string) IngestEvent {
	return IngestEvent{Op: OpAdd, Text: text, IssuedAt: time.Now().UTC()}
}

func DeleteEvent(id index.DocID) IngestEvent {
	return IngestEvent{Op: OpDelete, DocumentID: &id, IssuedAt: time.Now().UTC()}
}

// Validate rejects commands that cannot be applied. Any text, including the
// empty string, is a valid add.
func (e IngestEvent) Validate() error {
	switch e.Op {
	case OpAdd:
		return nil
	case OpDelete:
		if e.DocumentID == nil {
			return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "delete requires document_id")
		}
		return nil
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "unknown op %q", e.Op)
	}
}

func (e IngestEvent) String() string {
	if e.Op == OpDelete && e.DocumentID != nil {
		return fmt.Sprintf("delete %d", *e.DocumentID)
	}
	return fmt.Sprintf("%s (%d bytes)", e.Op, len(e.Text))
}
