package changefeed

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
)

type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeDeleted ChangeType = "deleted"
)

// ChangeEvent describes one successful index mutation. Text is set only for
// additions. Events may be published out of order; applying them in
// Generation order rebuilds the document store.
type ChangeEvent struct {
	Type       ChangeType  `json:"type"`
	DocumentID index.DocID `json:"document_id"`
	Text       string      `json:"text,omitempty"`
	Generation uint64      `json:"generation"`
	Timestamp  time.Time   `json:"timestamp"`
}
