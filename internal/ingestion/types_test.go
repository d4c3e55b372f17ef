package ingestion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, AddEvent("").Validate())
	assert.NoError(t, DeleteEvent(0).Validate())

	err := IngestEvent{Op: OpDelete}.Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	err = IngestEvent{Op: "upsert"}.Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.ErrorContains(t, err, `"upsert"`)
}

func TestDecodeWireFormat(t *testing.T) {
	var e IngestEvent
	require.NoError(t, json.Unmarshal([]byte(`{"op":"delete","document_id":0}`), &e))
	require.NotNil(t, e.DocumentID)
	assert.Equal(t, index.DocID(0), *e.DocumentID)
	assert.Equal(t, "delete 0", e.String())

	require.NoError(t, json.Unmarshal([]byte(`{"op":"add","text":"The lazy dog"}`), &e))
	assert.Equal(t, "add (12 bytes)", e.String())
}
