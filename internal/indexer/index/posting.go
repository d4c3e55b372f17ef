package index

import "github.com/RoaringBitmap/roaring/v2"

// DocID identifies a document within one MemoryIndex. IDs are assigned in
// increasing order and never handed out twice.
type DocID uint32

// Document is a stored document with its original, unmodified text.
type Document struct {
	ID   DocID  `json:"id"`
	Text string `json:"text"`
}

// TermEntry is one row of an index snapshot: a term and the sorted ids of
// the documents that contain it.
type TermEntry struct {
	Term   string  `json:"term"`
	DocIDs []DocID `json:"doc_ids"`
}

// Snapshot is a point-in-time copy of a MemoryIndex. Documents are sorted by
// id and Terms by term.
type Snapshot struct {
	Documents  []Document  `json:"documents"`
	Terms      []TermEntry `json:"terms"`
	NextID     DocID       `json:"next_id"`
	Generation uint64      `json:"generation"`
}

// IDs converts a posting bitmap to an ascending DocID slice. A nil bitmap
// yields an empty, non-nil slice.
func IDs(bm *roaring.Bitmap) []DocID {
	if bm == nil {
		return []DocID{}
	}
	ids := make([]DocID, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, DocID(it.Next()))
	}
	return ids
}
