// Package index holds the document store and the inverted index derived from
// it. Both live behind a single read/write lock so that every mutation is
// observed by readers either completely or not at all.
package index

import (
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/tokenizer"
)

// MemoryIndex maps documents to their text and terms to the set of documents
// containing them.
//
// For every term t and id d, postings[t] contains d exactly when d is in docs
// and the tokenisation of docs[d].Text contains t. Terms whose posting set
// becomes empty are removed.
type MemoryIndex struct {
	mu         sync.RWMutex
	docs       map[DocID]Document
	postings   map[string]*roaring.Bitmap
	nextID     DocID
	generation uint64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		docs:     make(map[DocID]Document),
		postings: make(map[string]*roaring.Bitmap),
	}
}

// AddDocument stores text under a fresh id and indexes each of its distinct
// terms. It always succeeds; text without terms is stored but indexed under
// nothing.
func (m *MemoryIndex) AddDocument(text string) DocID {
	id, _ := m.Add(text)
	return id
}

// Add is AddDocument that also returns the generation the addition
// committed at.
func (m *MemoryIndex) Add(text string) (DocID, uint64) {
	terms := tokenizer.Unique(text)

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.docs[id] = Document{ID: id, Text: text}
	for term := range terms {
		bm, exists := m.postings[term]
		if !exists {
			bm = roaring.New()
			m.postings[term] = bm
		}
		bm.Add(uint32(id))
	}
	m.generation++
	return id, m.generation
}

// DeleteDocument removes the document and all of its postings. It reports
// false, leaving the index untouched, when id is unknown.
func (m *MemoryIndex) DeleteDocument(id DocID) bool {
	_, ok := m.Delete(id)
	return ok
}

// Delete is DeleteDocument that also returns the generation the deletion
// committed at.
func (m *MemoryIndex) Delete(id DocID) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.docs[id]
	if !exists {
		return 0, false
	}
	delete(m.docs, id)
	for term := range tokenizer.Tokenize(doc.Text) {
		bm, ok := m.postings[term]
		if !ok {
			continue
		}
		bm.Remove(uint32(id))
		if bm.IsEmpty() {
			delete(m.postings, term)
		}
	}
	m.generation++
	return m.generation, true
}

// Document returns the stored document for id.
func (m *MemoryIndex) Document(id DocID) (Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	return doc, ok
}

// Documents returns the stored documents for ids, skipping unknown ids.
func (m *MemoryIndex) Documents(ids []DocID) []Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := m.docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// View runs fn with read access to a consistent state of the index. The View
// must not escape fn.
func (m *MemoryIndex) View(fn func(v View)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(View{m: m})
}

func (m *MemoryIndex) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})

	entries := make([]TermEntry, 0, len(m.postings))
	for term, bm := range m.postings {
		entries = append(entries, TermEntry{
			Term:   term,
			DocIDs: IDs(bm),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})

	return Snapshot{
		Documents:  docs,
		Terms:      entries,
		NextID:     m.nextID,
		Generation: m.generation,
	}
}

func (m *MemoryIndex) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryIndex) TermCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.postings)
}

// Generation counts successful mutations. It changes whenever the result of
// some query may have changed.
func (m *MemoryIndex) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// View is read access to a MemoryIndex under its read lock.
type View struct {
	m *MemoryIndex
}

// Postings returns the posting set for term, or nil when the term is not
// indexed. The bitmap is shared with the index and must not be modified.
func (v View) Postings(term string) *roaring.Bitmap {
	return v.m.postings[term]
}

func (v View) Generation() uint64 {
	return v.m.generation
}

func (v View) DocCount() int {
	return len(v.m.docs)
}

func (v View) TermCount() int {
	return len(v.m.postings)
}

func (v View) NextID() DocID {
	return v.m.nextID
}
