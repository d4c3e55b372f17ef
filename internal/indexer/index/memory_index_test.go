package index

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/tokenizer"
)

func postingIDs(m *MemoryIndex, term string) []DocID {
	var ids []DocID
	m.View(func(v View) {
		ids = IDs(v.Postings(term))
	})
	return ids
}

func TestAddDocumentAssignsIncreasingIDs(t *testing.T) {
	m := NewMemoryIndex()
	assert.Equal(t, DocID(0), m.AddDocument("The quick brown fox"))
	assert.Equal(t, DocID(1), m.AddDocument("The lazy dog"))
	assert.Equal(t, DocID(2), m.AddDocument("The fox and the dog are friends"))
	assert.Equal(t, 3, m.DocCount())
}

func TestAddDocumentIndexesDistinctTerms(t *testing.T) {
	m := NewMemoryIndex()
	id := m.AddDocument("Fox, fox. FOX!")

	assert.Equal(t, 1, m.TermCount())
	assert.Equal(t, []DocID{id}, postingIDs(m, "fox"))

	doc, ok := m.Document(id)
	require.True(t, ok)
	assert.Equal(t, "Fox, fox. FOX!", doc.Text)
}

func TestAddEmptyDocument(t *testing.T) {
	m := NewMemoryIndex()
	m.AddDocument("hello world")
	id := m.AddDocument("")

	assert.Equal(t, DocID(1), id)
	assert.Equal(t, 2, m.DocCount())
	assert.Equal(t, 2, m.TermCount())
	doc, ok := m.Document(id)
	require.True(t, ok)
	assert.Equal(t, "", doc.Text)
	for _, entry := range m.Snapshot().Terms {
		assert.NotContains(t, entry.DocIDs, id)
	}
}

func TestDeleteDocument(t *testing.T) {
	m := NewMemoryIndex()
	fox := m.AddDocument("The quick brown fox")
	m.AddDocument("The lazy dog")
	both := m.AddDocument("The fox and the dog are friends")

	require.True(t, m.DeleteDocument(both))

	assert.Equal(t, []DocID{fox}, postingIDs(m, "fox"))
	assert.Empty(t, postingIDs(m, "friends"))
	_, ok := m.Document(both)
	assert.False(t, ok)

	m.View(func(v View) {
		assert.Nil(t, v.Postings("friends"), "emptied posting sets are compacted")
		assert.Nil(t, v.Postings("and"))
	})
}

func TestDeleteUnknownDocumentLeavesIndexUnchanged(t *testing.T) {
	m := NewMemoryIndex()
	m.AddDocument("alpha beta")
	id := m.AddDocument("beta gamma")
	require.True(t, m.DeleteDocument(id))

	before := m.Snapshot()
	assert.False(t, m.DeleteDocument(id), "already deleted")
	assert.False(t, m.DeleteDocument(999))
	assert.Equal(t, before, m.Snapshot())
}

func TestIDsAreNeverReused(t *testing.T) {
	m := NewMemoryIndex()
	a := m.AddDocument("one")
	b := m.AddDocument("two")
	require.True(t, m.DeleteDocument(b))
	require.True(t, m.DeleteDocument(a))

	c := m.AddDocument("three")
	assert.Equal(t, DocID(2), c)
	assert.Equal(t, DocID(3), m.Snapshot().NextID)
}

func TestGenerationAdvancesOnMutationOnly(t *testing.T) {
	m := NewMemoryIndex()
	assert.Equal(t, uint64(0), m.Generation())
	id := m.AddDocument("x")
	assert.Equal(t, uint64(1), m.Generation())
	m.DeleteDocument(42)
	assert.Equal(t, uint64(1), m.Generation())
	m.DeleteDocument(id)
	assert.Equal(t, uint64(2), m.Generation())
}

func TestMutationsReportCommitGeneration(t *testing.T) {
	m := NewMemoryIndex()
	id, gen := m.Add("fox")
	assert.Equal(t, DocID(0), id)
	assert.Equal(t, uint64(1), gen)

	gen, ok := m.Delete(7)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), gen)

	gen, ok = m.Delete(id)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), gen)
	assert.Equal(t, m.Generation(), gen)
}

func TestSnapshotIsSorted(t *testing.T) {
	m := NewMemoryIndex()
	m.AddDocument("zebra apple")
	m.AddDocument("apple mango")

	snap := m.Snapshot()
	require.Len(t, snap.Documents, 2)
	assert.Equal(t, DocID(0), snap.Documents[0].ID)
	assert.Equal(t, []TermEntry{
		{Term: "apple", DocIDs: []DocID{0, 1}},
		{Term: "mango", DocIDs: []DocID{1}},
		{Term: "zebra", DocIDs: []DocID{0}},
	}, snap.Terms)
}

func TestDocumentsSkipsUnknown(t *testing.T) {
	m := NewMemoryIndex()
	a := m.AddDocument("a")
	b := m.AddDocument("b")
	docs := m.Documents([]DocID{b, 77, a})
	assert.Equal(t, []Document{{ID: b, Text: "b"}, {ID: a, Text: "a"}}, docs)
}

// TestIndexConsistency applies random adds and deletes and checks after each
// step that every posting set matches a brute-force scan of live documents.
func TestIndexConsistency(t *testing.T) {
	vocabulary := []string{"fox", "dog", "cat", "The", "lazy", "quick!", "brown.", "Dog,", "bird", ""}
	rng := rand.New(rand.NewSource(7))
	m := NewMemoryIndex()
	live := make(map[DocID]string)

	for step := 0; step < 400; step++ {
		if len(live) > 0 && rng.Intn(3) == 0 {
			var victim DocID
			for id := range live {
				victim = id
				break
			}
			require.True(t, m.DeleteDocument(victim))
			delete(live, victim)
		} else {
			n := rng.Intn(6)
			text := ""
			for i := 0; i < n; i++ {
				text += vocabulary[rng.Intn(len(vocabulary))] + " "
			}
			live[m.AddDocument(text)] = text
		}

		expected := make(map[string]map[DocID]struct{})
		for id, text := range live {
			for term := range tokenizer.Tokenize(text) {
				if expected[term] == nil {
					expected[term] = make(map[DocID]struct{})
				}
				expected[term][id] = struct{}{}
			}
		}
		snap := m.Snapshot()
		require.Len(t, snap.Terms, len(expected), "step %d", step)
		for _, entry := range snap.Terms {
			want := expected[entry.Term]
			require.Len(t, entry.DocIDs, len(want), "step %d term %q", step, entry.Term)
			for _, id := range entry.DocIDs {
				_, ok := want[id]
				require.True(t, ok, "step %d term %q id %d", step, entry.Term, id)
			}
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := NewMemoryIndex()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := m.AddDocument(fmt.Sprintf("worker%d shared item%d", w, i))
				if i%2 == 0 {
					m.DeleteDocument(id)
				}
			}
		}(w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.View(func(v View) {
					if bm := v.Postings("shared"); bm != nil {
						_ = bm.GetCardinality()
					}
				})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, m.DocCount())
	assert.Len(t, postingIDs(m, "shared"), 200)
}

func BenchmarkMemoryIndexAdd(b *testing.B) {
	m := NewMemoryIndex()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.AddDocument("this is a benchmark document with several terms for testing the indexing performance of our memory index")
	}
}
