package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claritymed/regpilot/internal/domain"
)

func entryWithVec(id string, section domain.Section, vec []float32) *domain.KnowledgeEntry {
	return &domain.KnowledgeEntry{ID: id, Section: section, Embedding: vec}
}

func TestMemoryStore_InsertReplacesByID(t *testing.T) {
	store := NewMemoryStore()

	store.Insert(entryWithVec("k-1", domain.Section510k, []float32{1, 0}))
	store.Insert(entryWithVec("k-1", domain.SectionSoftware, []float32{0, 1}))

	assert.Equal(t, 1, store.Len())
	matches := store.Search([]float32{0, 1}, 1, "")
	require.Len(t, matches, 1)
	assert.Equal(t, domain.SectionSoftware, matches[0].Entry.Section)
}

func TestMemoryStore_SearchRanksBySimilarity(t *testing.T) {
	store := NewMemoryStore()
	store.Insert(entryWithVec("exact", "", []float32{1, 0, 0}))
	store.Insert(entryWithVec("close", "", []float32{2, 1, 0}))
	store.Insert(entryWithVec("orthogonal", "", []float32{0, 1, 0}))

	matches := store.Search([]float32{1, 0, 0}, 3, "")

	require.Len(t, matches, 3)
	assert.Equal(t, "exact", matches[0].Entry.ID)
	assert.Equal(t, "close", matches[1].Entry.ID)
	assert.Equal(t, "orthogonal", matches[2].Entry.ID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
}

func TestMemoryStore_SearchHonorsK(t *testing.T) {
	store := NewMemoryStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		store.Insert(entryWithVec(id, "", []float32{1, 0}))
	}

	assert.Len(t, store.Search([]float32{1, 0}, 2, ""), 2)
	assert.Empty(t, store.Search([]float32{1, 0}, 0, ""))
	assert.Empty(t, store.Search([]float32{1, 0}, -1, ""))
}

func TestMemoryStore_SearchFiltersBySection(t *testing.T) {
	store := NewMemoryStore()
	store.Insert(entryWithVec("sw", domain.SectionSoftware, []float32{1, 0}))
	store.Insert(entryWithVec("bio", domain.SectionBiocompatibility, []float32{1, 0}))

	matches := store.Search([]float32{1, 0}, 10, domain.SectionSoftware)

	require.Len(t, matches, 1)
	assert.Equal(t, "sw", matches[0].Entry.ID)
}

func TestMemoryStore_EntriesWithoutEmbeddingRankLast(t *testing.T) {
	store := NewMemoryStore()
	store.Insert(entryWithVec("embedded", "", []float32{1, 0}))
	store.Insert(entryWithVec("bare", "", nil))

	matches := store.Search([]float32{1, 0}, 2, "")

	require.Len(t, matches, 2)
	assert.Equal(t, "embedded", matches[0].Entry.ID)
	assert.Equal(t, "bare", matches[1].Entry.ID)
	assert.Zero(t, matches[1].Similarity)
}
