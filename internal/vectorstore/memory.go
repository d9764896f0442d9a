package vectorstore

import (
	"sort"
	"sync"

	"github.com/claritymed/regpilot/internal/domain"
)

// Match is one ranked search result
type Match struct {
	Entry      *domain.KnowledgeEntry
	Similarity float64
}

// MemoryStore is a linear-scan vector store over knowledge entries. The
// retriever builds one per search on its fallback path when the native
// Postgres index is unavailable. All operations are safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*domain.KnowledgeEntry
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*domain.KnowledgeEntry)}
}

// Insert stores an entry keyed by its ID, replacing any previous entry
func (s *MemoryStore) Insert(entry *domain.KnowledgeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
}

// Len returns the number of stored entries
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Search ranks all entries (optionally restricted to section) by cosine
// similarity against vec and returns the top k. Entries without an embedding
// score 0 and rank last. k <= 0 returns an empty slice.
func (s *MemoryStore) Search(vec []float32, k int, section domain.Section) []Match {
	if k <= 0 {
		return []Match{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.entries))
	for _, entry := range s.entries {
		if section != "" && entry.Section != section {
			continue
		}
		matches = append(matches, Match{
			Entry:      entry,
			Similarity: CosineSimilarity(vec, entry.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
