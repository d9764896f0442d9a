package service

import (
	"context"
	"log"

	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/embedding"
	"github.com/claritymed/regpilot/internal/vectorstore"
)

// DefaultSimilarityThreshold is the minimum cosine similarity for a result
// to survive the linear-scan fallback path.
const DefaultSimilarityThreshold = 0.65

// VectorIndex defines the two ranking paths the retriever composes:
// store-native nearest-neighbor ordering and the full-row load backing the
// Go-side scan.
type VectorIndex interface {
	SearchNearest(ctx context.Context, vec []float32, k int, section domain.Section) ([]*domain.KnowledgeEntry, error)
	ListEmbedded(ctx context.Context, section domain.Section) ([]*domain.KnowledgeEntry, error)
}

// Embedder turns query text into a vector, falling back to a deterministic
// pseudo-embedding when no real provider is configured.
type Embedder interface {
	Embed(ctx context.Context, text string) embedding.Result
}

// KnowledgeRetriever composes an Embedder and a VectorIndex into semantic
// search with section filtering and similarity thresholding.
type KnowledgeRetriever struct {
	index     VectorIndex
	embedder  Embedder
	threshold float64
}

// NewKnowledgeRetriever creates a retriever with the default threshold
func NewKnowledgeRetriever(index VectorIndex, embedder Embedder) *KnowledgeRetriever {
	return &KnowledgeRetriever{
		index:     index,
		embedder:  embedder,
		threshold: DefaultSimilarityThreshold,
	}
}

// SearchSimilar returns the k knowledge entries most similar to the query,
// most similar first. The native index path is tried first; any failure
// (missing table, missing extension, connection trouble) falls back to a
// linear scan over all rows.
//
// The similarity threshold applies only on the fallback path. The native
// index does not expose a raw score cheaply, so its top-k comes back
// unfiltered. The reference system behaves the same way; unifying the two
// paths would change observable result counts, so the asymmetry stays.
func (r *KnowledgeRetriever) SearchSimilar(ctx context.Context, query string, k int, section domain.Section) ([]*domain.KnowledgeEntry, error) {
	if k <= 0 {
		return []*domain.KnowledgeEntry{}, nil
	}

	res := r.embedder.Embed(ctx, query)
	if res.Mock() {
		log.Printf("retriever: no embedding backend configured, results are not semantic (query %q)", truncate(query, 60))
	}

	entries, err := r.index.SearchNearest(ctx, res.Vector, k, section)
	if err == nil {
		return entries, nil
	}
	log.Printf("retriever: native vector search failed (%v); falling back to linear scan", err)

	all, err := r.index.ListEmbedded(ctx, section)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return []*domain.KnowledgeEntry{}, nil
	}

	store := vectorstore.NewMemoryStore()
	for _, entry := range all {
		store.Insert(entry)
	}

	results := make([]*domain.KnowledgeEntry, 0, k)
	for _, m := range store.Search(res.Vector, k, section) {
		if m.Similarity < r.threshold {
			break
		}
		results = append(results, m.Entry)
	}
	return results, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
