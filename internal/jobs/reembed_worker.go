package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/embedding"
)

// DefaultReembedBatchSize is how many entries one poll cycle re-embeds.
const DefaultReembedBatchSize = 10

// KnowledgeEmbeddingStore is the storage surface the re-embed worker needs.
type KnowledgeEmbeddingStore interface {
	ListMockEmbedded(ctx context.Context, limit int) ([]*domain.KnowledgeEntry, error)
	UpdateEmbedding(ctx context.Context, id string, vec []float32, provider string) error
}

// EmbeddingProvider produces embeddings, reporting which backend served them.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) embedding.Result
	Backends() int
}

// ReembedWorker upgrades mock-embedded knowledge entries to real embeddings
// once a provider backend is configured. Entries seeded while no backend was
// available carry deterministic pseudo-embeddings; this worker replaces them
// in the background, batch by batch.
type ReembedWorker struct {
	store     KnowledgeEmbeddingStore
	provider  EmbeddingProvider
	batchSize int
}

// NewReembedWorker creates a new ReembedWorker instance
func NewReembedWorker(store KnowledgeEmbeddingStore, provider EmbeddingProvider) *ReembedWorker {
	return &ReembedWorker{
		store:     store,
		provider:  provider,
		batchSize: DefaultReembedBatchSize,
	}
}

// Sweep re-embeds one batch of mock-embedded entries. It is a no-op while no
// real backend is configured.
func (w *ReembedWorker) Sweep(ctx context.Context) error {
	if w.provider.Backends() == 0 {
		return nil
	}

	entries, err := w.store.ListMockEmbedded(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list mock-embedded entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	log.Printf("jobs: re-embedding %d knowledge entries", len(entries))

	for _, entry := range entries {
		res := w.provider.Embed(ctx, entry.Title+" "+entry.Content)
		if res.Mock() {
			// Backend unavailable right now; retry on the next poll.
			log.Printf("jobs: re-embed for entry %s fell back to mock, deferring batch", entry.ID)
			return nil
		}
		if err := w.store.UpdateEmbedding(ctx, entry.ID, res.Vector, res.Backend); err != nil {
			return fmt.Errorf("failed to store embedding for entry %s: %w", entry.ID, err)
		}
	}

	return nil
}
