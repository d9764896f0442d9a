package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/telemetry"
)

// KnowledgeSeeder populates the knowledge base from the curated corpus.
// Seeding is idempotent: entries are identified by title, so re-running with
// force only inserts titles that are missing.
type KnowledgeSeeder struct {
	repo     KnowledgeRepositoryInterface
	embedder Embedder
	corpus   []CorpusEntry
	uuidGen  UUIDGenerator
}

func NewKnowledgeSeeder(repo KnowledgeRepositoryInterface, embedder Embedder) *KnowledgeSeeder {
	return &KnowledgeSeeder{
		repo:     repo,
		embedder: embedder,
		corpus:   RegulatoryCorpus(),
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

// Seed inserts the curated corpus into the knowledge base and returns the
// number of new entries. When the base already has rows and force is false,
// it returns domain.ErrKnowledgeBaseSeeded without touching anything.
func (s *KnowledgeSeeder) Seed(ctx context.Context, force bool) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeSeeder.Seed", telemetry.SpanAttributes{
		Operation: "seed",
	})
	defer span.End()

	if !force {
		count, err := s.repo.Count(ctx)
		if err != nil {
			return 0, err
		}
		if count > 0 {
			log.Printf("seeder: knowledge base already has %d entries, skipping", count)
			return 0, domain.ErrKnowledgeBaseSeeded
		}
	}

	inserted := 0
	for _, c := range s.corpus {
		_, err := s.repo.GetByTitle(ctx, c.Title)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrKnowledgeNotFound) {
			return inserted, err
		}

		res := s.embedder.Embed(ctx, c.Title+" "+c.Content)
		entry := domain.NewKnowledgeEntry(
			s.uuidGen.NewString(), c.Title, c.Content, c.ContentType, c.Section,
			res.Vector, res.Backend, time.Now().UTC(),
		)

		if err := s.repo.Create(ctx, entry); err != nil {
			// One bad row should not abort the whole seed run.
			log.Printf("seeder: failed to insert %q: %v", truncate(c.Title, 60), err)
			continue
		}
		inserted++
	}

	log.Printf("seeder: %d new entries inserted", inserted)
	return inserted, nil
}
