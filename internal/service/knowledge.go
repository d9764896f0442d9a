package service

import (
	"context"

	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/pagination"
	"github.com/claritymed/regpilot/internal/telemetry"
	"github.com/google/uuid"
)

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// KnowledgeRepositoryInterface defines the repository interface for knowledge persistence
type KnowledgeRepositoryInterface interface {
	Create(ctx context.Context, k *domain.KnowledgeEntry) error
	GetByTitle(ctx context.Context, title string) (*domain.KnowledgeEntry, error)
	Count(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*KnowledgeStats, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int, section domain.Section, contentType domain.ContentType) (*KnowledgePageResult, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// KnowledgeStats summarizes the knowledge base for the admin surface
type KnowledgeStats struct {
	Total             int64
	BySection         map[string]int64
	ByContentType     map[string]int64
	WithEmbeddings    int64
	MissingEmbeddings int64
}

type KnowledgePageResult struct {
	Items      []*domain.KnowledgeEntry
	NextCursor string
	HasMore    bool
}

// SearchRetriever is the semantic search dependency of KnowledgeService
type SearchRetriever interface {
	SearchSimilar(ctx context.Context, query string, k int, section domain.Section) ([]*domain.KnowledgeEntry, error)
}

// KnowledgeService handles search and admin operations over the knowledge base
type KnowledgeService struct {
	repo      KnowledgeRepositoryInterface
	retriever SearchRetriever
}

// NewKnowledgeService creates a new KnowledgeService instance
func NewKnowledgeService(repo KnowledgeRepositoryInterface, retriever SearchRetriever) *KnowledgeService {
	return &KnowledgeService{repo: repo, retriever: retriever}
}

// SearchInput represents input for semantic search
type SearchInput struct {
	Query   string
	Limit   int
	Section domain.Section
}

// SearchOutput represents the ranked search results
type SearchOutput struct {
	Query   string
	Section domain.Section
	Results []*domain.KnowledgeEntry
}

const (
	minQueryLength = 3
	maxSearchLimit = 20
)

// Search performs semantic search over the knowledge base. Malformed input
// is rejected before any retrieval work begins. An unknown section value is
// not an error: it simply matches no rows.
func (s *KnowledgeService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.Search", telemetry.SpanAttributes{
		Operation: "search",
	})
	defer span.End()

	if len(input.Query) < minQueryLength {
		return nil, domain.ErrInvalidSearchQuery
	}
	if input.Limit < 1 || input.Limit > maxSearchLimit {
		return nil, domain.ErrInvalidSearchLimit
	}

	results, err := s.retriever.SearchSimilar(ctx, input.Query, input.Limit, input.Section)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &SearchOutput{
		Query:   input.Query,
		Section: input.Section,
		Results: results,
	}, nil
}

// ListKnowledgeInput represents input for the paginated admin listing
type ListKnowledgeInput struct {
	Cursor      string
	Limit       int
	Section     domain.Section
	ContentType domain.ContentType
}

// List returns knowledge entries, newest first, previews only
func (s *KnowledgeService) List(ctx context.Context, input ListKnowledgeInput) (*KnowledgePageResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	var cursor *pagination.Cursor
	if input.Cursor != "" {
		var err error
		cursor, err = pagination.DecodeCursor(input.Cursor)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
		}
	}

	return s.repo.ListWithCursor(ctx, cursor, limit, input.Section, input.ContentType)
}

// Stats returns knowledge base summary statistics
func (s *KnowledgeService) Stats(ctx context.Context) (*KnowledgeStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.Stats", telemetry.SpanAttributes{
		Operation: "stats",
	})
	defer span.End()

	return s.repo.Stats(ctx)
}

// Clear deletes every knowledge base entry and returns the count removed
func (s *KnowledgeService) Clear(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.Clear", telemetry.SpanAttributes{
		Operation: "clear",
	})
	defer span.End()

	return s.repo.DeleteAll(ctx)
}
