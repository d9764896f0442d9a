package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/pagination"
	"github.com/claritymed/regpilot/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// KnowledgeRepository persists knowledge base entries and serves both vector
// ranking paths: pgvector-native ordering and the full-row load backing the
// Go-side linear scan.
type KnowledgeRepository struct {
	db dbtx
}

func NewKnowledgeRepository(pool *pgxpool.Pool) *KnowledgeRepository {
	return &KnowledgeRepository{db: pool}
}

func NewKnowledgeRepositoryWithTx(tx pgx.Tx) *KnowledgeRepository {
	return &KnowledgeRepository{db: tx}
}

func (r *KnowledgeRepository) Create(ctx context.Context, k *domain.KnowledgeEntry) error {
	var vec *pgvector.Vector
	if k.Embedding != nil {
		v := pgvector.NewVector(k.Embedding)
		vec = &v
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO knowledge_base (id, title, content, content_type, section, embedding, embedding_provider, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		k.ID, k.Title, k.Content, k.ContentType, k.Section, vec, k.EmbeddingProvider, k.CreatedAt,
	)
	return err
}

func (r *KnowledgeRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeEntry, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, title, content, content_type, section, embedding, embedding_provider, created_at
		 FROM knowledge_base WHERE id = $1`,
		id,
	)
	entry, err := scanKnowledgeRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrKnowledgeNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *KnowledgeRepository) GetByTitle(ctx context.Context, title string) (*domain.KnowledgeEntry, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, title, content, content_type, section, embedding, embedding_provider, created_at
		 FROM knowledge_base WHERE title = $1`,
		title,
	)
	entry, err := scanKnowledgeRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrKnowledgeNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *KnowledgeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM knowledge_base`).Scan(&count)
	return count, err
}

// Stats aggregates per-section and per-content-type counts plus embedding
// coverage for the admin surface.
func (r *KnowledgeRepository) Stats(ctx context.Context) (*service.KnowledgeStats, error) {
	stats := &service.KnowledgeStats{
		BySection:     map[string]int64{},
		ByContentType: map[string]int64{},
	}

	rows, err := r.db.Query(ctx,
		`SELECT section, content_type, embedding IS NOT NULL, COUNT(*)
		 FROM knowledge_base
		 GROUP BY section, content_type, embedding IS NOT NULL`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var section, contentType string
		var hasEmbedding bool
		var count int64
		if err := rows.Scan(&section, &contentType, &hasEmbedding, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.BySection[section] += count
		stats.ByContentType[contentType] += count
		if hasEmbedding {
			stats.WithEmbeddings += count
		} else {
			stats.MissingEmbeddings += count
		}
	}
	return stats, rows.Err()
}

// ListWithCursor returns entries ordered newest-first with cursor pagination.
// Embeddings are never loaded for list views.
func (r *KnowledgeRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int, section domain.Section, contentType domain.ContentType) (*service.KnowledgePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, title, content, content_type, section, NULL::vector, embedding_provider, created_at
		 FROM knowledge_base WHERE 1=1`
	args := []any{}

	if section != "" {
		args = append(args, section)
		query += ` AND section = $` + strconv.Itoa(len(args))
	}
	if contentType != "" {
		args = append(args, contentType)
		query += ` AND content_type = $` + strconv.Itoa(len(args))
	}
	if cursor != nil {
		args = append(args, cursor.Timestamp, cursor.LastID)
		query += ` AND (created_at, id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}
	args = append(args, limit+1)
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanKnowledgeRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.KnowledgePageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *KnowledgeRepository) DeleteAll(ctx context.Context) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM knowledge_base`)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

// SearchNearest ranks entries with pgvector's cosine distance operator and
// returns the top k most similar. The index does not expose a raw score
// cheaply, so results carry no similarity values and no threshold is applied
// on this path; the Go-side fallback applies one. Preserving that asymmetry
// is deliberate.
func (r *KnowledgeRepository) SearchNearest(ctx context.Context, vec []float32, k int, section domain.Section) ([]*domain.KnowledgeEntry, error) {
	if k <= 0 {
		return []*domain.KnowledgeEntry{}, nil
	}

	query := `SELECT id, title, content, content_type, section, NULL::vector, embedding_provider, created_at
		 FROM knowledge_base WHERE embedding IS NOT NULL`
	args := []any{pgvector.NewVector(vec)}

	if section != "" {
		args = append(args, section)
		query += ` AND section = $2`
	}
	args = append(args, k)
	query += ` ORDER BY embedding <=> $1 LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanKnowledgeRows(rows)
}

// ListEmbedded loads every entry including its stored vector for the linear
// scan fallback. Rows without an embedding are included; the caller ranks
// them with similarity 0.
func (r *KnowledgeRepository) ListEmbedded(ctx context.Context, section domain.Section) ([]*domain.KnowledgeEntry, error) {
	query := `SELECT id, title, content, content_type, section, embedding, embedding_provider, created_at
		 FROM knowledge_base`
	args := []any{}
	if section != "" {
		args = append(args, section)
		query += ` WHERE section = $1`
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanKnowledgeRows(rows)
}

// UpdateEmbedding replaces an entry's stored vector and provider identity
func (r *KnowledgeRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32, provider string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_base SET embedding = $1, embedding_provider = $2 WHERE id = $3`,
		pgvector.NewVector(embedding), provider, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrKnowledgeNotFound
	}
	return nil
}

// ListMockEmbedded returns entries whose vector came from the hash fallback,
// oldest first, for the re-embedding worker.
func (r *KnowledgeRepository) ListMockEmbedded(ctx context.Context, limit int) ([]*domain.KnowledgeEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, title, content, content_type, section, embedding, embedding_provider, created_at
		 FROM knowledge_base WHERE embedding_provider = $1 ORDER BY created_at LIMIT $2`,
		"mock", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanKnowledgeRows(rows)
}

type knowledgeScanner interface {
	Scan(dest ...any) error
}

func scanKnowledgeRow(row knowledgeScanner) (*domain.KnowledgeEntry, error) {
	var k domain.KnowledgeEntry
	var vec *pgvector.Vector
	var createdAt time.Time
	if err := row.Scan(&k.ID, &k.Title, &k.Content, &k.ContentType, &k.Section, &vec, &k.EmbeddingProvider, &createdAt); err != nil {
		return nil, err
	}
	if vec != nil {
		k.Embedding = vec.Slice()
	}
	k.CreatedAt = createdAt
	return &k, nil
}

func scanKnowledgeRows(rows pgx.Rows) ([]*domain.KnowledgeEntry, error) {
	var results []*domain.KnowledgeEntry
	for rows.Next() {
		entry, err := scanKnowledgeRow(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entry)
	}
	return results, rows.Err()
}
