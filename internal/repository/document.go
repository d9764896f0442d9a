package repository

import (
	"context"
	"errors"

	"github.com/claritymed/regpilot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, submission_id, document_type, filename, ai_reviewed, review_summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.SubmissionID, d.DocumentType, d.Filename, d.AIReviewed, d.ReviewSummary, d.CreatedAt,
	)
	return err
}

// ListReviewed returns the AI-reviewed documents for a submission, the only
// ones fed into generation prompts.
func (r *DocumentRepository) ListReviewed(ctx context.Context, submissionID string) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, submission_id, document_type, filename, ai_reviewed, review_summary, created_at
		 FROM documents WHERE submission_id = $1 AND ai_reviewed ORDER BY created_at`,
		submissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.SubmissionID, &d.DocumentType, &d.Filename, &d.AIReviewed, &d.ReviewSummary, &d.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &d)
	}
	return results, rows.Err()
}

type PredicateRepository struct {
	db dbtx
}

func NewPredicateRepository(pool *pgxpool.Pool) *PredicateRepository {
	return &PredicateRepository{db: pool}
}

func (r *PredicateRepository) Create(ctx context.Context, p *domain.PredicateDevice) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO predicate_devices (id, k_number, device_name, manufacturer, indications_for_use, technology, cleared_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.KNumber, p.DeviceName, p.Manufacturer, p.IndicationsForUse, p.Technology, p.ClearedAt,
	)
	return err
}

func (r *PredicateRepository) GetByKNumber(ctx context.Context, kNumber string) (*domain.PredicateDevice, error) {
	var p domain.PredicateDevice
	err := r.db.QueryRow(ctx,
		`SELECT id, k_number, device_name, manufacturer, indications_for_use, technology, cleared_at
		 FROM predicate_devices WHERE k_number = $1`,
		kNumber,
	).Scan(&p.ID, &p.KNumber, &p.DeviceName, &p.Manufacturer, &p.IndicationsForUse, &p.Technology, &p.ClearedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPredicateNotFound
		}
		return nil, err
	}
	return &p, nil
}
