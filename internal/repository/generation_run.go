package repository

import (
	"context"

	"github.com/claritymed/regpilot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GenerationRunRepository struct {
	db dbtx
}

func NewGenerationRunRepository(pool *pgxpool.Pool) *GenerationRunRepository {
	return &GenerationRunRepository{db: pool}
}

func NewGenerationRunRepositoryWithTx(tx pgx.Tx) *GenerationRunRepository {
	return &GenerationRunRepository{db: tx}
}

func (r *GenerationRunRepository) Create(ctx context.Context, run *domain.GenerationRun) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO generation_runs
			(id, submission_id, model, generated_chars, compliance_score, included_rag, included_analysis, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.SubmissionID, run.Model, run.GeneratedChars, run.ComplianceScore,
		run.IncludedRAG, run.IncludedAnalysis, run.CreatedAt,
	)
	return err
}

func (r *GenerationRunRepository) ListBySubmission(ctx context.Context, submissionID string) ([]*domain.GenerationRun, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, submission_id, model, generated_chars, compliance_score, included_rag, included_analysis, created_at
		 FROM generation_runs WHERE submission_id = $1 ORDER BY created_at DESC`,
		submissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.GenerationRun
	for rows.Next() {
		var run domain.GenerationRun
		if err := rows.Scan(&run.ID, &run.SubmissionID, &run.Model, &run.GeneratedChars,
			&run.ComplianceScore, &run.IncludedRAG, &run.IncludedAnalysis, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
