package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubmissionRepository struct {
	db dbtx
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{db: pool}
}

func NewSubmissionRepositoryWithTx(tx pgx.Tx) *SubmissionRepository {
	return &SubmissionRepository{db: tx}
}

func (r *SubmissionRepository) Create(ctx context.Context, s *domain.Submission) error {
	clinical, err := marshalClinicalData(s.ClinicalData)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO submissions
			(id, submission_type, status, device_name, device_description, manufacturer,
			 indications_for_use, predicate_device_name, predicate_k_number, clinical_data,
			 generated_submission, equivalence_analysis, compliance_status, compliance_score,
			 compliance_report, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		s.ID, s.SubmissionType, s.Status, s.DeviceName, s.DeviceDescription, s.Manufacturer,
		s.IndicationsForUse, s.PredicateDeviceName, s.PredicateKNumber, clinical,
		s.GeneratedSubmission, s.EquivalenceAnalysis, s.ComplianceStatus, s.ComplianceScore,
		s.ComplianceReport, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, submission_type, status, device_name, device_description, manufacturer,
		        indications_for_use, predicate_device_name, predicate_k_number, clinical_data,
		        generated_submission, equivalence_analysis, compliance_status, compliance_score,
		        compliance_report, created_at, updated_at
		 FROM submissions WHERE id = $1`,
		id,
	)
	s, err := scanSubmissionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *SubmissionRepository) List(ctx context.Context, status domain.SubmissionStatus, limit int) ([]*domain.Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, submission_type, status, device_name, device_description, manufacturer,
		        indications_for_use, predicate_device_name, predicate_k_number, clinical_data,
		        generated_submission, equivalence_analysis, compliance_status, compliance_score,
		        compliance_report, created_at, updated_at
		 FROM submissions`
	args := []any{}
	if status != "" {
		args = append(args, status)
		query += ` WHERE status = $1`
	}
	args = append(args, limit)
	if len(args) == 2 {
		query += ` ORDER BY updated_at DESC LIMIT $2`
	} else {
		query += ` ORDER BY updated_at DESC LIMIT $1`
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Submission
	for rows.Next() {
		s, err := scanSubmissionRow(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

// UpdateStatus unconditionally moves a submission to the given status
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE submissions SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

// UpdateStatusIf moves a submission from one status to another only if it is
// still in the expected state. Returns true when the row changed. Used for
// the pipeline's compensating rollback so a concurrent run's result is never
// clobbered.
func (r *SubmissionRepository) UpdateStatusIf(ctx context.Context, id string, from, to domain.SubmissionStatus) (bool, error) {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE submissions SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, time.Now().UTC(), id, from,
	)
	if err != nil {
		return false, err
	}
	return cmdTag.RowsAffected() > 0, nil
}

// SaveGenerationResult writes everything the pipeline produced in one
// statement: generated text, optional equivalence analysis, compliance
// outcome and the post-generation status.
func (r *SubmissionRepository) SaveGenerationResult(ctx context.Context, result *service.GenerationResult) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE submissions
		 SET generated_submission = $1,
		     equivalence_analysis = $2,
		     compliance_status = $3,
		     compliance_score = $4,
		     compliance_report = $5,
		     status = $6,
		     updated_at = $7
		 WHERE id = $8`,
		result.GeneratedSubmission,
		result.EquivalenceAnalysis,
		result.ComplianceStatus,
		result.ComplianceScore,
		result.ComplianceReport,
		domain.SubmissionStatusReviewPending,
		time.Now().UTC(),
		result.SubmissionID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

type submissionScanner interface {
	Scan(dest ...any) error
}

func scanSubmissionRow(row submissionScanner) (*domain.Submission, error) {
	var s domain.Submission
	var clinical []byte
	if err := row.Scan(
		&s.ID, &s.SubmissionType, &s.Status, &s.DeviceName, &s.DeviceDescription, &s.Manufacturer,
		&s.IndicationsForUse, &s.PredicateDeviceName, &s.PredicateKNumber, &clinical,
		&s.GeneratedSubmission, &s.EquivalenceAnalysis, &s.ComplianceStatus, &s.ComplianceScore,
		&s.ComplianceReport, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(clinical) > 0 {
		if err := json.Unmarshal(clinical, &s.ClinicalData); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func marshalClinicalData(data map[string]string) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return json.Marshal(data)
}
