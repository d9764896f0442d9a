package service

import (
	"context"
	"time"

	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/telemetry"
)

const maxListLimit = 100

// CreateSubmissionInput carries the user-supplied fields of a new submission.
type CreateSubmissionInput struct {
	SubmissionType      domain.SubmissionType
	DeviceName          string
	DeviceDescription   string
	Manufacturer        string
	IndicationsForUse   string
	PredicateDeviceName string
	PredicateKNumber    string
	ClinicalData        map[string]string
}

// SubmissionStore is the storage surface for the CRUD side of submissions.
type SubmissionStore interface {
	Create(ctx context.Context, s *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	List(ctx context.Context, status domain.SubmissionStatus, limit int) ([]*domain.Submission, error)
}

// DocumentStore is the storage surface for supporting documents.
type DocumentStore interface {
	Create(ctx context.Context, d *domain.Document) error
	ListReviewed(ctx context.Context, submissionID string) ([]*domain.Document, error)
}

// RunStore is the read surface for generation audit records.
type RunStore interface {
	ListBySubmission(ctx context.Context, submissionID string) ([]*domain.GenerationRun, error)
}

// SubmissionService handles the submission CRUD surface. Generation is the
// pipeline's job; this service never touches generated fields.
type SubmissionService struct {
	repo      SubmissionStore
	documents DocumentStore
	runs      RunStore
	uuidGen   UUIDGenerator
}

func NewSubmissionService(repo SubmissionStore, documents DocumentStore, runs RunStore) *SubmissionService {
	return &SubmissionService{
		repo:      repo,
		documents: documents,
		runs:      runs,
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// Create validates and persists a new draft submission.
func (s *SubmissionService) Create(ctx context.Context, input CreateSubmissionInput) (*domain.Submission, error) {
	ctx, span := telemetry.StartSpan(ctx, "SubmissionService.Create", telemetry.SpanAttributes{
		Operation: "create",
	})
	defer span.End()

	if input.DeviceName == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "device_name is required")
	}
	if input.SubmissionType == "" {
		input.SubmissionType = domain.SubmissionType510k
	}
	if !domain.IsValidSubmissionType(input.SubmissionType) {
		return nil, domain.ErrInvalidSubmissionType
	}

	now := time.Now().UTC()
	sub := &domain.Submission{
		ID:                  s.uuidGen.NewString(),
		SubmissionType:      input.SubmissionType,
		Status:              domain.SubmissionStatusDraft,
		DeviceName:          input.DeviceName,
		DeviceDescription:   input.DeviceDescription,
		Manufacturer:        input.Manufacturer,
		IndicationsForUse:   input.IndicationsForUse,
		PredicateDeviceName: input.PredicateDeviceName,
		PredicateKNumber:    input.PredicateKNumber,
		ClinicalData:        input.ClinicalData,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := domain.ValidateSubmission(sub); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid submission", err)
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		span.SetError(err)
		return nil, err
	}
	return sub, nil
}

// GetByID returns a submission or domain.ErrSubmissionNotFound.
func (s *SubmissionService) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	ctx, span := telemetry.StartSpan(ctx, "SubmissionService.GetByID", telemetry.SpanAttributes{
		SubmissionID: id,
		Operation:    "get",
	})
	defer span.End()

	return s.repo.GetByID(ctx, id)
}

// List returns submissions, optionally filtered by status. An unknown status
// value is rejected before hitting storage.
func (s *SubmissionService) List(ctx context.Context, status domain.SubmissionStatus, limit int) ([]*domain.Submission, error) {
	ctx, span := telemetry.StartSpan(ctx, "SubmissionService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	if status != "" && !domain.IsValidSubmissionStatus(status) {
		return nil, domain.ErrInvalidSubmissionStatus
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.List(ctx, status, limit)
}

// AddDocumentInput carries the fields of a supporting document record.
type AddDocumentInput struct {
	SubmissionID  string
	DocumentType  string
	Filename      string
	AIReviewed    bool
	ReviewSummary string
}

// AddDocument attaches a supporting document record to a submission.
func (s *SubmissionService) AddDocument(ctx context.Context, input AddDocumentInput) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "SubmissionService.AddDocument", telemetry.SpanAttributes{
		SubmissionID: input.SubmissionID,
		Operation:    "add_document",
	})
	defer span.End()

	if input.Filename == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "filename is required")
	}
	if input.DocumentType == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "document_type is required")
	}
	if _, err := s.repo.GetByID(ctx, input.SubmissionID); err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:            s.uuidGen.NewString(),
		SubmissionID:  input.SubmissionID,
		DocumentType:  input.DocumentType,
		Filename:      input.Filename,
		AIReviewed:    input.AIReviewed,
		ReviewSummary: input.ReviewSummary,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		span.SetError(err)
		return nil, err
	}
	return doc, nil
}

// ListReviewedDocuments returns the AI-reviewed documents for a submission.
func (s *SubmissionService) ListReviewedDocuments(ctx context.Context, submissionID string) ([]*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "SubmissionService.ListReviewedDocuments", telemetry.SpanAttributes{
		SubmissionID: submissionID,
		Operation:    "list_documents",
	})
	defer span.End()

	if _, err := s.repo.GetByID(ctx, submissionID); err != nil {
		return nil, err
	}
	return s.documents.ListReviewed(ctx, submissionID)
}

// ListGenerationRuns returns the audit trail of generation attempts for a
// submission, newest first.
func (s *SubmissionService) ListGenerationRuns(ctx context.Context, submissionID string) ([]*domain.GenerationRun, error) {
	ctx, span := telemetry.StartSpan(ctx, "SubmissionService.ListGenerationRuns", telemetry.SpanAttributes{
		SubmissionID: submissionID,
		Operation:    "list_runs",
	})
	defer span.End()

	if _, err := s.repo.GetByID(ctx, submissionID); err != nil {
		return nil, err
	}
	return s.runs.ListBySubmission(ctx, submissionID)
}
