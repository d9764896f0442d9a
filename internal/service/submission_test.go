package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/claritymed/regpilot/internal/domain"
)

type MockSubmissionStore struct {
	mock.Mock
}

func (m *MockSubmissionStore) Create(ctx context.Context, s *domain.Submission) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSubmissionStore) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

func (m *MockSubmissionStore) List(ctx context.Context, status domain.SubmissionStatus, limit int) ([]*domain.Submission, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Submission), args.Error(1)
}

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Create(ctx context.Context, d *domain.Document) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDocumentStore) ListReviewed(ctx context.Context, submissionID string) ([]*domain.Document, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Document), args.Error(1)
}

type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) ListBySubmission(ctx context.Context, submissionID string) ([]*domain.GenerationRun, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GenerationRun), args.Error(1)
}

func newSubmissionServiceUnderTest() (*SubmissionService, *MockSubmissionStore, *MockDocumentStore, *MockRunStore) {
	repo := new(MockSubmissionStore)
	docs := new(MockDocumentStore)
	runs := new(MockRunStore)
	svc := NewSubmissionService(repo, docs, runs)
	return svc, repo, docs, runs
}

func TestSubmissionService_Create(t *testing.T) {
	svc, repo, _, _ := newSubmissionServiceUnderTest()

	var created *domain.Submission
	repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.Submission)
		}).Return(nil)

	sub, err := svc.Create(context.Background(), CreateSubmissionInput{
		DeviceName:        "GlucoTrack CGM",
		DeviceDescription: "Continuous glucose monitor",
		Manufacturer:      "ClarityMed",
		IndicationsForUse: "Adjunctive glucose monitoring",
		PredicateKNumber:  "K991234",
		ClinicalData:      map[string]string{"study_size": "120 patients"},
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, created, sub)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, domain.SubmissionType510k, sub.SubmissionType)
	assert.Equal(t, domain.SubmissionStatusDraft, sub.Status)
	assert.Equal(t, "GlucoTrack CGM", sub.DeviceName)
	assert.Equal(t, sub.CreatedAt, sub.UpdatedAt)
	assert.False(t, sub.CreatedAt.IsZero())
}

func TestSubmissionService_CreateRequiresDeviceName(t *testing.T) {
	svc, repo, _, _ := newSubmissionServiceUnderTest()

	_, err := svc.Create(context.Background(), CreateSubmissionInput{})

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmissionService_CreateRejectsUnknownType(t *testing.T) {
	svc, repo, _, _ := newSubmissionServiceUnderTest()

	_, err := svc.Create(context.Background(), CreateSubmissionInput{
		DeviceName:     "GlucoTrack CGM",
		SubmissionType: domain.SubmissionType("hde"),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidSubmissionType)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmissionService_CreatePropagatesStoreError(t *testing.T) {
	svc, repo, _, _ := newSubmissionServiceUnderTest()

	storeErr := errors.New("insert failed")
	repo.On("Create", mock.Anything, mock.Anything).Return(storeErr)

	_, err := svc.Create(context.Background(), CreateSubmissionInput{DeviceName: "GlucoTrack CGM"})

	assert.ErrorIs(t, err, storeErr)
}

func TestSubmissionService_ListClampsLimit(t *testing.T) {
	svc, repo, _, _ := newSubmissionServiceUnderTest()

	repo.On("List", mock.Anything, domain.SubmissionStatus(""), maxListLimit).
		Return([]*domain.Submission{}, nil).Times(3)

	for _, limit := range []int{0, -5, 500} {
		_, err := svc.List(context.Background(), "", limit)
		require.NoError(t, err)
	}
	repo.AssertExpectations(t)
}

func TestSubmissionService_ListHonorsValidLimit(t *testing.T) {
	svc, repo, _, _ := newSubmissionServiceUnderTest()

	expected := []*domain.Submission{{ID: "sub-1"}}
	repo.On("List", mock.Anything, domain.SubmissionStatusDraft, 10).Return(expected, nil)

	subs, err := svc.List(context.Background(), domain.SubmissionStatusDraft, 10)

	require.NoError(t, err)
	assert.Equal(t, expected, subs)
}

func TestSubmissionService_ListRejectsUnknownStatus(t *testing.T) {
	svc, repo, _, _ := newSubmissionServiceUnderTest()

	_, err := svc.List(context.Background(), domain.SubmissionStatus("archived"), 10)

	assert.ErrorIs(t, err, domain.ErrInvalidSubmissionStatus)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmissionService_AddDocument(t *testing.T) {
	svc, repo, docs, _ := newSubmissionServiceUnderTest()

	repo.On("GetByID", mock.Anything, "sub-1").Return(&domain.Submission{ID: "sub-1"}, nil)

	var created *domain.Document
	docs.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.Document)
		}).Return(nil)

	doc, err := svc.AddDocument(context.Background(), AddDocumentInput{
		SubmissionID:  "sub-1",
		DocumentType:  "bench_testing",
		Filename:      "iso10993_report.pdf",
		AIReviewed:    true,
		ReviewSummary: "Biocompatibility endpoints addressed.",
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, created, doc)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "sub-1", doc.SubmissionID)
	assert.True(t, doc.AIReviewed)
	assert.WithinDuration(t, time.Now().UTC(), doc.CreatedAt, time.Minute)
}

func TestSubmissionService_AddDocumentValidation(t *testing.T) {
	svc, _, docs, _ := newSubmissionServiceUnderTest()

	tests := []struct {
		name  string
		input AddDocumentInput
	}{
		{"missing filename", AddDocumentInput{SubmissionID: "sub-1", DocumentType: "bench_testing"}},
		{"missing document type", AddDocumentInput{SubmissionID: "sub-1", Filename: "report.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddDocument(context.Background(), tt.input)
			require.Error(t, err)
			var domainErr *domain.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
		})
	}
	docs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmissionService_AddDocumentUnknownSubmission(t *testing.T) {
	svc, repo, docs, _ := newSubmissionServiceUnderTest()

	repo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrSubmissionNotFound)

	_, err := svc.AddDocument(context.Background(), AddDocumentInput{
		SubmissionID: "missing",
		DocumentType: "bench_testing",
		Filename:     "report.pdf",
	})

	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
	docs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmissionService_ListReviewedDocuments(t *testing.T) {
	svc, repo, docs, _ := newSubmissionServiceUnderTest()

	repo.On("GetByID", mock.Anything, "sub-1").Return(&domain.Submission{ID: "sub-1"}, nil)
	expected := []*domain.Document{{ID: "doc-1", AIReviewed: true}}
	docs.On("ListReviewed", mock.Anything, "sub-1").Return(expected, nil)

	got, err := svc.ListReviewedDocuments(context.Background(), "sub-1")

	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestSubmissionService_ListGenerationRuns(t *testing.T) {
	svc, repo, _, runs := newSubmissionServiceUnderTest()

	repo.On("GetByID", mock.Anything, "sub-1").Return(&domain.Submission{ID: "sub-1"}, nil)
	expected := []*domain.GenerationRun{{ID: "run-1", SubmissionID: "sub-1", Model: "gpt-4o"}}
	runs.On("ListBySubmission", mock.Anything, "sub-1").Return(expected, nil)

	got, err := svc.ListGenerationRuns(context.Background(), "sub-1")

	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestSubmissionService_ListGenerationRunsUnknownSubmission(t *testing.T) {
	svc, repo, _, runs := newSubmissionServiceUnderTest()

	repo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrSubmissionNotFound)

	_, err := svc.ListGenerationRuns(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
	runs.AssertNotCalled(t, "ListBySubmission", mock.Anything, mock.Anything)
}
