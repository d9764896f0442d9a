package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/claritymed/regpilot/internal/domain"
)

type MockSubmissionPersistence struct {
	mock.Mock
}

func (m *MockSubmissionPersistence) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

func (m *MockSubmissionPersistence) UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockSubmissionPersistence) UpdateStatusIf(ctx context.Context, id string, from, to domain.SubmissionStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubmissionPersistence) SaveGenerationResult(ctx context.Context, result *GenerationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

type MockPredicateFinder struct {
	mock.Mock
}

func (m *MockPredicateFinder) GetByKNumber(ctx context.Context, kNumber string) (*domain.PredicateDevice, error) {
	args := m.Called(ctx, kNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PredicateDevice), args.Error(1)
}

type MockDocumentLister struct {
	mock.Mock
}

func (m *MockDocumentLister) ListReviewed(ctx context.Context, submissionID string) ([]*domain.Document, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Document), args.Error(1)
}

type MockGroundingBuilder struct {
	mock.Mock
}

func (m *MockGroundingBuilder) Build(ctx context.Context, sub *domain.Submission) string {
	args := m.Called(ctx, sub)
	return args.String(0)
}

type MockRunRecorder struct {
	mock.Mock
}

func (m *MockRunRecorder) Create(ctx context.Context, run *domain.GenerationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

type MockArtifactArchiver struct {
	mock.Mock
}

func (m *MockArtifactArchiver) ArchiveGeneratedDocument(ctx context.Context, submissionID string, content []byte) error {
	args := m.Called(ctx, submissionID, content)
	return args.Error(0)
}

// scriptedLLM streams a fixed set of chunks and answers completions from a
// queue, so tests can assert exact pipeline output without a mock dialect.
type scriptedLLM struct {
	chunks      []string
	completions []string
	streamErr   error
	completeErr error

	completePrompts []string
	completeCalls   int
}

func (s *scriptedLLM) Model() string { return "scripted-model" }

func (s *scriptedLLM) StreamComplete(ctx context.Context, system, prompt string, onChunk func(string) error) (string, error) {
	if s.streamErr != nil {
		return "", s.streamErr
	}
	var b strings.Builder
	for _, c := range s.chunks {
		if err := onChunk(c); err != nil {
			return "", err
		}
		b.WriteString(c)
	}
	return b.String(), nil
}

func (s *scriptedLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	if s.completeErr != nil {
		return "", s.completeErr
	}
	s.completePrompts = append(s.completePrompts, prompt)
	idx := s.completeCalls
	s.completeCalls++
	if idx < len(s.completions) {
		return s.completions[idx], nil
	}
	return "", errors.New("no scripted completion left")
}

// stubTxRunner hands the callback repositories backed by the test mocks and
// records whether the transaction body ran.
type stubTxRunner struct {
	submissions SubmissionPersistence
	runs        GenerationRunPersistence
	err         error
	ran         bool
}

func (r *stubTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	if r.err != nil {
		return r.err
	}
	r.ran = true
	return fn(&stubTxRepos{submissions: r.submissions, runs: r.runs})
}

type stubTxRepos struct {
	submissions SubmissionPersistence
	runs        GenerationRunPersistence
}

func (r *stubTxRepos) Submissions() SubmissionPersistence { return r.submissions }
func (r *stubTxRepos) GenerationRuns() GenerationRunPersistence { return r.runs }

type stubUUIDGen struct {
	next string
}

func (g *stubUUIDGen) NewString() string { return g.next }

type pipelineEnv struct {
	submissions *MockSubmissionPersistence
	predicates  *MockPredicateFinder
	documents   *MockDocumentLister
	grounding   *MockGroundingBuilder
	llm         *scriptedLLM
	runs        *MockRunRecorder
	txRunner    *stubTxRunner
	archiver    *MockArtifactArchiver
	pipeline    *GenerationPipeline
}

func newPipelineEnv() *pipelineEnv {
	env := &pipelineEnv{
		submissions: new(MockSubmissionPersistence),
		predicates:  new(MockPredicateFinder),
		documents:   new(MockDocumentLister),
		grounding:   new(MockGroundingBuilder),
		llm: &scriptedLLM{
			chunks:      []string{"## Device Description\n\n", "The device is a ", "continuous glucose monitor."},
			completions: []string{"Compliance Score: 82\n\nMeets 21 CFR 807.92 content requirements."},
		},
		runs:     new(MockRunRecorder),
		archiver: new(MockArtifactArchiver),
	}
	env.txRunner = &stubTxRunner{submissions: env.submissions, runs: env.runs}
	env.pipeline = NewGenerationPipeline(
		env.submissions, env.predicates, env.documents, env.grounding,
		env.llm, env.txRunner, env.archiver,
	)
	env.pipeline.uuidGen = &stubUUIDGen{next: "run-uuid-1"}
	return env
}

func pipelineSubmission() *domain.Submission {
	return &domain.Submission{
		ID:                "sub-1",
		SubmissionType:    domain.SubmissionType510k,
		Status:            domain.SubmissionStatusDraft,
		DeviceName:        "GlucoTrack CGM",
		DeviceDescription: "Continuous glucose monitor",
		IndicationsForUse: "Adjunctive glucose monitoring",
		PredicateKNumber:  "K991234",
	}
}

func collectEvents(ch <-chan ProgressEvent) []ProgressEvent {
	var events []ProgressEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestGenerationPipeline_SuccessEventOrdering(t *testing.T) {
	env := newPipelineEnv()
	sub := pipelineSubmission()
	predicate := &domain.PredicateDevice{
		ID:      "pred-1",
		KNumber: "K991234",
	}

	env.submissions.On("GetByID", mock.Anything, "sub-1").Return(sub, nil)
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusDraft, domain.SubmissionStatusGenerating).Return(true, nil)
	env.submissions.On("SaveGenerationResult", mock.Anything, mock.Anything).Return(nil)
	env.predicates.On("GetByKNumber", mock.Anything, "K991234").Return(predicate, nil)
	env.documents.On("ListReviewed", mock.Anything, "sub-1").Return([]*domain.Document{}, nil)
	env.grounding.On("Build", mock.Anything, sub).Return("### [GUIDANCE] 510(k) Program\n\ncontent")
	env.runs.On("Create", mock.Anything, mock.Anything).Return(nil)
	env.archiver.On("ArchiveGeneratedDocument", mock.Anything, "sub-1", mock.Anything).Return(nil)

	events := collectEvents(env.pipeline.Run(context.Background(), "sub-1", GenerateOptions{}))

	require.NotEmpty(t, events)
	assert.Equal(t, EventStarted, events[0].Type)

	terminal := events[len(events)-1]
	require.Equal(t, EventCompleted, terminal.Type)
	assert.Equal(t, 100, terminal.Percent)
	assert.Equal(t, "sub-1", terminal.SubmissionID)
	require.NotNil(t, terminal.ComplianceScore)
	assert.Equal(t, 82, *terminal.ComplianceScore)
	require.NotNil(t, terminal.Compliant)
	assert.True(t, *terminal.Compliant)

	var percents []int
	var chunks []string
	for _, ev := range events {
		switch ev.Type {
		case EventProgress:
			percents = append(percents, ev.Percent)
		case EventChunk:
			chunks = append(chunks, ev.Text)
		}
	}
	assert.Equal(t, []int{8, 20, 30, 35, 45, 80, 90}, percents)
	assert.Equal(t, env.llm.chunks, chunks)
	assert.Equal(t, "## Device Description\n\nThe device is a continuous glucose monitor.",
		strings.Join(chunks, ""))

	env.submissions.AssertExpectations(t)
	env.runs.AssertExpectations(t)
	env.archiver.AssertExpectations(t)
	assert.True(t, env.txRunner.ran)
}

func TestGenerationPipeline_PersistsResultAndRun(t *testing.T) {
	env := newPipelineEnv()
	sub := pipelineSubmission()
	sub.PredicateKNumber = ""

	env.submissions.On("GetByID", mock.Anything, "sub-1").Return(sub, nil)
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusDraft, domain.SubmissionStatusGenerating).Return(true, nil)
	env.documents.On("ListReviewed", mock.Anything, "sub-1").Return([]*domain.Document{}, nil)
	env.grounding.On("Build", mock.Anything, sub).Return("grounding text")
	env.archiver.On("ArchiveGeneratedDocument", mock.Anything, "sub-1", mock.Anything).Return(nil)

	var saved *GenerationResult
	env.submissions.On("SaveGenerationResult", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*GenerationResult)
		}).Return(nil)

	var recorded *domain.GenerationRun
	env.runs.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			recorded = args.Get(1).(*domain.GenerationRun)
		}).Return(nil)

	events := collectEvents(env.pipeline.Run(context.Background(), "sub-1", GenerateOptions{}))
	require.Equal(t, EventCompleted, events[len(events)-1].Type)

	generated := "## Device Description\n\nThe device is a continuous glucose monitor."

	require.NotNil(t, saved)
	assert.Equal(t, "sub-1", saved.SubmissionID)
	assert.Equal(t, generated, saved.GeneratedSubmission)
	assert.Empty(t, saved.EquivalenceAnalysis)
	assert.Equal(t, domain.ComplianceStatusCompliant, saved.ComplianceStatus)
	assert.Equal(t, 82, saved.ComplianceScore)
	assert.Contains(t, saved.ComplianceReport, "Compliance Score: 82")

	require.NotNil(t, recorded)
	assert.Equal(t, "run-uuid-1", recorded.ID)
	assert.Equal(t, "sub-1", recorded.SubmissionID)
	assert.Equal(t, "scripted-model", recorded.Model)
	assert.Equal(t, len(generated), recorded.GeneratedChars)
	assert.Equal(t, 82, recorded.ComplianceScore)
	assert.True(t, recorded.IncludedRAG)
	assert.False(t, recorded.IncludedAnalysis)
	assert.False(t, recorded.CreatedAt.IsZero())

	env.predicates.AssertNotCalled(t, "GetByKNumber", mock.Anything, mock.Anything)
}

func TestGenerationPipeline_PredicateAnalysisOptIn(t *testing.T) {
	env := newPipelineEnv()
	env.llm.completions = []string{
		"Compliance Score: 60\n\nSeveral sections need work.",
		"Both devices share the same intended use and sensing technology.",
	}
	sub := pipelineSubmission()
	predicate := &domain.PredicateDevice{ID: "pred-1", KNumber: "K991234", DeviceName: "GlucoSure"}

	env.submissions.On("GetByID", mock.Anything, "sub-1").Return(sub, nil)
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusDraft, domain.SubmissionStatusGenerating).Return(true, nil)
	env.predicates.On("GetByKNumber", mock.Anything, "K991234").Return(predicate, nil)
	env.documents.On("ListReviewed", mock.Anything, "sub-1").Return([]*domain.Document{}, nil)
	env.grounding.On("Build", mock.Anything, sub).Return("")
	env.archiver.On("ArchiveGeneratedDocument", mock.Anything, "sub-1", mock.Anything).Return(nil)

	var saved *GenerationResult
	env.submissions.On("SaveGenerationResult", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*GenerationResult)
		}).Return(nil)

	var recorded *domain.GenerationRun
	env.runs.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			recorded = args.Get(1).(*domain.GenerationRun)
		}).Return(nil)

	events := collectEvents(env.pipeline.Run(context.Background(), "sub-1",
		GenerateOptions{IncludePredicateAnalysis: true}))

	terminal := events[len(events)-1]
	require.Equal(t, EventCompleted, terminal.Type)
	require.NotNil(t, terminal.Compliant)
	assert.False(t, *terminal.Compliant)

	assert.Equal(t, 2, env.llm.completeCalls)
	require.Len(t, env.llm.completePrompts, 2)
	assert.Contains(t, env.llm.completePrompts[1], "GlucoSure")
	require.NotNil(t, saved)
	assert.Equal(t, "Both devices share the same intended use and sensing technology.",
		saved.EquivalenceAnalysis)
	assert.Equal(t, domain.ComplianceStatusNonCompliant, saved.ComplianceStatus)
	require.NotNil(t, recorded)
	assert.True(t, recorded.IncludedAnalysis)
	assert.False(t, recorded.IncludedRAG)
}

func TestGenerationPipeline_SubmissionNotFound(t *testing.T) {
	env := newPipelineEnv()
	env.submissions.On("GetByID", mock.Anything, "missing").
		Return(nil, domain.ErrSubmissionNotFound)

	events := collectEvents(env.pipeline.Run(context.Background(), "missing", GenerateOptions{}))

	require.Len(t, events, 2)
	assert.Equal(t, EventStarted, events[0].Type)
	assert.Equal(t, EventError, events[1].Type)
	assert.Contains(t, events[1].Message, "missing")
	env.submissions.AssertNotCalled(t, "UpdateStatusIf",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationPipeline_AlreadyGenerating(t *testing.T) {
	env := newPipelineEnv()
	sub := pipelineSubmission()
	sub.Status = domain.SubmissionStatusGenerating
	env.submissions.On("GetByID", mock.Anything, "sub-1").Return(sub, nil)

	events := collectEvents(env.pipeline.Run(context.Background(), "sub-1", GenerateOptions{}))

	terminal := events[len(events)-1]
	require.Equal(t, EventError, terminal.Type)
	assert.Equal(t, domain.ErrGenerationInProgress.Error(), terminal.Message)
	env.submissions.AssertNotCalled(t, "UpdateStatusIf",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationPipeline_ClaimLostToConcurrentRun(t *testing.T) {
	env := newPipelineEnv()
	sub := pipelineSubmission()
	env.submissions.On("GetByID", mock.Anything, "sub-1").Return(sub, nil)
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusDraft, domain.SubmissionStatusGenerating).Return(false, nil)

	events := collectEvents(env.pipeline.Run(context.Background(), "sub-1", GenerateOptions{}))

	terminal := events[len(events)-1]
	require.Equal(t, EventError, terminal.Type)
	assert.Equal(t, domain.ErrGenerationInProgress.Error(), terminal.Message)
	env.documents.AssertNotCalled(t, "ListReviewed", mock.Anything, mock.Anything)
}

func TestGenerationPipeline_FailureAfterClaimRollsBack(t *testing.T) {
	env := newPipelineEnv()
	sub := pipelineSubmission()
	sub.Status = domain.SubmissionStatusReviewPending
	sub.PredicateKNumber = ""

	env.submissions.On("GetByID", mock.Anything, "sub-1").Return(sub, nil)
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusReviewPending, domain.SubmissionStatusGenerating).Return(true, nil)
	env.documents.On("ListReviewed", mock.Anything, "sub-1").
		Return(nil, errors.New("documents query failed"))
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusGenerating, domain.SubmissionStatusReviewPending).Return(true, nil)

	events := collectEvents(env.pipeline.Run(context.Background(), "sub-1", GenerateOptions{}))

	terminal := events[len(events)-1]
	require.Equal(t, EventError, terminal.Type)
	assert.Equal(t, "documents query failed", terminal.Message)
	env.submissions.AssertExpectations(t)
	assert.False(t, env.txRunner.ran)
}

func TestGenerationPipeline_MissingPredicateTolerated(t *testing.T) {
	env := newPipelineEnv()
	sub := pipelineSubmission()

	env.submissions.On("GetByID", mock.Anything, "sub-1").Return(sub, nil)
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusDraft, domain.SubmissionStatusGenerating).Return(true, nil)
	env.submissions.On("SaveGenerationResult", mock.Anything, mock.Anything).Return(nil)
	env.predicates.On("GetByKNumber", mock.Anything, "K991234").
		Return(nil, domain.ErrPredicateNotFound)
	env.documents.On("ListReviewed", mock.Anything, "sub-1").Return([]*domain.Document{}, nil)
	env.grounding.On("Build", mock.Anything, sub).Return("")
	env.runs.On("Create", mock.Anything, mock.Anything).Return(nil)
	env.archiver.On("ArchiveGeneratedDocument", mock.Anything, "sub-1", mock.Anything).Return(nil)

	events := collectEvents(env.pipeline.Run(context.Background(), "sub-1",
		GenerateOptions{IncludePredicateAnalysis: true}))

	require.Equal(t, EventCompleted, events[len(events)-1].Type)
	// Analysis needs a predicate; with none found only the compliance pass runs.
	assert.Equal(t, 1, env.llm.completeCalls)
}

func TestGenerationPipeline_StreamFailureRollsBack(t *testing.T) {
	env := newPipelineEnv()
	env.llm.streamErr = errors.New("model unavailable")
	sub := pipelineSubmission()
	sub.PredicateKNumber = ""

	env.submissions.On("GetByID", mock.Anything, "sub-1").Return(sub, nil)
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusDraft, domain.SubmissionStatusGenerating).Return(true, nil)
	env.documents.On("ListReviewed", mock.Anything, "sub-1").Return([]*domain.Document{}, nil)
	env.grounding.On("Build", mock.Anything, sub).Return("")
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusGenerating, domain.SubmissionStatusDraft).Return(true, nil)

	events := collectEvents(env.pipeline.Run(context.Background(), "sub-1", GenerateOptions{}))

	terminal := events[len(events)-1]
	require.Equal(t, EventError, terminal.Type)
	assert.Equal(t, "model unavailable", terminal.Message)
	env.submissions.AssertExpectations(t)
}

func TestGenerationPipeline_TxFailureRollsBack(t *testing.T) {
	env := newPipelineEnv()
	sub := pipelineSubmission()
	sub.PredicateKNumber = ""
	env.txRunner.err = errors.New("tx begin failed")

	env.submissions.On("GetByID", mock.Anything, "sub-1").Return(sub, nil)
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusDraft, domain.SubmissionStatusGenerating).Return(true, nil)
	env.documents.On("ListReviewed", mock.Anything, "sub-1").Return([]*domain.Document{}, nil)
	env.grounding.On("Build", mock.Anything, sub).Return("")
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusGenerating, domain.SubmissionStatusDraft).Return(true, nil)

	events := collectEvents(env.pipeline.Run(context.Background(), "sub-1", GenerateOptions{}))

	terminal := events[len(events)-1]
	require.Equal(t, EventError, terminal.Type)
	assert.Equal(t, "tx begin failed", terminal.Message)
	env.archiver.AssertNotCalled(t, "ArchiveGeneratedDocument",
		mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationPipeline_ArchiveFailureIsNotFatal(t *testing.T) {
	env := newPipelineEnv()
	sub := pipelineSubmission()
	sub.PredicateKNumber = ""

	env.submissions.On("GetByID", mock.Anything, "sub-1").Return(sub, nil)
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusDraft, domain.SubmissionStatusGenerating).Return(true, nil)
	env.submissions.On("SaveGenerationResult", mock.Anything, mock.Anything).Return(nil)
	env.documents.On("ListReviewed", mock.Anything, "sub-1").Return([]*domain.Document{}, nil)
	env.grounding.On("Build", mock.Anything, sub).Return("")
	env.runs.On("Create", mock.Anything, mock.Anything).Return(nil)
	env.archiver.On("ArchiveGeneratedDocument", mock.Anything, "sub-1", mock.Anything).
		Return(errors.New("bucket unreachable"))

	events := collectEvents(env.pipeline.Run(context.Background(), "sub-1", GenerateOptions{}))

	require.Equal(t, EventCompleted, events[len(events)-1].Type)
	env.archiver.AssertExpectations(t)
}

func TestGenerationPipeline_CancelledContextRollsBack(t *testing.T) {
	env := newPipelineEnv()
	sub := pipelineSubmission()
	sub.PredicateKNumber = ""

	ctx, cancel := context.WithCancel(context.Background())

	env.submissions.On("GetByID", mock.Anything, "sub-1").Return(sub, nil)
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusDraft, domain.SubmissionStatusGenerating).Return(true, nil)
	env.documents.On("ListReviewed", mock.Anything, "sub-1").Return([]*domain.Document{}, nil)
	env.grounding.On("Build", mock.Anything, sub).
		Run(func(mock.Arguments) { cancel() }).Return("")
	env.submissions.On("UpdateStatusIf", mock.Anything, "sub-1",
		domain.SubmissionStatusGenerating, domain.SubmissionStatusDraft).Return(true, nil)

	events := collectEvents(env.pipeline.Run(ctx, "sub-1", GenerateOptions{}))

	terminal := events[len(events)-1]
	require.Equal(t, EventError, terminal.Type)
	assert.Equal(t, context.Canceled.Error(), terminal.Message)
	env.submissions.AssertExpectations(t)
}
