package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/telemetry"
)

// EventKind identifies the type of a streamed pipeline event.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventProgress  EventKind = "progress"
	EventChunk     EventKind = "chunk"
	EventCompleted EventKind = "completed"
	EventError     EventKind = "error"
)

// ProgressEvent is one frame of the generation stream. Fields are populated
// per kind: progress carries Percent and Message, chunk carries Text, and
// completed carries the final compliance outcome.
type ProgressEvent struct {
	Type            EventKind `json:"type"`
	Message         string    `json:"message,omitempty"`
	Percent         int       `json:"percent,omitempty"`
	Text            string    `json:"text,omitempty"`
	SubmissionID    string    `json:"submission_id,omitempty"`
	ComplianceScore *int      `json:"compliance_score,omitempty"`
	Compliant       *bool     `json:"compliant,omitempty"`
}

// GenerationResult is everything one successful pipeline run produced,
// persisted atomically by SubmissionPersistence.SaveGenerationResult.
type GenerationResult struct {
	SubmissionID        string
	GeneratedSubmission string
	EquivalenceAnalysis string
	ComplianceStatus    domain.ComplianceStatus
	ComplianceScore     int
	ComplianceReport    string
}

// SubmissionPersistence is the submission storage surface the pipeline needs.
type SubmissionPersistence interface {
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus) error
	UpdateStatusIf(ctx context.Context, id string, from, to domain.SubmissionStatus) (bool, error)
	SaveGenerationResult(ctx context.Context, result *GenerationResult) error
}

// GenerationRunPersistence records audit rows for pipeline invocations.
type GenerationRunPersistence interface {
	Create(ctx context.Context, run *domain.GenerationRun) error
}

// TxRepositories exposes the repositories bound to one transaction.
type TxRepositories interface {
	Submissions() SubmissionPersistence
	GenerationRuns() GenerationRunPersistence
}

// TransactionRunner runs a function inside a database transaction.
type TransactionRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// PredicateFinder looks up predicate devices by K-number.
type PredicateFinder interface {
	GetByKNumber(ctx context.Context, kNumber string) (*domain.PredicateDevice, error)
}

// DocumentLister returns the AI-reviewed documents attached to a submission.
type DocumentLister interface {
	ListReviewed(ctx context.Context, submissionID string) ([]*domain.Document, error)
}

// GroundingBuilder assembles regulatory grounding text for a submission.
type GroundingBuilder interface {
	Build(ctx context.Context, sub *domain.Submission) string
}

// CompletionClient is the language model surface the pipeline needs.
type CompletionClient interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	StreamComplete(ctx context.Context, system, prompt string, onChunk func(string) error) (string, error)
	Model() string
}

// ArtifactArchiver stores a copy of the generated document outside the
// database. Archival is best effort: a failure is logged, never surfaced.
type ArtifactArchiver interface {
	ArchiveGeneratedDocument(ctx context.Context, submissionID string, content []byte) error
}

// GenerateOptions controls one pipeline run.
type GenerateOptions struct {
	IncludePredicateAnalysis bool
}

// eventBufferSize bounds the stream channel. Chunk and progress frames are
// dropped oldest-first when the consumer falls behind; the terminal frame is
// always delivered.
const eventBufferSize = 256

// GenerationPipeline runs the phased submission generation flow: load,
// gather predicate and reviewed documents, retrieve grounding context,
// stream the document from the model, run the compliance check, and persist
// the result together with an audit row.
type GenerationPipeline struct {
	submissions SubmissionPersistence
	predicates  PredicateFinder
	documents   DocumentLister
	grounding   GroundingBuilder
	llm         CompletionClient
	txRunner    TransactionRunner
	archiver    ArtifactArchiver
	uuidGen     UUIDGenerator
}

func NewGenerationPipeline(
	submissions SubmissionPersistence,
	predicates PredicateFinder,
	documents DocumentLister,
	grounding GroundingBuilder,
	llm CompletionClient,
	txRunner TransactionRunner,
	archiver ArtifactArchiver,
) *GenerationPipeline {
	return &GenerationPipeline{
		submissions: submissions,
		predicates:  predicates,
		documents:   documents,
		grounding:   grounding,
		llm:         llm,
		txRunner:    txRunner,
		archiver:    archiver,
		uuidGen:     &DefaultUUIDGenerator{},
	}
}

// Run starts the pipeline and returns the event stream. The channel is
// closed after the terminal event (completed or error). Cancelling ctx stops
// the run between phases and rolls the submission status back.
func (p *GenerationPipeline) Run(ctx context.Context, submissionID string, opts GenerateOptions) <-chan ProgressEvent {
	ch := make(chan ProgressEvent, eventBufferSize)
	em := &eventEmitter{ch: ch}

	go func() {
		defer close(ch)
		p.run(ctx, em, submissionID, opts)
	}()

	return ch
}

func (p *GenerationPipeline) run(ctx context.Context, em *eventEmitter, submissionID string, opts GenerateOptions) {
	ctx, span := telemetry.StartSpan(ctx, "GenerationPipeline.Run", telemetry.SpanAttributes{
		SubmissionID: submissionID,
		Operation:    "generate",
	})
	defer span.End()

	em.send(ProgressEvent{Type: EventStarted, Message: "Initialising generation pipeline..."})

	sub, err := p.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			em.send(ProgressEvent{Type: EventError, Message: fmt.Sprintf("Submission %s not found.", submissionID)})
			return
		}
		em.send(ProgressEvent{Type: EventError, Message: err.Error()})
		span.SetError(err)
		return
	}

	if sub.Status == domain.SubmissionStatusGenerating {
		em.send(ProgressEvent{Type: EventError, Message: domain.ErrGenerationInProgress.Error()})
		return
	}
	prevStatus := sub.Status

	// Conditional update so two concurrent runs cannot both claim the
	// submission; the loser sees zero rows changed.
	claimed, err := p.submissions.UpdateStatusIf(ctx, sub.ID, prevStatus, domain.SubmissionStatusGenerating)
	if err != nil {
		em.send(ProgressEvent{Type: EventError, Message: err.Error()})
		span.SetError(err)
		return
	}
	if !claimed {
		em.send(ProgressEvent{Type: EventError, Message: domain.ErrGenerationInProgress.Error()})
		return
	}

	fail := func(err error) {
		p.rollback(ctx, sub.ID, prevStatus)
		em.send(ProgressEvent{Type: EventError, Message: err.Error()})
		span.SetError(err)
	}

	em.send(ProgressEvent{Type: EventProgress, Percent: 8, Message: "Submission loaded. Fetching predicate device data..."})

	var predicate *domain.PredicateDevice
	if sub.PredicateKNumber != "" {
		predicate, err = p.predicates.GetByKNumber(ctx, sub.PredicateKNumber)
		if err != nil {
			if !errors.Is(err, domain.ErrPredicateNotFound) {
				fail(err)
				return
			}
			log.Printf("pipeline: predicate %s not found for submission %s, generating without it",
				sub.PredicateKNumber, sub.ID)
			predicate = nil
		}
	}

	em.send(ProgressEvent{Type: EventProgress, Percent: 20, Message: "Scanning uploaded and AI-reviewed documents..."})

	docs, err := p.documents.ListReviewed(ctx, sub.ID)
	if err != nil {
		fail(err)
		return
	}
	if len(docs) > 0 {
		log.Printf("pipeline: including %d AI-reviewed documents for submission %s", len(docs), sub.ID)
	}

	em.send(ProgressEvent{Type: EventProgress, Percent: 30, Message: "Retrieving relevant FDA regulatory guidance (RAG)..."})

	ragContext := p.grounding.Build(ctx, sub)
	if ragContext != "" {
		log.Printf("pipeline: grounding context built (%d chars) for submission %s", len(ragContext), sub.ID)
	}
	if err := ctx.Err(); err != nil {
		fail(err)
		return
	}

	em.send(ProgressEvent{Type: EventProgress, Percent: 35, Message: "Building 510(k) submission prompt..."})

	prompt := buildSubmissionPrompt(sub, predicate, docs, ragContext)

	em.send(ProgressEvent{Type: EventProgress, Percent: 45, Message: "Connecting to the AI model and starting generation..."})

	generated, err := p.llm.StreamComplete(ctx, submissionSystemPrompt, prompt, func(chunk string) error {
		em.send(ProgressEvent{Type: EventChunk, Text: chunk})
		return ctx.Err()
	})
	if err != nil {
		fail(err)
		return
	}

	em.send(ProgressEvent{Type: EventProgress, Percent: 80, Message: "AI generation complete. Running compliance check..."})

	report, err := p.llm.Complete(ctx, complianceSystemPrompt, buildCompliancePrompt(sub))
	if err != nil {
		fail(err)
		return
	}
	score := ExtractComplianceScore(report)

	em.send(ProgressEvent{Type: EventProgress, Percent: 90, Message: "Saving generated document to database..."})

	var analysis string
	if opts.IncludePredicateAnalysis && predicate != nil {
		analysis, err = p.llm.Complete(ctx, submissionSystemPrompt, buildEquivalencePrompt(sub, predicate))
		if err != nil {
			fail(err)
			return
		}
	}

	result := &GenerationResult{
		SubmissionID:        sub.ID,
		GeneratedSubmission: generated,
		EquivalenceAnalysis: analysis,
		ComplianceStatus:    ComplianceStatusForScore(score),
		ComplianceScore:     score,
		ComplianceReport:    report,
	}
	run := &domain.GenerationRun{
		ID:               p.uuidGen.NewString(),
		SubmissionID:     sub.ID,
		Model:            p.llm.Model(),
		GeneratedChars:   len(generated),
		ComplianceScore:  score,
		IncludedRAG:      ragContext != "",
		IncludedAnalysis: analysis != "",
		CreatedAt:        time.Now().UTC(),
	}

	err = p.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Submissions().SaveGenerationResult(ctx, result); err != nil {
			return err
		}
		return repos.GenerationRuns().Create(ctx, run)
	})
	if err != nil {
		fail(err)
		return
	}

	if p.archiver != nil {
		if err := p.archiver.ArchiveGeneratedDocument(ctx, sub.ID, []byte(generated)); err != nil {
			log.Printf("pipeline: artifact archive failed for submission %s: %v", sub.ID, err)
		}
	}

	compliant := score >= ComplianceThreshold
	em.send(ProgressEvent{
		Type:            EventCompleted,
		Percent:         100,
		SubmissionID:    sub.ID,
		ComplianceScore: &score,
		Compliant:       &compliant,
		Message:         "510(k) submission generated and saved successfully.",
	})
}

// rollback returns the submission to its pre-run status, but only if it is
// still generating. A concurrent run that already wrote a result is left
// alone. Runs on a detached context so a cancelled stream still rolls back.
func (p *GenerationPipeline) rollback(ctx context.Context, id string, prev domain.SubmissionStatus) {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	rolled, err := p.submissions.UpdateStatusIf(rbCtx, id, domain.SubmissionStatusGenerating, prev)
	if err != nil {
		log.Printf("pipeline: status rollback failed for submission %s: %v", id, err)
		return
	}
	if !rolled {
		log.Printf("pipeline: submission %s no longer generating, rollback skipped", id)
	}
}

// eventEmitter writes events to the stream channel without ever blocking
// the producer. When the buffer is full the oldest queued frame is dropped
// to make room, so a slow consumer loses intermediate chunks but always
// receives the most recent frames and the terminal event.
type eventEmitter struct {
	ch chan ProgressEvent
}

func (e *eventEmitter) send(ev ProgressEvent) {
	for {
		select {
		case e.ch <- ev:
			return
		default:
		}
		select {
		case <-e.ch:
		default:
		}
	}
}
