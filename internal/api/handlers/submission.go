package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/claritymed/regpilot/internal/api"
	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/service"
	"github.com/go-chi/chi/v5"
)

type SubmissionService interface {
	Create(ctx context.Context, input service.CreateSubmissionInput) (*domain.Submission, error)
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	List(ctx context.Context, status domain.SubmissionStatus, limit int) ([]*domain.Submission, error)
	AddDocument(ctx context.Context, input service.AddDocumentInput) (*domain.Document, error)
	ListReviewedDocuments(ctx context.Context, submissionID string) ([]*domain.Document, error)
	ListGenerationRuns(ctx context.Context, submissionID string) ([]*domain.GenerationRun, error)
}

// ArtifactStore resolves download URLs for archived generated documents.
type ArtifactStore interface {
	GeneratedDocumentURL(ctx context.Context, submissionID string) (string, error)
}

type SubmissionHandler struct {
	svc       SubmissionService
	artifacts ArtifactStore
}

func NewSubmissionHandler(svc SubmissionService, artifacts ArtifactStore) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, artifacts: artifacts}
}

type CreateSubmissionRequest struct {
	SubmissionType      string            `json:"submission_type"`
	DeviceName          string            `json:"device_name"`
	DeviceDescription   string            `json:"device_description"`
	Manufacturer        string            `json:"manufacturer"`
	IndicationsForUse   string            `json:"indications_for_use"`
	PredicateDeviceName string            `json:"predicate_device_name"`
	PredicateKNumber    string            `json:"predicate_k_number"`
	ClinicalData        map[string]string `json:"clinical_data"`
}

type SubmissionResponse struct {
	ID                  string            `json:"id"`
	SubmissionType      string            `json:"submission_type"`
	Status              string            `json:"status"`
	DeviceName          string            `json:"device_name"`
	DeviceDescription   string            `json:"device_description,omitempty"`
	Manufacturer        string            `json:"manufacturer,omitempty"`
	IndicationsForUse   string            `json:"indications_for_use,omitempty"`
	PredicateDeviceName string            `json:"predicate_device_name,omitempty"`
	PredicateKNumber    string            `json:"predicate_k_number,omitempty"`
	ClinicalData        map[string]string `json:"clinical_data,omitempty"`
	GeneratedSubmission string            `json:"generated_submission,omitempty"`
	EquivalenceAnalysis string            `json:"equivalence_analysis,omitempty"`
	ComplianceStatus    string            `json:"compliance_status,omitempty"`
	ComplianceScore     int               `json:"compliance_score,omitempty"`
	CreatedAt           string            `json:"created_at"`
	UpdatedAt           string            `json:"updated_at"`
}

type DocumentResponse struct {
	ID            string `json:"id"`
	DocumentType  string `json:"document_type"`
	Filename      string `json:"filename"`
	ReviewSummary string `json:"review_summary,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func submissionToResponse(s *domain.Submission) *SubmissionResponse {
	return &SubmissionResponse{
		ID:                  s.ID,
		SubmissionType:      string(s.SubmissionType),
		Status:              string(s.Status),
		DeviceName:          s.DeviceName,
		DeviceDescription:   s.DeviceDescription,
		Manufacturer:        s.Manufacturer,
		IndicationsForUse:   s.IndicationsForUse,
		PredicateDeviceName: s.PredicateDeviceName,
		PredicateKNumber:    s.PredicateKNumber,
		ClinicalData:        s.ClinicalData,
		GeneratedSubmission: s.GeneratedSubmission,
		EquivalenceAnalysis: s.EquivalenceAnalysis,
		ComplianceStatus:    string(s.ComplianceStatus),
		ComplianceScore:     s.ComplianceScore,
		CreatedAt:           s.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:           s.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Create handles POST /api/v1/submissions
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DeviceName == "" {
		api.Error(w, http.StatusBadRequest, "device_name is required")
		return
	}

	sub, err := h.svc.Create(r.Context(), service.CreateSubmissionInput{
		SubmissionType:      domain.SubmissionType(req.SubmissionType),
		DeviceName:          req.DeviceName,
		DeviceDescription:   req.DeviceDescription,
		Manufacturer:        req.Manufacturer,
		IndicationsForUse:   req.IndicationsForUse,
		PredicateDeviceName: req.PredicateDeviceName,
		PredicateKNumber:    req.PredicateKNumber,
		ClinicalData:        req.ClinicalData,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, submissionToResponse(sub))
}

// Get handles GET /api/v1/submissions/{submissionID}
func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "submissionID")

	sub, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, submissionToResponse(sub))
}

// List handles GET /api/v1/submissions
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	subs, err := h.svc.List(r.Context(), domain.SubmissionStatus(r.URL.Query().Get("status")), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*SubmissionResponse, 0, len(subs))
	for _, s := range subs {
		responses = append(responses, submissionToResponse(s))
	}
	api.Success(w, http.StatusOK, responses)
}

type AddDocumentRequest struct {
	DocumentType  string `json:"document_type"`
	Filename      string `json:"filename"`
	AIReviewed    bool   `json:"ai_reviewed"`
	ReviewSummary string `json:"review_summary"`
}

// AddDocument handles POST /api/v1/submissions/{submissionID}/documents
func (h *SubmissionHandler) AddDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "submissionID")

	var req AddDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.svc.AddDocument(r.Context(), service.AddDocumentInput{
		SubmissionID:  id,
		DocumentType:  req.DocumentType,
		Filename:      req.Filename,
		AIReviewed:    req.AIReviewed,
		ReviewSummary: req.ReviewSummary,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, &DocumentResponse{
		ID:            doc.ID,
		DocumentType:  doc.DocumentType,
		Filename:      doc.Filename,
		ReviewSummary: doc.ReviewSummary,
		CreatedAt:     doc.CreatedAt.Format("2006-01-02T15:04:05Z"),
	})
}

// ListDocuments handles GET /api/v1/submissions/{submissionID}/documents
func (h *SubmissionHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "submissionID")

	docs, err := h.svc.ListReviewedDocuments(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		responses = append(responses, &DocumentResponse{
			ID:            d.ID,
			DocumentType:  d.DocumentType,
			Filename:      d.Filename,
			ReviewSummary: d.ReviewSummary,
			CreatedAt:     d.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	api.Success(w, http.StatusOK, responses)
}

type GenerationRunResponse struct {
	ID               string `json:"id"`
	Model            string `json:"model"`
	GeneratedChars   int    `json:"generated_chars"`
	ComplianceScore  int    `json:"compliance_score"`
	IncludedRAG      bool   `json:"included_rag"`
	IncludedAnalysis bool   `json:"included_analysis"`
	CreatedAt        string `json:"created_at"`
}

// ListRuns handles GET /api/v1/submissions/{submissionID}/runs
func (h *SubmissionHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "submissionID")

	runs, err := h.svc.ListGenerationRuns(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*GenerationRunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, &GenerationRunResponse{
			ID:               run.ID,
			Model:            run.Model,
			GeneratedChars:   run.GeneratedChars,
			ComplianceScore:  run.ComplianceScore,
			IncludedRAG:      run.IncludedRAG,
			IncludedAnalysis: run.IncludedAnalysis,
			CreatedAt:        run.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	api.Success(w, http.StatusOK, responses)
}

type ArtifactResponse struct {
	SubmissionID string `json:"submission_id"`
	URL          string `json:"url"`
}

// GetArtifact handles GET /api/v1/submissions/{submissionID}/artifact
func (h *SubmissionHandler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "submissionID")

	sub, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if sub.GeneratedSubmission == "" {
		api.Error(w, http.StatusNotFound, "no generated document for this submission")
		return
	}

	url, err := h.artifacts.GeneratedDocumentURL(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &ArtifactResponse{SubmissionID: id, URL: url})
}
