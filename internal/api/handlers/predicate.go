package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/claritymed/regpilot/internal/api"
	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/service"
	"github.com/go-chi/chi/v5"
)

type PredicateService interface {
	Create(ctx context.Context, input service.CreatePredicateInput) (*domain.PredicateDevice, error)
	GetByKNumber(ctx context.Context, kNumber string) (*domain.PredicateDevice, error)
}

type PredicateHandler struct {
	svc PredicateService
}

func NewPredicateHandler(svc PredicateService) *PredicateHandler {
	return &PredicateHandler{svc: svc}
}

type CreatePredicateRequest struct {
	KNumber           string `json:"k_number"`
	DeviceName        string `json:"device_name"`
	Manufacturer      string `json:"manufacturer"`
	IndicationsForUse string `json:"indications_for_use"`
	Technology        string `json:"technology"`
	ClearedAt         string `json:"cleared_at"`
}

type PredicateResponse struct {
	ID                string `json:"id"`
	KNumber           string `json:"k_number"`
	DeviceName        string `json:"device_name"`
	Manufacturer      string `json:"manufacturer,omitempty"`
	IndicationsForUse string `json:"indications_for_use,omitempty"`
	Technology        string `json:"technology,omitempty"`
	ClearedAt         string `json:"cleared_at,omitempty"`
}

func predicateToResponse(p *domain.PredicateDevice) *PredicateResponse {
	resp := &PredicateResponse{
		ID:                p.ID,
		KNumber:           p.KNumber,
		DeviceName:        p.DeviceName,
		Manufacturer:      p.Manufacturer,
		IndicationsForUse: p.IndicationsForUse,
		Technology:        p.Technology,
	}
	if p.ClearedAt != nil {
		resp.ClearedAt = p.ClearedAt.Format("2006-01-02")
	}
	return resp
}

// Create handles POST /api/v1/predicates
func (h *PredicateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePredicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var clearedAt *time.Time
	if req.ClearedAt != "" {
		parsed, err := time.Parse("2006-01-02", req.ClearedAt)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "cleared_at must be YYYY-MM-DD")
			return
		}
		clearedAt = &parsed
	}

	p, err := h.svc.Create(r.Context(), service.CreatePredicateInput{
		KNumber:           req.KNumber,
		DeviceName:        req.DeviceName,
		Manufacturer:      req.Manufacturer,
		IndicationsForUse: req.IndicationsForUse,
		Technology:        req.Technology,
		ClearedAt:         clearedAt,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, predicateToResponse(p))
}

// Get handles GET /api/v1/predicates/{kNumber}
func (h *PredicateHandler) Get(w http.ResponseWriter, r *http.Request) {
	kNumber := chi.URLParam(r, "kNumber")

	p, err := h.svc.GetByKNumber(r.Context(), kNumber)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, predicateToResponse(p))
}
