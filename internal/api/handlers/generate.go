package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/claritymed/regpilot/internal/api"
	"github.com/claritymed/regpilot/internal/service"
	"github.com/go-chi/chi/v5"
)

type GenerationRunner interface {
	Run(ctx context.Context, submissionID string, opts service.GenerateOptions) <-chan service.ProgressEvent
}

type GenerateHandler struct {
	pipeline GenerationRunner
}

func NewGenerateHandler(pipeline GenerationRunner) *GenerateHandler {
	return &GenerateHandler{pipeline: pipeline}
}

// Stream handles POST /api/v1/submissions/{submissionID}/generate-stream.
//
// The response is newline-delimited JSON: one event object per line, flushed
// as produced. The HTTP status is always 200; failures surface as a terminal
// error event in the stream.
func (h *GenerateHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "submissionID")

	includeAnalysis := true
	if raw := r.URL.Query().Get("include_predicate_analysis"); raw == "false" {
		includeAnalysis = false
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	events := h.pipeline.Run(r.Context(), id, service.GenerateOptions{
		IncludePredicateAnalysis: includeAnalysis,
	})

	enc := json.NewEncoder(w)
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			// Client went away; the pipeline notices via r.Context().
			return
		}
		flusher.Flush()
	}
}
