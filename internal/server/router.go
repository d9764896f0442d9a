package server

import (
	"net/http"

	"github.com/claritymed/regpilot/internal/api"
	"github.com/claritymed/regpilot/internal/api/handlers"
	"github.com/claritymed/regpilot/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	KnowledgeHandler  *handlers.KnowledgeHandler
	SubmissionHandler *handlers.SubmissionHandler
	GenerateHandler   *handlers.GenerateHandler
	PredicateHandler  *handlers.PredicateHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/knowledge/search", cfg.KnowledgeHandler.Search)

		r.Route("/submissions", func(r chi.Router) {
			r.Post("/", cfg.SubmissionHandler.Create)
			r.Get("/", cfg.SubmissionHandler.List)
			r.Get("/{submissionID}", cfg.SubmissionHandler.Get)
			r.Post("/{submissionID}/documents", cfg.SubmissionHandler.AddDocument)
			r.Get("/{submissionID}/documents", cfg.SubmissionHandler.ListDocuments)
			r.Get("/{submissionID}/runs", cfg.SubmissionHandler.ListRuns)
			r.Get("/{submissionID}/artifact", cfg.SubmissionHandler.GetArtifact)
			r.Post("/{submissionID}/generate-stream", cfg.GenerateHandler.Stream)
		})

		r.Route("/predicates", func(r chi.Router) {
			r.Post("/", cfg.PredicateHandler.Create)
			r.Get("/{kNumber}", cfg.PredicateHandler.Get)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/knowledge-base/seed", cfg.KnowledgeHandler.Seed)
			r.Get("/knowledge-base/stats", cfg.KnowledgeHandler.Stats)
			r.Get("/knowledge-base", cfg.KnowledgeHandler.List)
			r.Delete("/knowledge-base", cfg.KnowledgeHandler.Clear)
		})
	})

	return r
}
