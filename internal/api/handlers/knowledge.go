package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/claritymed/regpilot/internal/api"
	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/service"
)

type KnowledgeService interface {
	Search(ctx context.Context, input service.SearchInput) (*service.SearchOutput, error)
	List(ctx context.Context, input service.ListKnowledgeInput) (*service.KnowledgePageResult, error)
	Stats(ctx context.Context) (*service.KnowledgeStats, error)
	Clear(ctx context.Context) (int64, error)
}

type KnowledgeSeeder interface {
	Seed(ctx context.Context, force bool) (int, error)
}

type KnowledgeHandler struct {
	svc    KnowledgeService
	seeder KnowledgeSeeder
}

func NewKnowledgeHandler(svc KnowledgeService, seeder KnowledgeSeeder) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc, seeder: seeder}
}

type KnowledgeEntryResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ContentType  string `json:"content_type"`
	Section      string `json:"section"`
	Content      string `json:"content,omitempty"`
	Preview      string `json:"content_preview,omitempty"`
	HasEmbedding bool   `json:"has_embedding"`
	CreatedAt    string `json:"created_at"`
}

type SearchResponse struct {
	Query   string                    `json:"query"`
	Section string                    `json:"section,omitempty"`
	Count   int                       `json:"count"`
	Results []*KnowledgeEntryResponse `json:"results"`
}

type ListKnowledgeResponse struct {
	Entries    []*KnowledgeEntryResponse `json:"entries"`
	NextCursor string                    `json:"next_cursor,omitempty"`
	HasMore    bool                      `json:"has_more"`
}

type SeedResponse struct {
	Status          string `json:"status"`
	EntriesInserted int    `json:"entries_inserted"`
	Message         string `json:"message"`
}

type StatsResponse struct {
	TotalEntries         int64            `json:"total_entries"`
	EntriesBySection     map[string]int64 `json:"entries_by_section"`
	EntriesByContentType map[string]int64 `json:"entries_by_content_type"`
	HasEmbeddings        int64            `json:"has_embeddings"`
	MissingEmbeddings    int64            `json:"missing_embeddings"`
}

type ClearResponse struct {
	Status         string `json:"status"`
	EntriesDeleted int64  `json:"entries_deleted"`
	Message        string `json:"message"`
}

const (
	previewLength       = 200
	searchPreviewLength = 400
)

func entryToResponse(e *domain.KnowledgeEntry, fullContent bool) *KnowledgeEntryResponse {
	resp := &KnowledgeEntryResponse{
		ID:           e.ID,
		Title:        e.Title,
		ContentType:  string(e.ContentType),
		Section:      string(e.Section),
		HasEmbedding: len(e.Embedding) > 0,
		CreatedAt:    e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if fullContent {
		// Search results carry the full content plus a longer preview.
		resp.Content = e.Content
		resp.Preview = truncateContent(e.Content, searchPreviewLength)
	} else {
		resp.Preview = truncateContent(e.Content, previewLength)
	}
	return resp
}

func truncateContent(s string, limit int) string {
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// Search handles GET /api/v1/knowledge/search
func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	out, err := h.svc.Search(r.Context(), service.SearchInput{
		Query:   query,
		Limit:   limit,
		Section: domain.Section(r.URL.Query().Get("section")),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results := make([]*KnowledgeEntryResponse, 0, len(out.Results))
	for _, e := range out.Results {
		results = append(results, entryToResponse(e, true))
	}

	api.Success(w, http.StatusOK, &SearchResponse{
		Query:   out.Query,
		Section: string(out.Section),
		Count:   len(results),
		Results: results,
	})
}

// List handles GET /api/v1/admin/knowledge-base
func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	out, err := h.svc.List(r.Context(), service.ListKnowledgeInput{
		Cursor:      r.URL.Query().Get("cursor"),
		Limit:       limit,
		Section:     domain.Section(r.URL.Query().Get("section")),
		ContentType: domain.ContentType(r.URL.Query().Get("content_type")),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	entries := make([]*KnowledgeEntryResponse, 0, len(out.Items))
	for _, e := range out.Items {
		entries = append(entries, entryToResponse(e, false))
	}

	api.Success(w, http.StatusOK, &ListKnowledgeResponse{
		Entries:    entries,
		NextCursor: out.NextCursor,
		HasMore:    out.HasMore,
	})
}

// Stats handles GET /api/v1/admin/knowledge-base/stats
func (h *KnowledgeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &StatsResponse{
		TotalEntries:         stats.Total,
		EntriesBySection:     stats.BySection,
		EntriesByContentType: stats.ByContentType,
		HasEmbeddings:        stats.WithEmbeddings,
		MissingEmbeddings:    stats.MissingEmbeddings,
	})
}

// Seed handles POST /api/v1/admin/knowledge-base/seed
func (h *KnowledgeHandler) Seed(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	inserted, err := h.seeder.Seed(r.Context(), force)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &SeedResponse{
		Status:          "success",
		EntriesInserted: inserted,
		Message:         fmt.Sprintf("Knowledge base seeded: %d new entries inserted.", inserted),
	})
}

// Clear handles DELETE /api/v1/admin/knowledge-base
func (h *KnowledgeHandler) Clear(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.Clear(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &ClearResponse{
		Status:         "success",
		EntriesDeleted: deleted,
		Message:        fmt.Sprintf("Deleted %d entries from the knowledge base.", deleted),
	})
}
