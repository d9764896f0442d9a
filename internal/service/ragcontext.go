package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/claritymed/regpilot/internal/domain"
)

const (
	broadQueryLimit      = 3
	proceduralQueryLimit = 2

	// maxContextChars bounds the assembled context so the prompt stays
	// well inside model limits even with long knowledge entries.
	maxContextChars = 24000
)

// ContextRetriever is the slice of retriever behavior the context builder needs.
type ContextRetriever interface {
	SearchSimilar(ctx context.Context, query string, k int, section domain.Section) ([]*domain.KnowledgeEntry, error)
}

// RAGContextBuilder assembles regulatory grounding text for a submission by
// running two retrieval passes and rendering the deduplicated results as
// markdown blocks.
type RAGContextBuilder struct {
	retriever ContextRetriever
}

func NewRAGContextBuilder(retriever ContextRetriever) *RAGContextBuilder {
	return &RAGContextBuilder{retriever: retriever}
}

// Build returns the grounding context for the submission, or the empty
// string when nothing relevant is found. Retrieval trouble is logged and
// swallowed: generation must proceed ungrounded rather than fail.
func (b *RAGContextBuilder) Build(ctx context.Context, sub *domain.Submission) (out string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ragcontext: recovered building context for submission %s: %v", sub.ID, r)
			out = ""
		}
	}()

	broad := fmt.Sprintf("%s %s %s", sub.DeviceName, sub.DeviceDescription, sub.IndicationsForUse)
	procedural := fmt.Sprintf("510k premarket notification requirements substantial equivalence %s", sub.DeviceName)

	var entries []*domain.KnowledgeEntry
	seen := make(map[string]struct{})

	for _, q := range []struct {
		query string
		limit int
	}{
		{broad, broadQueryLimit},
		{procedural, proceduralQueryLimit},
	} {
		found, err := b.retriever.SearchSimilar(ctx, q.query, q.limit, "")
		if err != nil {
			log.Printf("ragcontext: retrieval failed for submission %s: %v", sub.ID, err)
			continue
		}
		for _, e := range found {
			if _, ok := seen[e.ID]; ok {
				continue
			}
			seen[e.ID] = struct{}{}
			entries = append(entries, e)
		}
	}

	if len(entries) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(entries))
	total := 0
	for _, e := range entries {
		block := renderContextBlock(e)
		if total+len(block) > maxContextChars {
			break
		}
		total += len(block)
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

func renderContextBlock(e *domain.KnowledgeEntry) string {
	return fmt.Sprintf("### [%s] %s\n*Section: %s*\n\n%s",
		strings.ToUpper(string(e.ContentType)), e.Title, e.Section, e.Content)
}
