package domain

import (
	"fmt"
	"time"
)

// ContentType categorizes a knowledge base entry
type ContentType string

const (
	ContentTypeGuidance         ContentType = "guidance"
	ContentTypePredicateSummary ContentType = "predicate_summary"
	ContentTypeRegulation       ContentType = "regulation"
)

// Section is the high-level regulatory topic tag for a knowledge entry
type Section string

const (
	Section510k               Section = "510k"
	SectionBiocompatibility   Section = "biocompatibility"
	SectionSoftware           Section = "software"
	SectionRiskManagement     Section = "risk_management"
	SectionLabeling           Section = "labeling"
	SectionPerformanceTesting Section = "performance_testing"
	SectionSterilization      Section = "sterilization"
	SectionClinicalData       Section = "clinical_data"
	SectionGeneral            Section = "general"
)

// KnowledgeEntry is one chunk of curated regulatory guidance text plus its
// vector embedding. Entries are immutable after creation; the only mutation
// allowed is a bulk reset of the whole knowledge base or an embedding
// refresh. Title is the deduplication key across seed runs.
type KnowledgeEntry struct {
	ID                string
	Title             string
	Content           string
	ContentType       ContentType
	Section           Section
	Embedding         []float32 // nil when no embedding has been stored
	EmbeddingProvider string    // backend that produced the embedding ("openai", "mock", ...)
	CreatedAt         time.Time
}

// NewKnowledgeEntry creates a new KnowledgeEntry instance
func NewKnowledgeEntry(
	id, title, content string,
	contentType ContentType,
	section Section,
	embedding []float32,
	embeddingProvider string,
	createdAt time.Time,
) *KnowledgeEntry {
	return &KnowledgeEntry{
		ID:                id,
		Title:             title,
		Content:           content,
		ContentType:       contentType,
		Section:           section,
		Embedding:         embedding,
		EmbeddingProvider: embeddingProvider,
		CreatedAt:         createdAt,
	}
}

// ValidateKnowledgeEntry validates a KnowledgeEntry instance
func ValidateKnowledgeEntry(k *KnowledgeEntry) error {
	if k == nil {
		return fmt.Errorf("knowledge entry cannot be nil")
	}

	if k.ID == "" {
		return fmt.Errorf("knowledge entry ID is required")
	}

	if k.Title == "" {
		return fmt.Errorf("knowledge entry Title is required")
	}

	if k.Content == "" {
		return fmt.Errorf("knowledge entry Content is required")
	}

	if !IsValidContentType(k.ContentType) {
		return fmt.Errorf("knowledge entry ContentType is invalid: %s", k.ContentType)
	}

	if !IsValidSection(k.Section) {
		return fmt.Errorf("knowledge entry Section is invalid: %s", k.Section)
	}

	return nil
}

// IsValidContentType checks if a ContentType is valid
func IsValidContentType(t ContentType) bool {
	switch t {
	case ContentTypeGuidance, ContentTypePredicateSummary, ContentTypeRegulation:
		return true
	}
	return false
}

// IsValidSection checks if a Section is valid
func IsValidSection(s Section) bool {
	switch s {
	case Section510k, SectionBiocompatibility, SectionSoftware,
		SectionRiskManagement, SectionLabeling, SectionPerformanceTesting,
		SectionSterilization, SectionClinicalData, SectionGeneral:
		return true
	}
	return false
}
