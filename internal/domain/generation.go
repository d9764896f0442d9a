package domain

import "time"

// GenerationRun is an audit record of one pipeline invocation, written in
// the same transaction as the generated document.
type GenerationRun struct {
	ID               string
	SubmissionID     string
	Model            string
	GeneratedChars   int
	ComplianceScore  int
	IncludedRAG      bool
	IncludedAnalysis bool
	CreatedAt        time.Time
}
