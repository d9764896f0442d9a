package domain

import "time"

// Document is a supporting document attached to a submission. Only documents
// that went through AI review (ReviewSummary populated) are fed into the
// generation prompt.
type Document struct {
	ID            string
	SubmissionID  string
	DocumentType  string
	Filename      string
	AIReviewed    bool
	ReviewSummary string
	CreatedAt     time.Time
}

// PredicateDevice is a previously cleared device referenced by K-number for
// substantial equivalence comparison.
type PredicateDevice struct {
	ID                string
	KNumber           string
	DeviceName        string
	Manufacturer      string
	IndicationsForUse string
	Technology        string
	ClearedAt         *time.Time
}
