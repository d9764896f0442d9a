package domain

import (
	"fmt"
	"time"
)

// SubmissionType represents the regulatory pathway for a submission
type SubmissionType string

const (
	SubmissionType510k   SubmissionType = "510k"
	SubmissionTypePMA    SubmissionType = "pma"
	SubmissionTypeDeNovo SubmissionType = "de_novo"
	SubmissionTypeIDE    SubmissionType = "ide"
)

// SubmissionStatus represents the lifecycle state of a submission
type SubmissionStatus string

const (
	SubmissionStatusDraft         SubmissionStatus = "draft"
	SubmissionStatusGenerating    SubmissionStatus = "generating"
	SubmissionStatusReviewPending SubmissionStatus = "review_pending"
	SubmissionStatusApproved      SubmissionStatus = "approved"
	SubmissionStatusRejected      SubmissionStatus = "rejected"
	SubmissionStatusSubmitted     SubmissionStatus = "submitted"
)

// ComplianceStatus represents the outcome of the compliance check pass
type ComplianceStatus string

const (
	ComplianceStatusCompliant    ComplianceStatus = "compliant"
	ComplianceStatusNonCompliant ComplianceStatus = "non_compliant"
	ComplianceStatusNeedsReview  ComplianceStatus = "needs_review"
)

// Submission is a regulatory device submission. The generation pipeline
// owns the GeneratedSubmission, EquivalenceAnalysis and compliance fields;
// everything else is user-supplied.
type Submission struct {
	ID                  string
	SubmissionType      SubmissionType
	Status              SubmissionStatus
	DeviceName          string
	DeviceDescription   string
	Manufacturer        string
	IndicationsForUse   string
	PredicateDeviceName string
	PredicateKNumber    string
	ClinicalData        map[string]string

	GeneratedSubmission string
	EquivalenceAnalysis string

	ComplianceStatus ComplianceStatus
	ComplianceScore  int
	ComplianceReport string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateSubmission validates a Submission instance
func ValidateSubmission(s *Submission) error {
	if s == nil {
		return fmt.Errorf("submission cannot be nil")
	}

	if s.ID == "" {
		return fmt.Errorf("submission ID is required")
	}

	if s.DeviceName == "" {
		return fmt.Errorf("submission DeviceName is required")
	}

	if !IsValidSubmissionType(s.SubmissionType) {
		return fmt.Errorf("submission SubmissionType is invalid: %s", s.SubmissionType)
	}

	if !IsValidSubmissionStatus(s.Status) {
		return fmt.Errorf("submission Status is invalid: %s", s.Status)
	}

	return nil
}

// IsValidSubmissionType checks if a SubmissionType is valid
func IsValidSubmissionType(t SubmissionType) bool {
	switch t {
	case SubmissionType510k, SubmissionTypePMA, SubmissionTypeDeNovo, SubmissionTypeIDE:
		return true
	}
	return false
}

// IsValidSubmissionStatus checks if a SubmissionStatus is valid
func IsValidSubmissionStatus(s SubmissionStatus) bool {
	switch s {
	case SubmissionStatusDraft, SubmissionStatusGenerating, SubmissionStatusReviewPending,
		SubmissionStatusApproved, SubmissionStatusRejected, SubmissionStatusSubmitted:
		return true
	}
	return false
}

// IsValidComplianceStatus checks if a ComplianceStatus is valid
func IsValidComplianceStatus(s ComplianceStatus) bool {
	switch s {
	case ComplianceStatusCompliant, ComplianceStatusNonCompliant, ComplianceStatusNeedsReview:
		return true
	}
	return false
}
