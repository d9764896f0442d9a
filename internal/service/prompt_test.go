package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claritymed/regpilot/internal/domain"
)

func TestBuildSubmissionPrompt_FullSubmission(t *testing.T) {
	sub := pipelineSubmission()
	sub.Manufacturer = "ClarityMed"
	sub.ClinicalData = map[string]string{
		"study_size":     "120 patients",
		"adverse_events": "none reported",
	}
	predicate := &domain.PredicateDevice{
		KNumber:           "K991234",
		DeviceName:        "GlucoSure Monitor",
		Manufacturer:      "MedTech Inc",
		IndicationsForUse: "Glucose monitoring",
	}
	docs := []*domain.Document{
		{DocumentType: "bench_testing", Filename: "iso10993.pdf", ReviewSummary: "Endpoints addressed."},
	}

	prompt := buildSubmissionPrompt(sub, predicate, docs, "### [GUIDANCE] 510(k) Program\n\ncontent")

	assert.Contains(t, prompt, "- Device Name: GlucoTrack CGM")
	assert.Contains(t, prompt, "- Manufacturer: ClarityMed")
	assert.Contains(t, prompt, "- K-Number: K991234")
	assert.Contains(t, prompt, "**Document 1: bench_testing** (File: iso10993.pdf)")
	assert.Contains(t, prompt, "RELEVANT FDA REGULATORY GUIDANCE")
	assert.Contains(t, prompt, "### [GUIDANCE] 510(k) Program")
	assert.Contains(t, prompt, "SUBSTANTIAL EQUIVALENCE COMPARISON")

	// Clinical data keys are emitted in sorted order so prompts are stable.
	adverse := strings.Index(prompt, "- adverse_events: none reported")
	study := strings.Index(prompt, "- study_size: 120 patients")
	require.Greater(t, adverse, 0)
	require.Greater(t, study, 0)
	assert.Less(t, adverse, study)
}

func TestBuildSubmissionPrompt_SparseSubmission(t *testing.T) {
	sub := &domain.Submission{ID: "sub-1", DeviceName: "GlucoTrack CGM"}

	prompt := buildSubmissionPrompt(sub, nil, nil, "")

	assert.Contains(t, prompt, "- Manufacturer: Not specified")
	assert.Contains(t, prompt, "- Description: Not provided")
	assert.Contains(t, prompt, "- Indications for Use: Not provided")
	assert.Contains(t, prompt, "No predicate device specified")
	assert.Contains(t, prompt, "No clinical data provided")
	assert.NotContains(t, prompt, "SUPPORTING DOCUMENTS")
	assert.NotContains(t, prompt, "RELEVANT FDA REGULATORY GUIDANCE")
}

func TestBuildCompliancePrompt(t *testing.T) {
	sub := pipelineSubmission()

	prompt := buildCompliancePrompt(sub)

	assert.Contains(t, prompt, "21 CFR Part 11 compliance check")
	assert.Contains(t, prompt, "- Device Name: GlucoTrack CGM")
	assert.Contains(t, prompt, "- Submission Type: 510k")
	assert.Contains(t, prompt, "- Status: draft")
	assert.Contains(t, prompt, "COMPLIANCE SCORE (0-100)")
}

func TestBuildEquivalencePrompt(t *testing.T) {
	sub := pipelineSubmission()
	predicate := &domain.PredicateDevice{
		KNumber:           "K991234",
		DeviceName:        "GlucoSure Monitor",
		IndicationsForUse: "Glucose monitoring",
		Technology:        "Electrochemical sensor",
	}

	prompt := buildEquivalencePrompt(sub, predicate)

	assert.Contains(t, prompt, "**Subject Device:**")
	assert.Contains(t, prompt, "- Name: GlucoTrack CGM")
	assert.Contains(t, prompt, "**Predicate Device:**")
	assert.Contains(t, prompt, "- K-Number: K991234")
	assert.Contains(t, prompt, "- Technology: Electrochemical sensor")
	assert.Contains(t, prompt, "INTENDED USE COMPARISON")
}

func TestFormatPredicateDefaults(t *testing.T) {
	out := formatPredicate(&domain.PredicateDevice{KNumber: "K991234"})

	assert.Contains(t, out, "- K-Number: K991234")
	assert.Contains(t, out, "- Device Name: N/A")
	assert.Contains(t, out, "- Manufacturer: N/A")
	assert.Contains(t, out, "- Indications: N/A")
}
