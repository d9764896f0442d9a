package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/claritymed/regpilot/internal/domain"
)

const submissionSystemPrompt = "You are an FDA regulatory affairs expert specializing in medical device submissions. " +
	"Generate comprehensive, compliant 510(k) premarket notification submissions. " +
	"Use clear section headers, professional regulatory language, and follow 21 CFR Part 807."

const complianceSystemPrompt = `You are a regulatory compliance expert specializing in 21 CFR Part 11 (Electronic Records; Electronic Signatures).

Your role is to ensure FDA submission documents and processes comply with federal regulations.

Compliance scoring:
- 90-100: Fully compliant
- 75-89: Mostly compliant (minor issues)
- 60-74: Partially compliant (significant gaps)
- Below 60: Non-compliant (major issues)

Remember:
- Be thorough and detail-oriented
- Cite specific CFR sections
- Provide actionable recommendations
- Focus on risk-based approach`

// buildSubmissionPrompt assembles the generation prompt from the submission
// record, its predicate device, AI-reviewed supporting documents, and the
// retrieved regulatory grounding context.
func buildSubmissionPrompt(sub *domain.Submission, predicate *domain.PredicateDevice, docs []*domain.Document, ragContext string) string {
	var b strings.Builder

	b.WriteString("Generate a comprehensive 510(k) Premarket Notification submission for the following device:\n\n")
	b.WriteString("**Device Information:**\n")
	fmt.Fprintf(&b, "- Device Name: %s\n", sub.DeviceName)
	fmt.Fprintf(&b, "- Manufacturer: %s\n", orDefault(sub.Manufacturer, "Not specified"))
	fmt.Fprintf(&b, "- Description: %s\n", orDefault(sub.DeviceDescription, "Not provided"))
	fmt.Fprintf(&b, "- Indications for Use: %s\n", orDefault(sub.IndicationsForUse, "Not provided"))

	b.WriteString("\n**Predicate Device:**\n")
	if predicate != nil {
		b.WriteString(formatPredicate(predicate))
	} else {
		b.WriteString("No predicate device specified\n")
	}

	b.WriteString("\n**Clinical Data:**\n")
	b.WriteString(formatClinicalData(sub.ClinicalData))

	if len(docs) > 0 {
		b.WriteString("\n### SUPPORTING DOCUMENTS (AI-Reviewed):\n")
		b.WriteString("The following documents were uploaded by the regulatory team and " +
			"reviewed by AI. Incorporate their key findings into the relevant " +
			"sections of the submission.\n\n")
		for i, doc := range docs {
			fmt.Fprintf(&b, "**Document %d: %s** (File: %s)\n%s\n\n",
				i+1, doc.DocumentType, doc.Filename, doc.ReviewSummary)
		}
	}

	if ragContext != "" {
		b.WriteString("\n## RELEVANT FDA REGULATORY GUIDANCE (Retrieved from Knowledge Base):\n")
		b.WriteString("The following regulatory guidance has been retrieved to help ensure " +
			"this submission meets current FDA standards. Incorporate applicable " +
			"requirements into the relevant sections below.\n\n")
		b.WriteString(ragContext)
		b.WriteString("\n")
	}

	b.WriteString(`
Generate a complete submission document with the following sections:
1. EXECUTIVE SUMMARY
2. DEVICE DESCRIPTION
3. INDICATIONS FOR USE
4. TECHNOLOGICAL CHARACTERISTICS
5. PERFORMANCE TESTING
6. SUBSTANTIAL EQUIVALENCE COMPARISON
7. CLINICAL SUMMARY (if applicable)
8. LABELING
9. CONCLUSION

Each section should be comprehensive, professionally written, and FDA-compliant.`)

	return b.String()
}

// buildCompliancePrompt asks the model to audit the submission metadata
// against 21 CFR Part 11 and emit a scored compliance report.
func buildCompliancePrompt(sub *domain.Submission) string {
	var b strings.Builder

	b.WriteString("Perform a comprehensive 21 CFR Part 11 compliance check for the following FDA submission:\n\n")
	b.WriteString("**Submission Information:**\n")
	fmt.Fprintf(&b, "- Device Name: %s\n", sub.DeviceName)
	fmt.Fprintf(&b, "- Submission Type: %s\n", sub.SubmissionType)
	fmt.Fprintf(&b, "- Status: %s\n", sub.Status)
	fmt.Fprintf(&b, "- Created: %s\n", sub.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))

	b.WriteString(`
Perform compliance analysis covering:

1. ELECTRONIC RECORDS COMPLIANCE (21 CFR Part 11, Subpart B)
2. ELECTRONIC SIGNATURES COMPLIANCE (21 CFR Part 11, Subpart C)
3. AUDIT TRAIL REQUIREMENTS
4. DATA INTEGRITY (ALCOA+)
5. COMPLIANCE SCORE (0-100)
   - Overall compliance score
   - Scoring breakdown by section
6. IDENTIFIED ISSUES
   - Severity (Critical/High/Medium/Low) with CFR section references
7. RECOMMENDATIONS

Format as structured compliance report.`)

	return b.String()
}

// buildEquivalencePrompt asks for a side-by-side substantial equivalence
// analysis of the subject device against its predicate.
func buildEquivalencePrompt(sub *domain.Submission, predicate *domain.PredicateDevice) string {
	var b strings.Builder

	b.WriteString("Perform a detailed substantial equivalence analysis comparing:\n\n")
	b.WriteString("**Subject Device:**\n")
	fmt.Fprintf(&b, "- Name: %s\n", sub.DeviceName)
	fmt.Fprintf(&b, "- Description: %s\n", sub.DeviceDescription)
	fmt.Fprintf(&b, "- Indications: %s\n", sub.IndicationsForUse)

	b.WriteString("\n**Predicate Device:**\n")
	fmt.Fprintf(&b, "- Name: %s\n", predicate.DeviceName)
	fmt.Fprintf(&b, "- K-Number: %s\n", predicate.KNumber)
	fmt.Fprintf(&b, "- Indications: %s\n", predicate.IndicationsForUse)
	fmt.Fprintf(&b, "- Technology: %s\n", predicate.Technology)

	b.WriteString(`
Create a comprehensive substantial equivalence analysis covering:

1. INTENDED USE COMPARISON
2. TECHNOLOGICAL CHARACTERISTICS
   - Materials and design, performance specifications, operating principles
3. PERFORMANCE DATA
   - Demonstrate equivalent safety and effectiveness
4. CONCLUSION
   - Clear statement of substantial equivalence

Use a table format for side-by-side comparisons where appropriate.`)

	return b.String()
}

func formatPredicate(p *domain.PredicateDevice) string {
	return fmt.Sprintf(
		"- K-Number: %s\n- Device Name: %s\n- Manufacturer: %s\n- Indications: %s\n",
		orDefault(p.KNumber, "N/A"),
		orDefault(p.DeviceName, "N/A"),
		orDefault(p.Manufacturer, "N/A"),
		orDefault(p.IndicationsForUse, "N/A"),
	)
}

func formatClinicalData(data map[string]string) string {
	if len(data) == 0 {
		return "No clinical data provided\n"
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, data[k])
	}
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
