package service

import (
	"regexp"
	"strconv"

	"github.com/claritymed/regpilot/internal/domain"
)

// ComplianceThreshold is the minimum score treated as compliant.
const ComplianceThreshold = 75

// DefaultComplianceScore is used when no score can be parsed out of the
// model's report.
const DefaultComplianceScore = 50

var complianceScoreRe = regexp.MustCompile(`(?i)(?:compliance\s+)?score[:\s]+(\d+)`)

// ExtractComplianceScore pulls the numeric compliance score out of a
// free-text compliance report and clamps it to [0, 100]. The heuristic is
// deliberately loose: the report is model output and the score line varies
// in formatting from run to run.
func ExtractComplianceScore(report string) int {
	m := complianceScoreRe.FindStringSubmatch(report)
	if m == nil {
		return DefaultComplianceScore
	}
	score, err := strconv.Atoi(m[1])
	if err != nil {
		return DefaultComplianceScore
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ComplianceStatusForScore maps a score to the stored compliance status.
func ComplianceStatusForScore(score int) domain.ComplianceStatus {
	if score >= ComplianceThreshold {
		return domain.ComplianceStatusCompliant
	}
	return domain.ComplianceStatusNonCompliant
}
