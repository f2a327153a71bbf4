package finding

import (
	"fmt"
	"strings"
)

// Verdict is the overall risk classification of a scan.
// Verdicts are never set directly; they are derived from the findings
// and aggregate score by DetermineVerdict.
type Verdict string

const (
	// VerdictClean means the scan produced no findings at all.
	VerdictClean Verdict = "clean"

	// VerdictLowRisk means no known malicious patterns were detected.
	VerdictLowRisk Verdict = "low_risk"

	// VerdictMediumRisk means suspicious patterns were detected.
	VerdictMediumRisk Verdict = "medium_risk"

	// VerdictHighRisk means likely malicious patterns were found.
	VerdictHighRisk Verdict = "high_risk"

	// VerdictCritical means the artifact is almost certainly malicious
	// and must not be installed or executed.
	VerdictCritical Verdict = "critical"
)

// Score thresholds for the verdict ladder. A scan whose aggregate score
// reaches a threshold is classified at that tier or above. These
// boundaries are owned by this package alone; callers must not
// re-derive tiers from scores themselves.
const (
	// MediumRiskThreshold is the lowest score classified MediumRisk.
	MediumRiskThreshold = 10

	// HighRiskThreshold is the lowest score classified HighRisk.
	HighRiskThreshold = 25

	// CriticalThreshold is the lowest score classified Critical.
	CriticalThreshold = 50
)

// IsValid returns true if the verdict is valid.
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictClean, VerdictLowRisk, VerdictMediumRisk, VerdictHighRisk, VerdictCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	return string(v)
}

// DisplayName returns a human-readable name for the verdict.
func (v Verdict) DisplayName() string {
	switch v {
	case VerdictClean:
		return "CLEAN"
	case VerdictLowRisk:
		return "LOW RISK"
	case VerdictMediumRisk:
		return "MEDIUM RISK"
	case VerdictHighRisk:
		return "HIGH RISK"
	case VerdictCritical:
		return "CRITICAL"
	default:
		return string(v)
	}
}

// Tier returns the verdict's position on the risk ladder, from 0 (Clean)
// to 4 (Critical). Invalid verdicts return -1.
func (v Verdict) Tier() int {
	switch v {
	case VerdictClean:
		return 0
	case VerdictLowRisk:
		return 1
	case VerdictMediumRisk:
		return 2
	case VerdictHighRisk:
		return 3
	case VerdictCritical:
		return 4
	default:
		return -1
	}
}

// ParseVerdict parses a string into a Verdict value, case-insensitively.
// Returns an error if the string is not a valid verdict.
func ParseVerdict(s string) (Verdict, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	verdict := Verdict(normalized)
	if !verdict.IsValid() {
		return "", fmt.Errorf("invalid verdict: %s", s)
	}
	return verdict, nil
}

// AllVerdicts returns all verdicts from lowest to highest risk.
func AllVerdicts() []Verdict {
	return []Verdict{
		VerdictClean,
		VerdictLowRisk,
		VerdictMediumRisk,
		VerdictHighRisk,
		VerdictCritical,
	}
}
