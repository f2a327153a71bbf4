package finding

// Score calculates the aggregate risk score for a set of findings.
//
// Each finding contributes severity base x weight. The weight on each
// finding already reflects the phase multiplier, set when the finding
// was created.
func Score(findings []Finding) int {
	total := 0
	for _, f := range findings {
		total += f.Contribution()
	}
	return total
}

// DetermineVerdict derives the overall verdict from findings and the
// aggregate score:
//
//   - Clean: no findings at all
//   - LowRisk: score 1-9
//   - MediumRisk: score 10-24
//   - HighRisk: score 25-49
//   - Critical: score >= 50, or any Critical-severity finding from the
//     install-hooks phase (immediate escalation regardless of score)
//
// The function is pure: identical findings and score always yield the
// identical verdict.
func DetermineVerdict(findings []Finding, score int) Verdict {
	if len(findings) == 0 {
		return VerdictClean
	}

	for _, f := range findings {
		if f.Phase == PhaseInstallHooks && f.Severity == SeverityCritical {
			return VerdictCritical
		}
	}

	switch {
	case score >= CriticalThreshold:
		return VerdictCritical
	case score >= HighRiskThreshold:
		return VerdictHighRisk
	case score >= MediumRiskThreshold:
		return VerdictMediumRisk
	default:
		return VerdictLowRisk
	}
}
