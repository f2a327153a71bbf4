package finding

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a finding.
// Severities are totally ordered: Low < Medium < High < Critical.
type Severity string

const (
	// SeverityCritical indicates near-certain malicious intent.
	// Examples: pickle deserialization, hardcoded AWS keys, install hooks
	SeverityCritical Severity = "critical"

	// SeverityHigh indicates likely malicious or highly dangerous patterns.
	// Examples: eval() calls, raw sockets, base64-decoded payloads
	SeverityHigh Severity = "high"

	// SeverityMedium indicates suspicious patterns that warrant review.
	// Examples: subprocess invocations, HTTP client usage
	SeverityMedium Severity = "medium"

	// SeverityLow indicates weak signals with little direct risk.
	// Examples: hidden dotfiles, shallow git clones
	SeverityLow Severity = "low"
)

// severityBases maps severity levels to their base score contribution.
// A finding contributes base x weight to the aggregate score.
var severityBases = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 5,
}

// IsValid returns true if the severity level is valid.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// BaseScore returns the severity's base score contribution.
// Returns 0 for invalid severities.
func (s Severity) BaseScore() int {
	return severityBases[s]
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a string into a Severity value, case-insensitively.
// Returns an error if the string is not a valid severity level.
func ParseSeverity(s string) (Severity, error) {
	severity := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !severity.IsValid() {
		return "", fmt.Errorf("invalid severity: %s", s)
	}
	return severity, nil
}

// CompareSeverity compares two severity levels.
// Returns:
//   - negative if s1 < s2
//   - zero if s1 == s2
//   - positive if s1 > s2
func CompareSeverity(s1, s2 Severity) int {
	b1 := s1.BaseScore()
	b2 := s2.BaseScore()
	if b1 < b2 {
		return -1
	}
	if b1 > b2 {
		return 1
	}
	return 0
}

// AllSeverities returns all severity levels in ascending order.
func AllSeverities() []Severity {
	return []Severity{
		SeverityLow,
		SeverityMedium,
		SeverityHigh,
		SeverityCritical,
	}
}
