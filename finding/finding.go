package finding

import "fmt"

// Finding represents a single security signal discovered during a scan.
// Findings are immutable once created: the weight is fixed at creation
// time and must not be recomputed from the phase later, because
// provenance findings vary their own weight per rule.
type Finding struct {
	// Phase is the scan phase that produced this finding.
	Phase Phase `json:"phase"`

	// Rule is the identifier of the rule that matched (e.g. "CODE-001").
	Rule string `json:"rule"`

	// Severity is the severity level of the finding.
	Severity Severity `json:"severity"`

	// File is the path of the flagged file, relative to the scan root.
	File string `json:"file"`

	// Line is the 1-based line number of the match. Zero for findings
	// that are not line-oriented (all provenance findings).
	Line int `json:"line,omitempty"`

	// Snippet is a human-readable description with the matched line,
	// truncated to 200 characters.
	Snippet string `json:"snippet"`

	// Weight is the score multiplier for this finding. Always >= 1.
	Weight int `json:"weight"`
}

// New creates a Finding with the given attributes.
func New(phase Phase, rule string, severity Severity, file string, line int, snippet string, weight int) Finding {
	return Finding{
		Phase:    phase,
		Rule:     rule,
		Severity: severity,
		File:     file,
		Line:     line,
		Snippet:  snippet,
		Weight:   weight,
	}
}

// Validate checks that the finding has all required fields and valid values.
func (f Finding) Validate() error {
	if !f.Phase.IsValid() {
		return fmt.Errorf("invalid phase: %s", f.Phase)
	}
	if f.Rule == "" {
		return fmt.Errorf("rule identifier is required")
	}
	if !f.Severity.IsValid() {
		return fmt.Errorf("invalid severity: %s", f.Severity)
	}
	if f.File == "" {
		return fmt.Errorf("file path is required")
	}
	if f.Line < 0 {
		return fmt.Errorf("line number must be >= 0, got %d", f.Line)
	}
	if f.Weight < 1 {
		return fmt.Errorf("weight must be >= 1, got %d", f.Weight)
	}
	return nil
}

// Contribution returns this finding's contribution to the aggregate
// score: severity base multiplied by the finding's weight.
func (f Finding) Contribution() int {
	return f.Severity.BaseScore() * f.Weight
}
