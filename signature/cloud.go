package signature

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/NOMARJ/sigil/finding"
)

// CloudSignature is an externally supplied detection signature, as
// persisted by the signature sync collaborator.
type CloudSignature struct {
	// ID is the unique signature identifier.
	ID string `json:"id"`

	// Pattern is the uncompiled regular expression source.
	Pattern string `json:"pattern"`

	// Phase names the scan phase, in snake_case or kebab-case.
	// Unknown phases fall back to code_patterns.
	Phase string `json:"phase"`

	// Severity names the severity level. Unknown values fall back to low.
	Severity string `json:"severity"`

	// Description explains what the signature detects.
	Description string `json:"description"`

	// UpdatedAt is the upstream modification timestamp, if known.
	UpdatedAt string `json:"updated_at,omitempty"`
}

// MapPhase maps a signature phase string to a Phase, falling back to
// PhaseCodePatterns for unknown names.
func MapPhase(s string) finding.Phase {
	phase, err := finding.ParsePhase(s)
	if err != nil {
		return finding.PhaseCodePatterns
	}
	return phase
}

// MapSeverity maps a signature severity string to a Severity, falling
// back to SeverityLow for unknown names.
func MapSeverity(s string) finding.Severity {
	severity, err := finding.ParseSeverity(s)
	if err != nil {
		return finding.SeverityLow
	}
	return severity
}

// Compile converts the signature into a Rule. Returns an error if the
// pattern is not a valid regular expression; callers are expected to
// skip such signatures rather than fail.
func (s CloudSignature) Compile() (Rule, error) {
	if strings.TrimSpace(s.ID) == "" {
		return Rule{}, fmt.Errorf("signature has empty id")
	}

	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("signature %s: invalid pattern: %w", s.ID, err)
	}

	phase := MapPhase(s.Phase)
	return Rule{
		ID:          s.ID,
		Phase:       phase,
		Severity:    MapSeverity(s.Severity),
		Pattern:     re,
		Description: s.Description,
		Weight:      phase.Weight(),
	}, nil
}
