package signature

import (
	"regexp"

	"github.com/NOMARJ/sigil/finding"
)

// Rule is a single compiled detection rule applied line-by-line to
// scanned files.
type Rule struct {
	// ID is the rule identifier (e.g. "CODE-001", "NET-MCP-002").
	ID string

	// Phase is the scan phase the rule belongs to.
	Phase finding.Phase

	// Severity assigned to findings produced by this rule.
	Severity finding.Severity

	// Pattern is the compiled expression matched against each line.
	Pattern *regexp.Regexp

	// Description is the human-readable explanation prefixed to the
	// finding snippet.
	Description string

	// Weight is the score multiplier carried by findings from this rule.
	Weight int

	// Files restricts the rule to particular filenames. Nil means the
	// rule applies to every file.
	Files func(filename string) bool
}

// AppliesTo reports whether the rule should run against a file with the
// given base name.
func (r Rule) AppliesTo(filename string) bool {
	if r.Files == nil {
		return true
	}
	return r.Files(filename)
}
