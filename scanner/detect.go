package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/NOMARJ/sigil/finding"
	"github.com/NOMARJ/sigil/signature"
)

// MaxSnippetLength bounds the matched-line portion of a finding
// snippet. Longer lines are truncated with a trailing ellipsis.
const MaxSnippetLength = 200

// scanFile reads one file and applies every applicable rule line by
// line. Files that cannot be read or are not valid UTF-8 text yield no
// findings.
func scanFile(entry fileEntry, rules []signature.Rule) []finding.Finding {
	data, err := os.ReadFile(entry.abs)
	if err != nil {
		return nil
	}
	if !utf8.Valid(data) {
		return nil
	}

	base := filepath.Base(entry.rel)
	applicable := rules[:0:0]
	for _, rule := range rules {
		if rule.AppliesTo(base) {
			applicable = append(applicable, rule)
		}
	}
	if len(applicable) == 0 {
		return nil
	}

	var findings []finding.Finding
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		for _, rule := range applicable {
			if !rule.Pattern.MatchString(line) {
				continue
			}
			findings = append(findings, finding.Finding{
				Phase:    rule.Phase,
				Rule:     rule.ID,
				Severity: rule.Severity,
				File:     entry.rel,
				Line:     i + 1,
				Snippet:  fmt.Sprintf("%s: %s", rule.Description, strings.TrimSpace(truncate(line, MaxSnippetLength))),
				Weight:   rule.Weight,
			})
		}
	}
	return findings
}

// truncate shortens s to at most limit bytes, backing off to a rune
// boundary, and appends an ellipsis when anything was cut.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + " ..."
}
