// Package diff compares two scan results of the same artifact, for
// example across dependency upgrades, and classifies every finding as
// new, resolved, or unchanged.
package diff

import (
	"fmt"
	"sort"

	"github.com/NOMARJ/sigil/finding"
)

// identity is the comparison key for a finding. Two findings are the
// same defect when they share rule, file, and line; snippets and
// severities are not compared so signature wording updates do not show
// up as churn.
type identity struct {
	rule string
	file string
	line int
}

func keyOf(f finding.Finding) identity {
	return identity{rule: f.Rule, file: f.File, line: f.Line}
}

// Report is the outcome of comparing a baseline scan against a current
// one.
type Report struct {
	New         []finding.Finding `json:"new"`
	Resolved    []finding.Finding `json:"resolved"`
	Unchanged   []finding.Finding `json:"unchanged"`
	BaseScore   int               `json:"base_score"`
	HeadScore   int               `json:"head_score"`
	BaseVerdict finding.Verdict   `json:"base_verdict"`
	HeadVerdict finding.Verdict   `json:"head_verdict"`
	ScoreDelta  int               `json:"score_delta"`
}

// HasChanges reports whether any finding appeared or disappeared
// between the two scans.
func (r Report) HasChanges() bool {
	return len(r.New) > 0 || len(r.Resolved) > 0
}

// Summary renders a one-line description of the comparison.
func (r Report) Summary() string {
	return fmt.Sprintf("%d new, %d resolved, %d unchanged (score: %d -> %d, %+d)",
		len(r.New), len(r.Resolved), len(r.Unchanged),
		r.BaseScore, r.HeadScore, r.ScoreDelta)
}

// Compare classifies head's findings against base. A finding present
// only in head is new, present only in base is resolved, and present in
// both is unchanged. Each bucket is sorted by file, line, then rule.
func Compare(base, head finding.ScanResult) Report {
	baseKeys := make(map[identity]bool, len(base.Findings))
	for _, f := range base.Findings {
		baseKeys[keyOf(f)] = true
	}
	headKeys := make(map[identity]bool, len(head.Findings))
	for _, f := range head.Findings {
		headKeys[keyOf(f)] = true
	}

	report := Report{
		BaseScore:   base.Score,
		HeadScore:   head.Score,
		BaseVerdict: base.Verdict,
		HeadVerdict: head.Verdict,
		ScoreDelta:  head.Score - base.Score,
	}
	for _, f := range head.Findings {
		if baseKeys[keyOf(f)] {
			report.Unchanged = append(report.Unchanged, f)
		} else {
			report.New = append(report.New, f)
		}
	}
	for _, f := range base.Findings {
		if !headKeys[keyOf(f)] {
			report.Resolved = append(report.Resolved, f)
		}
	}

	sortFindings(report.New)
	sortFindings(report.Resolved)
	sortFindings(report.Unchanged)
	return report
}

func sortFindings(fs []finding.Finding) {
	sort.Slice(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule < b.Rule
	})
}
