package finding

// ScanResult is the outcome of one complete scan invocation.
// It is immutable once produced: the cache persists it as-is and the
// diff engine compares two results without modifying either.
type ScanResult struct {
	// Findings is the ordered sequence of findings, sorted by
	// (file, line, rule) so results are independent of scheduling.
	Findings []Finding `json:"findings"`

	// Score is the aggregate risk score across all findings.
	Score int `json:"score"`

	// Verdict is the overall risk classification.
	Verdict Verdict `json:"verdict"`

	// FilesScanned counts every regular file visited during the scan,
	// including files that could not be read as text.
	FilesScanned int `json:"files_scanned"`

	// DurationMS is the wall-clock scan duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`
}

// SeverityCounts returns the number of findings at each severity level.
func (r ScanResult) SeverityCounts() map[Severity]int {
	counts := make(map[Severity]int, len(severityBases))
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// ByPhase groups findings by their phase, preserving result order
// within each group.
func (r ScanResult) ByPhase() map[Phase][]Finding {
	grouped := make(map[Phase][]Finding)
	for _, f := range r.Findings {
		grouped[f.Phase] = append(grouped[f.Phase], f)
	}
	return grouped
}
