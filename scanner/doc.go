// Package scanner implements the sigil scan orchestrator: it walks a
// directory tree once, runs the enabled phase detectors over every
// regular file, and assembles an immutable finding.ScanResult.
//
// # Traversal
//
// Symbolic links are not followed. Files that cannot be read, or whose
// content is not valid UTF-8 text, are counted as scanned but produce
// no findings; nothing short of failing to enumerate the root path
// itself aborts a scan.
//
// # Detection
//
// The five line-oriented phases match the active signature.Registry
// rules line by line. Provenance runs once over the full file list and
// directory metadata after enumeration completes. Matched lines are
// truncated to 200 characters in finding snippets.
//
// # Determinism
//
// Per-file detection runs on a bounded worker pool, and the merged
// findings are re-sorted by (file, line, rule) before scoring, so the
// resulting ScanResult is independent of scheduling.
package scanner
