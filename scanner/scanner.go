package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/NOMARJ/sigil/finding"
	"github.com/NOMARJ/sigil/signature"
)

// DefaultWorkers is the default size of the per-file detection pool.
const DefaultWorkers = 4

// Scanner runs the detection pipeline over a directory tree.
type Scanner struct {
	registry *signature.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
	workers  int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithRegistry sets the active rule set. Defaults to the built-in rules.
func WithRegistry(r *signature.Registry) Option {
	return func(s *Scanner) {
		s.registry = r
	}
}

// WithLogger sets a structured logger for scan diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer; each scan is recorded as a
// single span carrying the file count, score, and verdict.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Scanner) {
		s.tracer = tracer
	}
}

// WithWorkers bounds the per-file detection pool. Values below 1 keep
// the default.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n >= 1 {
			s.workers = n
		}
	}
}

// New creates a Scanner with the given options.
func New(opts ...Option) *Scanner {
	s := &Scanner{workers: DefaultWorkers}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = signature.NewRegistry()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Filter restricts a single scan invocation.
type Filter struct {
	// Phases limits detection to the named phases. Names are
	// case-insensitive; unrecognized names are ignored. Empty means
	// all phases, and so does a filter whose names are all
	// unrecognized: a stale name list widens the scan rather than
	// silently running no detectors.
	Phases []string

	// MinSeverity discards findings below the named severity
	// ("low"/"medium"/"high"/"critical"). Empty or unrecognized
	// names mean no minimum.
	MinSeverity string
}

// fileEntry is one regular file discovered during enumeration.
type fileEntry struct {
	rel  string // slash-separated path relative to the scan root
	abs  string
	size int64
}

// Scan traverses root and returns the assembled scan result. Root may
// be a directory or a single file. The only reportable error is a
// failure to enumerate root itself; unreadable files and undecodable
// content are skipped.
func (s *Scanner) Scan(ctx context.Context, root string, filter Filter) (finding.ScanResult, error) {
	start := time.Now()

	var span trace.Span
	if s.tracer != nil {
		_, span = s.tracer.Start(ctx, "sigil.scan",
			trace.WithAttributes(attribute.String("sigil.root", root)))
		defer span.End()
	}

	entries, err := enumerate(root)
	if err != nil {
		return finding.ScanResult{}, fmt.Errorf("scan %s: %w", root, err)
	}

	enabled := enabledPhases(filter.Phases)

	var findings []finding.Finding
	if enabled[finding.PhaseProvenance] {
		findings = append(findings, scanProvenance(root, entries)...)
	}

	findings = append(findings, s.scanFiles(entries, enabled)...)

	// Deterministic order regardless of worker scheduling.
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].File != findings[j].File {
			return findings[i].File < findings[j].File
		}
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Rule < findings[j].Rule
	})

	if min, err := finding.ParseSeverity(filter.MinSeverity); err == nil {
		kept := findings[:0]
		for _, f := range findings {
			if finding.CompareSeverity(f.Severity, min) >= 0 {
				kept = append(kept, f)
			}
		}
		findings = kept
	}

	score := finding.Score(findings)
	result := finding.ScanResult{
		Findings:     findings,
		Score:        score,
		Verdict:      finding.DetermineVerdict(findings, score),
		FilesScanned: len(entries),
		DurationMS:   time.Since(start).Milliseconds(),
	}

	if span != nil {
		span.SetAttributes(
			attribute.Int("sigil.files_scanned", result.FilesScanned),
			attribute.Int("sigil.score", result.Score),
			attribute.String("sigil.verdict", result.Verdict.String()),
		)
	}

	s.logger.Debug("scan complete",
		"root", root,
		"files_scanned", result.FilesScanned,
		"findings", len(result.Findings),
		"score", result.Score,
		"verdict", result.Verdict.String(),
	)
	return result, nil
}

// scanFiles runs the line-oriented detectors over every entry on a
// bounded worker pool. Results are collected per entry index so the
// merged order does not depend on scheduling.
func (s *Scanner) scanFiles(entries []fileEntry, enabled map[finding.Phase]bool) []finding.Finding {
	rules := s.activeLineRules(enabled)
	if len(rules) == 0 || len(entries) == 0 {
		return nil
	}

	perFile := make([][]finding.Finding, len(entries))
	indexes := make(chan int)

	var wg sync.WaitGroup
	workers := s.workers
	if workers > len(entries) {
		workers = len(entries)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				perFile[i] = scanFile(entries[i], rules)
			}
		}()
	}
	for i := range entries {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	var findings []finding.Finding
	for _, batch := range perFile {
		findings = append(findings, batch...)
	}
	return findings
}

// activeLineRules returns the registry rules whose phase is enabled,
// excluding provenance (which is not line-oriented).
func (s *Scanner) activeLineRules(enabled map[finding.Phase]bool) []signature.Rule {
	var rules []signature.Rule
	for _, rule := range s.registry.Rules() {
		if rule.Phase == finding.PhaseProvenance {
			continue
		}
		if enabled[rule.Phase] {
			rules = append(rules, rule)
		}
	}
	return rules
}

// enabledPhases resolves a phase-name filter to the set of phases to
// run. Unrecognized names are ignored; an empty or fully unrecognized
// filter enables every phase.
func enabledPhases(names []string) map[finding.Phase]bool {
	enabled := make(map[finding.Phase]bool, 6)
	if len(names) == 0 {
		for _, p := range finding.AllPhases() {
			enabled[p] = true
		}
		return enabled
	}
	matched := false
	for _, name := range names {
		if p, err := finding.ParsePhase(name); err == nil {
			enabled[p] = true
			matched = true
		}
	}
	if !matched {
		for _, p := range finding.AllPhases() {
			enabled[p] = true
		}
	}
	return enabled
}

// enumerate lists every regular file reachable from root without
// following symbolic links. A single-file root yields one entry named
// by its base name. Errors on individual subtrees are skipped; only
// failure to stat root is returned.
func enumerate(root string) ([]fileEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []fileEntry{{
			rel:  filepath.Base(root),
			abs:  root,
			size: info.Size(),
		}}, nil
	}

	var entries []fileEntry
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // unreadable subtree: skip, never abort
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		size := int64(0)
		if fi, infoErr := d.Info(); infoErr == nil {
			size = fi.Size()
		}
		entries = append(entries, fileEntry{
			rel:  filepath.ToSlash(rel),
			abs:  path,
			size: size,
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return entries, nil
}
