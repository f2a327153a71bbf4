package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/NOMARJ/sigil/finding"
)

// Provenance policy constants. These are product-tunable values kept
// separate from the detection logic.

// LargeFileThreshold is the size in bytes above which a file is
// flagged as unusually large for a source artifact.
const LargeFileThreshold = 5_000_000

// DotfileAllowlist names the hidden files that are expected in a
// well-formed repository and never flagged.
var DotfileAllowlist = map[string]bool{
	".gitignore":     true,
	".gitkeep":       true,
	".gitattributes": true,
	".editorconfig":  true,
}

// binaryExtensions are file extensions treated as binary artifacts.
var binaryExtensions = []string{
	".exe", ".dll", ".so", ".dylib", ".bin", ".dat", ".o", ".a",
	".pyc", ".pyo", ".class", ".jar", ".war", ".ear",
	".wasm", ".node",
}

// expectedBinaryDirs are directory prefixes where binary artifacts are
// ordinary build or dependency output.
var expectedBinaryDirs = []string{
	"bin/", "dist/", "build/", "node_modules/", "target/", "__pycache__/",
}

// suspiciousNameFragments is threat-actor vocabulary flagged when it
// appears anywhere in a filename.
var suspiciousNameFragments = []string{
	"backdoor", "exploit", "payload", "reverse_shell", "keylogger",
	"stealer", "trojan", "rootkit", "c2_", "c2-", "rat_", "rat-",
}

// scanProvenance evaluates directory-level trust signals over the full
// file list: hidden files, unexpected binaries, suspicious filenames,
// oversized files, and git history anomalies. The .git directory's own
// contents are always excluded.
func scanProvenance(root string, entries []fileEntry) []finding.Finding {
	var findings []finding.Finding

	provFinding := func(rule string, severity finding.Severity, file, snippet string, weight int) finding.Finding {
		return finding.Finding{
			Phase:    finding.PhaseProvenance,
			Rule:     rule,
			Severity: severity,
			File:     file,
			Snippet:  snippet,
			Weight:   weight,
		}
	}

	for _, entry := range entries {
		if entry.rel == ".git" || strings.HasPrefix(entry.rel, ".git/") {
			continue
		}
		name := filepath.Base(entry.rel)

		if strings.HasPrefix(name, ".") && !DotfileAllowlist[name] {
			findings = append(findings, provFinding("PROV-001", finding.SeverityLow,
				entry.rel, fmt.Sprintf("Hidden file: %s", name), 1))
		}

		if isBinaryExtension(name) && !inExpectedBinaryDir(entry.rel) {
			findings = append(findings, provFinding("PROV-002", finding.SeverityMedium,
				entry.rel, fmt.Sprintf("Binary file in unexpected location: %s", name), 2))
		}

		if isSuspiciousFilename(name) {
			findings = append(findings, provFinding("PROV-003", finding.SeverityHigh,
				entry.rel, fmt.Sprintf("Suspicious filename: %s", name), 3))
		}

		if entry.size > LargeFileThreshold {
			findings = append(findings, provFinding("PROV-004", finding.SeverityLow,
				entry.rel, fmt.Sprintf("Large file: %d bytes", entry.size), 1))
		}
	}

	gitDir := filepath.Join(root, ".git")
	if dirExists(gitDir) {
		if fileExists(filepath.Join(gitDir, "shallow")) {
			findings = append(findings, provFinding("PROV-005", finding.SeverityLow,
				".git/shallow", "Shallow clone detected - limited git history available", 1))
		}
	} else if fileExists(filepath.Join(root, "package.json")) || fileExists(filepath.Join(root, "setup.py")) {
		findings = append(findings, provFinding("PROV-006", finding.SeverityMedium,
			".", "No .git directory - provenance cannot be verified via git history", 2))
	}

	return findings
}

func isBinaryExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range binaryExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func inExpectedBinaryDir(rel string) bool {
	for _, dir := range expectedBinaryDirs {
		if strings.HasPrefix(rel, dir) {
			return true
		}
	}
	return false
}

func isSuspiciousFilename(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range suspiciousNameFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
