package scanner

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/NOMARJ/sigil/finding"
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func findByRule(findings []finding.Finding, rule string) []finding.Finding {
	var out []finding.Finding
	for _, f := range findings {
		if f.Rule == rule {
			out = append(out, f)
		}
	}
	return out
}

func TestScan_EndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "package.json", `{
  "name": "innocent-lib",
  "scripts": {
    "postinstall": "node ./collect.js"
  }
}`)
	writeFixture(t, root, "app.py", "import os\n\n\nresult = eval(userInput)\n")

	s := New()
	result, err := s.Scan(context.Background(), root, Filter{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if result.FilesScanned != 2 {
		t.Errorf("FilesScanned = %d, want 2", result.FilesScanned)
	}

	install := findByRule(result.Findings, "INSTALL-003")
	if len(install) != 1 {
		t.Fatalf("INSTALL-003 findings = %d, want 1", len(install))
	}
	if install[0].Severity != finding.SeverityCritical || install[0].Weight != 10 {
		t.Errorf("INSTALL-003 = %s/%d, want critical/10", install[0].Severity, install[0].Weight)
	}

	code := findByRule(result.Findings, "CODE-001")
	if len(code) != 1 {
		t.Fatalf("CODE-001 findings = %d, want 1", len(code))
	}
	if code[0].Line != 4 {
		t.Errorf("CODE-001 line = %d, want 4", code[0].Line)
	}
	if code[0].Severity != finding.SeverityHigh || code[0].Weight != 5 {
		t.Errorf("CODE-001 = %s/%d, want high/5", code[0].Severity, code[0].Weight)
	}

	// severity base x weight for each finding, summed.
	wantContribution := 5*10 + 3*5
	if result.Score < wantContribution {
		t.Errorf("Score = %d, want >= %d", result.Score, wantContribution)
	}

	// Critical install hook escalates unconditionally.
	if result.Verdict != finding.VerdictCritical {
		t.Errorf("Verdict = %s, want critical", result.Verdict)
	}
}

func TestScan_ProvenanceSuspiciousFilename(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "backdoor_shell.py", "print('hello')\n")

	s := New()
	result, err := s.Scan(context.Background(), root, Filter{Phases: []string{"provenance"}})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(result.Findings) != 1 {
		t.Fatalf("findings = %d, want exactly 1: %+v", len(result.Findings), result.Findings)
	}
	got := result.Findings[0]
	if got.Rule != "PROV-003" {
		t.Errorf("rule = %s, want PROV-003", got.Rule)
	}
	if got.Severity != finding.SeverityHigh {
		t.Errorf("severity = %s, want high", got.Severity)
	}
	if got.Weight != 3 {
		t.Errorf("weight = %d, want 3", got.Weight)
	}
	if got.File != "backdoor_shell.py" {
		t.Errorf("file = %s, want backdoor_shell.py", got.File)
	}
}

func TestScan_ProvenanceMissingGit(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "setup.py", "from setuptools import setup\nsetup(name='x')\n")

	s := New()
	result, err := s.Scan(context.Background(), root, Filter{Phases: []string{"provenance"}})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	missing := findByRule(result.Findings, "PROV-006")
	if len(missing) != 1 {
		t.Fatalf("PROV-006 findings = %d, want 1", len(missing))
	}
	if missing[0].Severity != finding.SeverityMedium || missing[0].Weight != 2 {
		t.Errorf("PROV-006 = %s/%d, want medium/2", missing[0].Severity, missing[0].Weight)
	}
}

func TestScan_ProvenanceSkipsGitInternals(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, ".git/config", "[core]\n")
	writeFixture(t, root, ".git/hooks/payload_dropper", "#!/bin/sh\n")
	writeFixture(t, root, "README.md", "hello\n")

	s := New()
	result, err := s.Scan(context.Background(), root, Filter{Phases: []string{"provenance"}})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	for _, f := range result.Findings {
		if strings.HasPrefix(f.File, ".git/") {
			t.Errorf("provenance flagged .git internals: %+v", f)
		}
	}
}

func TestScan_ProvenanceHiddenFileAllowlist(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, ".gitignore", "node_modules\n")
	writeFixture(t, root, ".env", "SECRET=1\n")

	s := New()
	result, err := s.Scan(context.Background(), root, Filter{Phases: []string{"provenance"}})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	hidden := findByRule(result.Findings, "PROV-001")
	if len(hidden) != 1 {
		t.Fatalf("PROV-001 findings = %d, want 1 (only .env)", len(hidden))
	}
	if hidden[0].File != ".env" {
		t.Errorf("flagged %s, want .env", hidden[0].File)
	}
}

func TestScan_ProvenanceBinaryLocation(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "helper.dll", "\x00\x01binary")
	writeFixture(t, root, "dist/out.dll", "\x00\x01binary")

	s := New()
	result, err := s.Scan(context.Background(), root, Filter{Phases: []string{"provenance"}})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	binaries := findByRule(result.Findings, "PROV-002")
	if len(binaries) != 1 {
		t.Fatalf("PROV-002 findings = %d, want 1", len(binaries))
	}
	if binaries[0].File != "helper.dll" {
		t.Errorf("flagged %s, want helper.dll", binaries[0].File)
	}
}

func TestScan_PhaseFilter(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "app.py", "result = eval(x)\nimport base64\ndata = base64.b64decode(blob)\n")

	s := New()
	result, err := s.Scan(context.Background(), root, Filter{
		Phases: []string{"OBFUSCATION", "no-such-phase"},
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	for _, f := range result.Findings {
		if f.Phase != finding.PhaseObfuscation {
			t.Errorf("phase filter leaked finding from %s: %+v", f.Phase, f)
		}
	}
	if len(findByRule(result.Findings, "OBFUSC-001")) != 1 {
		t.Error("expected OBFUSC-001 finding from enabled phase")
	}
}

func TestScan_PhaseFilterAllUnrecognized(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "app.py", "result = eval(x)\n")

	s := New()
	result, err := s.Scan(context.Background(), root, Filter{
		Phases: []string{"no-such-phase", "also-bogus"},
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	// A filter matching nothing widens to every phase.
	if len(findByRule(result.Findings, "CODE-001")) != 1 {
		t.Error("expected CODE-001 finding when no filter name matches")
	}
}

func TestScan_MinSeverity(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "app.py", "subprocess.run(cmd, shell=True)\nchr(65)\n")

	s := New()
	result, err := s.Scan(context.Background(), root, Filter{MinSeverity: "high"})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	for _, f := range result.Findings {
		if finding.CompareSeverity(f.Severity, finding.SeverityHigh) < 0 {
			t.Errorf("finding below min severity survived: %+v", f)
		}
	}
	if len(findByRule(result.Findings, "CODE-015")) != 1 {
		t.Error("expected high-severity CODE-015 finding to survive")
	}
	if len(findByRule(result.Findings, "CODE-013")) != 0 {
		t.Error("medium-severity CODE-013 must be filtered out")
	}
}

func TestScan_SingleFileRoot(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "script.py", "pickle.loads(data)\n")

	s := New()
	result, err := s.Scan(context.Background(), filepath.Join(root, "script.py"), Filter{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if result.FilesScanned != 1 {
		t.Errorf("FilesScanned = %d, want 1", result.FilesScanned)
	}
	pickle := findByRule(result.Findings, "CODE-004")
	if len(pickle) != 1 {
		t.Fatalf("CODE-004 findings = %d, want 1", len(pickle))
	}
	if pickle[0].File != "script.py" {
		t.Errorf("file = %s, want script.py", pickle[0].File)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	s := New()
	if _, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "absent"), Filter{}); err == nil {
		t.Error("Scan() on missing root expected error")
	}
}

func TestScan_UnreadableContentStillCounted(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "data.bin", "\xff\xfe\x00\x01 not text")
	writeFixture(t, root, "ok.py", "print('ok')\n")

	s := New()
	result, err := s.Scan(context.Background(), root, Filter{Phases: []string{"code-patterns"}})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if result.FilesScanned != 2 {
		t.Errorf("FilesScanned = %d, want 2 (binary counted, not detected)", result.FilesScanned)
	}
	for _, f := range result.Findings {
		if f.File == "data.bin" {
			t.Errorf("finding produced for undecodable file: %+v", f)
		}
	}
}

func TestScan_SnippetTruncation(t *testing.T) {
	root := t.TempDir()
	long := "eval(" + strings.Repeat("a", 400) + ")"
	writeFixture(t, root, "long.py", long+"\n")

	s := New()
	result, err := s.Scan(context.Background(), root, Filter{Phases: []string{"code_patterns"}})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	code := findByRule(result.Findings, "CODE-001")
	if len(code) != 1 {
		t.Fatalf("CODE-001 findings = %d, want 1", len(code))
	}
	if !strings.HasSuffix(code[0].Snippet, " ...") {
		t.Errorf("overlong snippet missing ellipsis: %q", code[0].Snippet)
	}
	if len(code[0].Snippet) > len("eval() call - arbitrary code execution: ")+MaxSnippetLength+len(" ...") {
		t.Errorf("snippet too long: %d bytes", len(code[0].Snippet))
	}
}

func TestScan_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.py", "eval(x)\nsubprocess.run(c)\n")
	writeFixture(t, root, "b.js", "atob(payload)\nrequire( variable)\n")
	writeFixture(t, root, "c/d.py", "socket.socket()\npickle.loads(z)\n")

	s := New(WithWorkers(8))
	first, err := s.Scan(context.Background(), root, Filter{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := s.Scan(context.Background(), root, Filter{})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if !reflect.DeepEqual(first.Findings, again.Findings) {
			t.Fatalf("findings differ between runs:\nfirst:  %+v\nagain:  %+v", first.Findings, again.Findings)
		}
		if first.Score != again.Score || first.Verdict != again.Verdict {
			t.Fatalf("score/verdict differ between runs")
		}
	}

	// Findings must arrive sorted by (file, line, rule).
	for i := 1; i < len(first.Findings); i++ {
		prev, cur := first.Findings[i-1], first.Findings[i]
		if prev.File > cur.File {
			t.Fatalf("findings not sorted by file at %d", i)
		}
		if prev.File == cur.File && prev.Line > cur.Line {
			t.Fatalf("findings not sorted by line at %d", i)
		}
	}
}
