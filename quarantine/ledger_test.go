package quarantine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"APPROVED", StatusApproved, false},
		{" rejected ", StatusRejected, false},
		{"unknown", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !StatusApproved.Terminal() || !StatusRejected.Terminal() {
		t.Error("approved and rejected must be terminal")
	}
}

func TestLedger_Intake(t *testing.T) {
	ledger := NewLedger(t.TempDir())

	entry, err := ledger.Intake("github.com/acme/widget", "git")
	if err != nil {
		t.Fatalf("Intake() error = %v", err)
	}

	if len(entry.ID) != 8 {
		t.Errorf("id length = %d, want 8", len(entry.ID))
	}
	if entry.Status != StatusPending {
		t.Errorf("status = %s, want pending", entry.Status)
	}
	if entry.Source != "github.com/acme/widget" || entry.SourceType != "git" {
		t.Errorf("source = %s/%s", entry.Source, entry.SourceType)
	}
	if fi, err := os.Stat(entry.Path); err != nil || !fi.IsDir() {
		t.Errorf("staging dir %s not created: %v", entry.Path, err)
	}
	if entry.ScanScore != nil {
		t.Error("fresh entry must have no scan score")
	}

	// The record must survive a reload through a second Ledger.
	reopened := NewLedger(ledger.Root())
	got, err := reopened.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.ID != entry.ID || got.Status != StatusPending {
		t.Errorf("reloaded entry = %+v", got)
	}
}

func TestLedger_ApproveOnce(t *testing.T) {
	ledger := NewLedger(t.TempDir())
	entry, err := ledger.Intake("pypi.org/project/leftpad", "pip")
	if err != nil {
		t.Fatalf("Intake() error = %v", err)
	}

	approved, err := ledger.Approve(entry.ID, "manual review passed")
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}
	if approved.Reason != "manual review passed" {
		t.Errorf("reason = %q", approved.Reason)
	}
	if !approved.UpdatedAt.After(approved.CreatedAt) && !approved.UpdatedAt.Equal(approved.CreatedAt) {
		t.Error("updated_at must not precede created_at")
	}

	// Second finalization fails.
	if _, err := ledger.Approve(entry.ID, ""); !errors.Is(err, ErrAlreadyFinalized) {
		t.Errorf("second Approve() error = %v, want ErrAlreadyFinalized", err)
	}
	if _, err := ledger.Reject(entry.ID, ""); !errors.Is(err, ErrAlreadyFinalized) {
		t.Errorf("Reject() after Approve() error = %v, want ErrAlreadyFinalized", err)
	}
}

func TestLedger_RejectPurgesStaging(t *testing.T) {
	ledger := NewLedger(t.TempDir())
	entry, err := ledger.Intake("npmjs.com/package/hoverboard", "npm")
	if err != nil {
		t.Fatalf("Intake() error = %v", err)
	}
	staged := filepath.Join(entry.Path, "index.js")
	if err := os.WriteFile(staged, []byte("module.exports = {}\n"), 0o644); err != nil {
		t.Fatalf("stage file: %v", err)
	}

	rejected, err := ledger.Reject(entry.ID, "obfuscated payload")
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}
	if _, err := os.Stat(entry.Path); !os.IsNotExist(err) {
		t.Errorf("staging dir must be deleted, stat err = %v", err)
	}
}

func TestLedger_UnknownID(t *testing.T) {
	ledger := NewLedger(t.TempDir())

	if _, err := ledger.Approve("00000000", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Approve(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := ledger.Reject("00000000", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Reject(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := ledger.Get("00000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := ledger.RecordScan("00000000", 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("RecordScan(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestLedger_ListFiltering(t *testing.T) {
	ledger := NewLedger(t.TempDir())

	first, _ := ledger.Intake("src-a", "git")
	second, _ := ledger.Intake("src-b", "pip")
	third, _ := ledger.Intake("src-c", "npm")

	if _, err := ledger.Approve(second.ID, ""); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if _, err := ledger.Reject(third.ID, "bad"); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	all, err := ledger.List("")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List() = %d entries, want 3", len(all))
	}
	// Insertion order preserved.
	if all[0].ID != first.ID || all[1].ID != second.ID || all[2].ID != third.ID {
		t.Error("List() not in insertion order")
	}

	pending, err := ledger.List(StatusPending)
	if err != nil {
		t.Fatalf("List(pending) error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Errorf("List(pending) = %+v, want only %s", pending, first.ID)
	}
}

func TestLedger_RecordScan(t *testing.T) {
	ledger := NewLedger(t.TempDir())
	entry, err := ledger.Intake("src", "git")
	if err != nil {
		t.Fatalf("Intake() error = %v", err)
	}

	updated, err := ledger.RecordScan(entry.ID, 42)
	if err != nil {
		t.Fatalf("RecordScan() error = %v", err)
	}
	if updated.ScanScore == nil || *updated.ScanScore != 42 {
		t.Errorf("ScanScore = %v, want 42", updated.ScanScore)
	}

	// Score survives reload.
	got, err := ledger.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ScanScore == nil || *got.ScanScore != 42 {
		t.Errorf("reloaded ScanScore = %v, want 42", got.ScanScore)
	}
}

func TestLedger_MalformedIndexIsFatal(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}

	ledger := NewLedger(root)
	if _, err := ledger.List(""); err == nil {
		t.Error("List() on malformed index expected error")
	}
	if _, err := ledger.Intake("src", "git"); err == nil {
		t.Error("Intake() on malformed index expected error")
	}
}
