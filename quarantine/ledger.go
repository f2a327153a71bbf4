package quarantine

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors returned by ledger operations.
var (
	// ErrNotFound indicates no entry exists with the given id.
	ErrNotFound = errors.New("quarantine: entry not found")

	// ErrAlreadyFinalized indicates the entry has left the Pending state
	// and cannot transition again.
	ErrAlreadyFinalized = errors.New("quarantine: entry already finalized")
)

// indexFile is the ledger's filename inside the quarantine root.
const indexFile = "index.json"

// Entry is one quarantined artifact's ledger record.
type Entry struct {
	// ID is the short unique identifier for this entry.
	ID string `json:"id"`

	// Source identifies where the artifact came from (URL, package name).
	Source string `json:"source"`

	// SourceType classifies the source, for example "git", "pip", "npm".
	SourceType string `json:"source_type"`

	// Path is the staging directory holding the artifact's files.
	Path string `json:"path"`

	// Status is the entry's current lifecycle state.
	Status Status `json:"status"`

	// CreatedAt is when the entry was taken into quarantine.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the entry last changed.
	UpdatedAt time.Time `json:"updated_at"`

	// Reason optionally records why the entry was approved or rejected.
	Reason string `json:"reason,omitempty"`

	// ScanScore holds the risk score from the most recent scan of the
	// staged files, when one has run.
	ScanScore *int `json:"scan_score,omitempty"`
}

// Ledger manages quarantine entries rooted at a single directory. Each
// entry's staging directory lives under the root next to the index
// file. Methods serialize through an internal mutex; cross-process
// callers must coordinate externally.
type Ledger struct {
	mu     sync.Mutex
	root   string
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLedger creates a Ledger rooted at root. The directory is created
// on the first mutation.
func NewLedger(root string, opts ...Option) *Ledger {
	l := &Ledger{
		root:   root,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Root returns the quarantine root directory.
func (l *Ledger) Root() string {
	return l.root
}

func (l *Ledger) indexPath() string {
	return filepath.Join(l.root, indexFile)
}

// load reads the full ledger. A missing index is an empty ledger; a
// malformed index is an error, since mutating on top of unparseable
// ground truth would lose records.
func (l *Ledger) load() ([]Entry, error) {
	data, err := os.ReadFile(l.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("quarantine: read index: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("quarantine: parse index: %w", err)
	}
	return entries, nil
}

// save rewrites the full ledger atomically via a temporary file and
// rename.
func (l *Ledger) save(entries []Entry) error {
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return fmt.Errorf("quarantine: create root: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("quarantine: encode index: %w", err)
	}

	tmp, err := os.CreateTemp(l.root, "index-*.tmp")
	if err != nil {
		return fmt.Errorf("quarantine: stage index: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("quarantine: stage index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("quarantine: stage index: %w", err)
	}
	if err := os.Rename(tmpName, l.indexPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("quarantine: commit index: %w", err)
	}
	return nil
}

// Intake allocates a fresh entry for source, creates its staging
// directory, and appends the Pending record to the ledger.
func (l *Ledger) Intake(source, sourceType string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := shortID()
	stagingDir := filepath.Join(l.root, id)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("quarantine: create staging dir %s: %w", stagingDir, err)
	}

	now := time.Now().UTC()
	entry := Entry{
		ID:         id,
		Source:     source,
		SourceType: sourceType,
		Path:       stagingDir,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	entries, err := l.load()
	if err != nil {
		return Entry{}, err
	}
	entries = append(entries, entry)
	if err := l.save(entries); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Approve transitions a Pending entry to Approved. The reason may be
// empty.
func (l *Ledger) Approve(id, reason string) (Entry, error) {
	return l.finalize(id, reason, StatusApproved)
}

// Reject transitions a Pending entry to Rejected and deletes the
// entry's staging directory. A deletion failure is logged but does not
// undo the transition.
func (l *Ledger) Reject(id, reason string) (Entry, error) {
	return l.finalize(id, reason, StatusRejected)
}

func (l *Ledger) finalize(id, reason string, status Status) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return Entry{}, err
	}

	idx := -1
	for i := range entries {
		if entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if entries[idx].Status != StatusPending {
		return Entry{}, fmt.Errorf("%w: %s is %s", ErrAlreadyFinalized, id, entries[idx].Status)
	}

	entries[idx].Status = status
	entries[idx].UpdatedAt = time.Now().UTC()
	entries[idx].Reason = reason

	if status == StatusRejected && entries[idx].Path != "" {
		if err := os.RemoveAll(entries[idx].Path); err != nil {
			l.logger.Warn("failed to delete staged files for rejected entry",
				"id", id, "path", entries[idx].Path, "error", err)
		}
	}

	if err := l.save(entries); err != nil {
		return Entry{}, err
	}
	return entries[idx], nil
}

// RecordScan stores the risk score from a scan of the entry's staged
// files.
func (l *Ledger) RecordScan(id string, score int) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return Entry{}, err
	}
	for i := range entries {
		if entries[i].ID == id {
			entries[i].ScanScore = &score
			entries[i].UpdatedAt = time.Now().UTC()
			if err := l.save(entries); err != nil {
				return Entry{}, err
			}
			return entries[i], nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Get returns the entry with the given id.
func (l *Ledger) Get(id string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return Entry{}, err
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns entries in ledger (insertion) order. A zero-value status
// returns every entry; otherwise only entries with that status.
func (l *Ledger) List(status Status) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return nil, err
	}
	if status == "" {
		return entries, nil
	}
	filtered := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Status == status {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

// shortID returns the first 8 characters of a random UUID.
func shortID() string {
	return uuid.New().String()[:8]
}
