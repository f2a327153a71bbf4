package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/NOMARJ/sigil/finding"
)

// Version is the on-disk entry format version. Entries written by a
// different version are treated as misses.
const Version = 1

// DefaultMaxEntries is the number of cached results kept before the
// oldest entries are pruned.
const DefaultMaxEntries = 100

// fingerprintPrefixLen is how many hex characters of the fingerprint
// form the entry filename.
const fingerprintPrefixLen = 16

// Entry is the persisted form of a cached scan result.
type Entry struct {
	Version     int                `json:"version"`
	Fingerprint string             `json:"directory_hash"`
	CachedAt    time.Time          `json:"cached_at"`
	Result      finding.ScanResult `json:"result"`
}

// Store is a directory-backed result cache.
type Store struct {
	dir        string
	maxEntries int
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries overrides the prune capacity. Values below 1 are
// ignored.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n >= 1 {
			s.maxEntries = n
		}
	}
}

// WithLogger sets the logger used for advisory warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Store rooted at dir. The directory is created lazily on
// the first write.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:        dir,
		maxEntries: DefaultMaxEntries,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) entryPath(fingerprint string) string {
	name := fingerprint
	if len(name) > fingerprintPrefixLen {
		name = name[:fingerprintPrefixLen]
	}
	return filepath.Join(s.dir, name+".json")
}

// Load returns the cached result for fingerprint, or ok=false on any
// miss: absent entry, undecodable entry, version skew, or a filename
// collision with a different fingerprint.
func (s *Store) Load(fingerprint string) (finding.ScanResult, bool) {
	data, err := os.ReadFile(s.entryPath(fingerprint))
	if err != nil {
		return finding.ScanResult{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn("discarding undecodable cache entry",
			"fingerprint", fingerprint, "error", err)
		return finding.ScanResult{}, false
	}
	if entry.Version != Version || entry.Fingerprint != fingerprint {
		return finding.ScanResult{}, false
	}
	return entry.Result, true
}

// Save persists result under fingerprint and prunes the directory to
// capacity. The write is atomic: the entry is staged to a temporary
// file and renamed into place.
func (s *Store) Save(fingerprint string, result finding.ScanResult) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}

	entry := Entry{
		Version:     Version,
		Fingerprint: fingerprint,
		CachedAt:    time.Now().UTC(),
		Result:      result,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: encode entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("cache: stage entry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cache: stage entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: stage entry: %w", err)
	}
	if err := os.Rename(tmpName, s.entryPath(fingerprint)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: commit entry: %w", err)
	}

	s.prune()
	return nil
}

// Clear removes every cache entry and reports how many were deleted.
func (s *Store) Clear() (int, error) {
	names, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("cache: list entries: %w", err)
	}
	removed := 0
	for _, name := range names {
		if err := os.Remove(name); err != nil {
			return removed, fmt.Errorf("cache: remove entry: %w", err)
		}
		removed++
	}
	return removed, nil
}

// Len reports how many entries are currently on disk.
func (s *Store) Len() int {
	names, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return 0
	}
	return len(names)
}

// prune deletes the oldest entries until the directory is back at
// capacity. Failures are logged and otherwise ignored.
func (s *Store) prune() {
	names, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil || len(names) <= s.maxEntries {
		return
	}

	type aged struct {
		path  string
		mtime time.Time
	}
	entries := make([]aged, 0, len(names))
	for _, name := range names {
		fi, err := os.Stat(name)
		if err != nil {
			continue
		}
		entries = append(entries, aged{path: name, mtime: fi.ModTime()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].mtime.Before(entries[j].mtime)
	})

	excess := len(entries) - s.maxEntries
	for i := 0; i < excess; i++ {
		if err := os.Remove(entries[i].path); err != nil {
			s.logger.Warn("cache prune failed", "path", entries[i].path, "error", err)
		}
	}
}
