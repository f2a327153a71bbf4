package signature

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileEnvelope is the wrapped persisted signature format.
type FileEnvelope struct {
	Signatures  []CloudSignature `json:"signatures"`
	Total       int              `json:"total"`
	LastUpdated string           `json:"last_updated,omitempty"`
}

// Load reads externally supplied signatures from a JSON file. Both
// persisted formats are accepted: a bare array of signatures, or an
// object wrapping a "signatures" array. A missing file yields an empty
// slice and no error; unreadable or malformed content is an error the
// caller may treat as "no signatures".
func Load(path string) ([]CloudSignature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read signatures: %w", err)
	}

	// Wrapped format first.
	var envelope FileEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Signatures != nil {
		return envelope.Signatures, nil
	}

	// Bare array fallback.
	var sigs []CloudSignature
	if err := json.Unmarshal(data, &sigs); err != nil {
		return nil, fmt.Errorf("parse signatures: %w", err)
	}
	return sigs, nil
}

// SyncMeta records when signatures were last synchronized, for
// delta-sync bookkeeping by the fetch collaborator.
type SyncMeta struct {
	LastUpdated string `json:"last_updated"`
	FetchedAt   string `json:"fetched_at"`
}

// LoadSyncMeta reads the sync metadata file. Returns the zero value
// when the file is missing or malformed.
func LoadSyncMeta(path string) SyncMeta {
	data, err := os.ReadFile(path)
	if err != nil {
		return SyncMeta{}
	}
	var meta SyncMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return SyncMeta{}
	}
	return meta
}

// SaveSyncMeta writes the sync metadata file, stamping FetchedAt with
// the current time.
func SaveSyncMeta(path, lastUpdated string) error {
	meta := SyncMeta{
		LastUpdated: lastUpdated,
		FetchedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize sync meta: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create signature directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sync meta: %w", err)
	}
	return nil
}
