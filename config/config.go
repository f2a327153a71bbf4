// Package config provides loading and parsing of sigil.yaml
// configuration files. The configuration gathers every tunable in one
// explicit value threaded into the subsystems, so tests never touch a
// real home directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file sigil looks for.
const DefaultFileName = "sigil.yaml"

// Config represents a sigil.yaml configuration file.
type Config struct {
	// Home is the root directory for all sigil state: cache entries,
	// the quarantine ledger, and downloaded signatures. Defaults to
	// ~/.sigil.
	Home string `yaml:"home,omitempty"`

	// Scan configures the detection pipeline.
	Scan *ScanConfig `yaml:"scan,omitempty"`

	// Cache configures result caching.
	Cache *CacheConfig `yaml:"cache,omitempty"`

	// Queue configures the Redis job queue.
	Queue *QueueConfig `yaml:"queue,omitempty"`

	// Worker configures the scan worker pool.
	Worker *WorkerConfig `yaml:"worker,omitempty"`

	// Policy configures the review gate expressions.
	Policy *PolicyConfig `yaml:"policy,omitempty"`

	// Signatures configures cloud signature loading.
	Signatures *SignaturesConfig `yaml:"signatures,omitempty"`
}

// ScanConfig tunes the detection pipeline.
type ScanConfig struct {
	// Workers is the number of concurrent file-scanning goroutines.
	// Default: 4
	Workers int `yaml:"workers,omitempty"`

	// Phases restricts scanning to the named phases when set.
	Phases []string `yaml:"phases,omitempty"`

	// MinSeverity drops findings below this severity when set.
	MinSeverity string `yaml:"min_severity,omitempty"`
}

// CacheConfig tunes result caching.
type CacheConfig struct {
	// Disabled turns result caching off entirely.
	Disabled bool `yaml:"disabled,omitempty"`

	// MaxEntries is the prune capacity of the cache directory.
	// Default: 100
	MaxEntries int `yaml:"max_entries,omitempty"`
}

// QueueConfig configures the Redis connection for queued scanning.
type QueueConfig struct {
	// RedisURL is the Redis connection string.
	// Default: "redis://localhost:6379"
	RedisURL string `yaml:"redis_url,omitempty"`
}

// WorkerConfig configures the scan worker pool.
type WorkerConfig struct {
	// Concurrency is the number of concurrent scan workers.
	// Default: 4
	Concurrency int `yaml:"concurrency,omitempty"`

	// ShutdownTimeout is the time to wait for graceful shutdown.
	// Format: Go duration string (e.g., "30s", "1m")
	// Default: 30s
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`
}

// GetShutdownTimeout parses the shutdown timeout string and returns a
// duration. Returns the default value if not set or invalid.
func (w *WorkerConfig) GetShutdownTimeout() time.Duration {
	if w == nil || w.ShutdownTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(w.ShutdownTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetConcurrency returns the worker concurrency, defaulting to 4.
func (w *WorkerConfig) GetConcurrency() int {
	if w == nil || w.Concurrency <= 0 {
		return 4
	}
	return w.Concurrency
}

// PolicyConfig holds the review gate expressions.
type PolicyConfig struct {
	// RejectWhen is a CEL expression; a match recommends rejection.
	RejectWhen string `yaml:"reject_when,omitempty"`

	// ApproveWhen is a CEL expression; a match recommends approval when
	// the reject gate did not fire.
	ApproveWhen string `yaml:"approve_when,omitempty"`
}

// SignaturesConfig configures cloud signature loading.
type SignaturesConfig struct {
	// Path overrides the default signatures file location under Home.
	Path string `yaml:"path,omitempty"`
}

// HomeDir returns the configured home directory, falling back to
// ~/.sigil when unset.
func (c *Config) HomeDir() string {
	if c != nil && c.Home != "" {
		return c.Home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".sigil")
}

// CacheDir returns the cache directory under the home directory.
func (c *Config) CacheDir() string {
	return filepath.Join(c.HomeDir(), "cache")
}

// QuarantineDir returns the quarantine root under the home directory.
func (c *Config) QuarantineDir() string {
	return filepath.Join(c.HomeDir(), "quarantine")
}

// SignaturesPath returns the cloud signatures file location.
func (c *Config) SignaturesPath() string {
	if c != nil && c.Signatures != nil && c.Signatures.Path != "" {
		return c.Signatures.Path
	}
	return filepath.Join(c.HomeDir(), "signatures.json")
}

// CacheMaxEntries returns the cache prune capacity, defaulting to 100.
func (c *Config) CacheMaxEntries() int {
	if c != nil && c.Cache != nil && c.Cache.MaxEntries > 0 {
		return c.Cache.MaxEntries
	}
	return 100
}

// CacheEnabled reports whether result caching is on.
func (c *Config) CacheEnabled() bool {
	return c == nil || c.Cache == nil || !c.Cache.Disabled
}

// RedisURL returns the Redis connection string, defaulting to a local
// instance.
func (c *Config) RedisURL() string {
	if c != nil && c.Queue != nil && c.Queue.RedisURL != "" {
		return c.Queue.RedisURL
	}
	return "redis://localhost:6379"
}

// ScanWorkers returns the file-scanning concurrency, defaulting to 4.
func (c *Config) ScanWorkers() int {
	if c != nil && c.Scan != nil && c.Scan.Workers > 0 {
		return c.Scan.Workers
	}
	return 4
}

// Default returns a Config with every field unset, relying on the
// accessor defaults.
func Default() *Config {
	return &Config{}
}

// Load reads a Config from path. If path is a directory, sigil.yaml is
// looked up inside it.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		configPath = filepath.Join(path, DefaultFileName)
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("no %s found in %s", DefaultFileName, path)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path if it exists, otherwise returns the default
// configuration. Parse failures are still errors; only absence is
// forgiven.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
