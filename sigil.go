package sigil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"

	"github.com/NOMARJ/sigil/cache"
	"github.com/NOMARJ/sigil/config"
	"github.com/NOMARJ/sigil/diff"
	"github.com/NOMARJ/sigil/finding"
	"github.com/NOMARJ/sigil/policy"
	"github.com/NOMARJ/sigil/quarantine"
	"github.com/NOMARJ/sigil/sarif"
	"github.com/NOMARJ/sigil/scanner"
	"github.com/NOMARJ/sigil/signature"
)

// Version is the auditor version stamped on SARIF output.
const Version = "0.1.0"

// Auditor is the top-level entry point tying the subsystems together:
// signature registry, scanner, result cache, quarantine ledger, and
// policy gates, all rooted under one home directory.
type Auditor struct {
	cfg      *config.Config
	registry *signature.Registry
	scanner  *scanner.Scanner
	cache    *cache.Store
	ledger   *quarantine.Ledger
	gates    *policy.Engine
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates an Auditor.
//
// Example:
//
//	auditor, err := sigil.New(
//	    sigil.WithLogger(logger),
//	    sigil.WithConfig("/etc/sigil/sigil.yaml"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Auditor, error) {
	ac := &auditorConfig{}
	for _, opt := range opts {
		opt(ac)
	}

	if ac.logger == nil {
		ac.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	cfg := ac.cfg
	if cfg == nil {
		if ac.configPath != "" {
			loaded, err := config.LoadOrDefault(ac.configPath)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
			cfg = loaded
		} else {
			cfg = config.Default()
		}
	}
	if ac.home != "" {
		cfg.Home = ac.home
	}

	registry := ac.registry
	if registry == nil {
		registry = signature.NewRegistry()
		sigs, err := signature.Load(cfg.SignaturesPath())
		if err != nil {
			// Cloud signatures are an optimization, never fatal
			ac.logger.Warn("failed to load cloud signatures", "error", err)
		} else if len(sigs) > 0 {
			applied := registry.Merge(sigs)
			ac.logger.Debug("merged cloud signatures", "applied", applied)
		}
	}

	var store *cache.Store
	if cfg.CacheEnabled() {
		store = cache.New(cfg.CacheDir(),
			cache.WithMaxEntries(cfg.CacheMaxEntries()),
			cache.WithLogger(ac.logger),
		)
	}

	var rejectExpr, approveExpr string
	if cfg.Policy != nil {
		rejectExpr = cfg.Policy.RejectWhen
		approveExpr = cfg.Policy.ApproveWhen
	}
	gates, err := policy.NewEngine(rejectExpr, approveExpr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &Auditor{
		cfg:      cfg,
		registry: registry,
		scanner: scanner.New(
			scanner.WithRegistry(registry),
			scanner.WithLogger(ac.logger),
			scanner.WithTracer(ac.tracer),
			scanner.WithWorkers(cfg.ScanWorkers()),
		),
		cache:  store,
		ledger: quarantine.NewLedger(cfg.QuarantineDir(), quarantine.WithLogger(ac.logger)),
		gates:  gates,
		logger: ac.logger,
		tracer: ac.tracer,
	}, nil
}

// Config returns the auditor's effective configuration.
func (a *Auditor) Config() *config.Config {
	return a.cfg
}

// Registry returns the signature registry in use.
func (a *Auditor) Registry() *signature.Registry {
	return a.registry
}

// Quarantine returns the quarantine ledger.
func (a *Auditor) Quarantine() *quarantine.Ledger {
	return a.ledger
}

// Scan audits the tree rooted at root. Unfiltered scans are served from
// the result cache when the tree is unchanged since the last scan;
// filtered scans always run fresh, since a filtered result is not a
// faithful record of the whole tree.
func (a *Auditor) Scan(ctx context.Context, root string, filter scanner.Filter) (finding.ScanResult, error) {
	cacheable := a.cache != nil && len(filter.Phases) == 0 && filter.MinSeverity == ""

	var fingerprint string
	if cacheable {
		fp, err := cache.Fingerprint(root)
		if err == nil {
			fingerprint = fp
			if cached, ok := a.cache.Load(fp); ok {
				a.logger.Debug("serving scan from cache", "root", root)
				return cached, nil
			}
		}
	}

	result, err := a.scanner.Scan(ctx, root, filter)
	if err != nil {
		return finding.ScanResult{}, err
	}

	if cacheable && fingerprint != "" {
		if err := a.cache.Save(fingerprint, result); err != nil {
			a.logger.Warn("failed to cache scan result", "root", root, "error", err)
		}
	}

	return result, nil
}

// ClearCache deletes every cached result and reports how many entries
// were removed.
func (a *Auditor) ClearCache() (int, error) {
	if a.cache == nil {
		return 0, nil
	}
	return a.cache.Clear()
}

// Review scans a quarantined artifact, records the score on its ledger
// entry, and applies the policy gates. An approve or reject decision is
// carried out on the ledger; a hold leaves the entry pending.
func (a *Auditor) Review(ctx context.Context, id string) (policy.Decision, finding.ScanResult, error) {
	entry, err := a.ledger.Get(id)
	if err != nil {
		return policy.DecisionHold, finding.ScanResult{}, err
	}
	if entry.Status.Terminal() {
		return policy.DecisionHold, finding.ScanResult{},
			fmt.Errorf("%w: %s is %s", quarantine.ErrAlreadyFinalized, id, entry.Status)
	}

	result, err := a.scanner.Scan(ctx, entry.Path, scanner.Filter{})
	if err != nil {
		return policy.DecisionHold, finding.ScanResult{}, err
	}

	if _, err := a.ledger.RecordScan(id, result.Score); err != nil {
		a.logger.Warn("failed to record scan score", "id", id, "error", err)
	}

	decision, err := a.gates.Decide(result)
	if err != nil {
		return policy.DecisionHold, result, err
	}

	reason := fmt.Sprintf("policy gate (score %d, verdict %s)", result.Score, result.Verdict)
	switch decision {
	case policy.DecisionApprove:
		if _, err := a.ledger.Approve(id, reason); err != nil {
			return decision, result, err
		}
	case policy.DecisionReject:
		if _, err := a.ledger.Reject(id, reason); err != nil {
			return decision, result, err
		}
	}

	return decision, result, nil
}

// Diff compares a stored baseline result against a current one.
func (a *Auditor) Diff(base, head finding.ScanResult) diff.Report {
	return diff.Compare(base, head)
}

// WriteResult stores a scan result as JSON, suitable as a future diff
// baseline.
func WriteResult(path string, result finding.ScanResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// ReadResult loads a stored scan result. A missing file reports
// ErrNoBaseline.
func ReadResult(path string) (finding.ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return finding.ScanResult{}, fmt.Errorf("%w: %s", ErrNoBaseline, path)
		}
		return finding.ScanResult{}, fmt.Errorf("read result: %w", err)
	}
	var result finding.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return finding.ScanResult{}, fmt.Errorf("parse result: %w", err)
	}
	return result, nil
}

// ExportSARIF writes result as a SARIF 2.1.0 document for target, the
// scanned root recorded in the run's artifact list.
func (a *Auditor) ExportSARIF(result finding.ScanResult, target string, w io.Writer) error {
	return sarif.FromResult(result, target, Version).Encode(w)
}
