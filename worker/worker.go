// Package worker runs the scan worker pool that services the Redis job
// queue. Each worker pops scan jobs, runs the detector pipeline against
// the job's root, and publishes the outcome on the job's channel.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/NOMARJ/sigil/cache"
	"github.com/NOMARJ/sigil/quarantine"
	"github.com/NOMARJ/sigil/queue"
	"github.com/NOMARJ/sigil/scanner"
)

// Options configures the worker pool.
type Options struct {
	// RedisURL is the Redis connection string (e.g., "redis://localhost:6379")
	RedisURL string

	// Concurrency is the number of worker goroutines to start.
	// Defaults to 4.
	Concurrency int

	// ShutdownTimeout is the time to wait for graceful shutdown.
	// Defaults to 30s.
	ShutdownTimeout time.Duration

	// Logger is the structured logger for worker operations.
	// If nil, a default JSON logger is created.
	Logger *slog.Logger

	// Scanner runs the detection pipeline. If nil, a default scanner
	// with the built-in signature registry is used.
	Scanner *scanner.Scanner

	// Cache, when set, short-circuits jobs whose root is unchanged since
	// a previous scan and stores fresh results.
	Cache *cache.Store

	// Ledger, when set, records scan scores on quarantine entries for
	// jobs carrying a quarantine id.
	Ledger *quarantine.Ledger

	// Meter, when set, emits job and failure counters.
	Meter metric.Meter
}

// Pool processes scan jobs from the queue.
type Pool struct {
	client   queue.Client
	scanner  *scanner.Scanner
	cache    *cache.Store
	ledger   *quarantine.Ledger
	workerID string
	logger   *slog.Logger

	jobsProcessed metric.Int64Counter
	jobsFailed    metric.Int64Counter
	cacheHits     metric.Int64Counter
}

// Run starts the worker pool, blocks until SIGTERM or SIGINT, then
// drains in-flight jobs before returning. On shutdown it waits up to
// ShutdownTimeout for workers processing their current job.
func Run(opts Options) error {
	if opts.RedisURL == "" {
		opts.RedisURL = "redis://localhost:6379"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	client, err := queue.NewRedisClient(queue.RedisOptions{URL: opts.RedisURL})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer client.Close()

	pool := NewPool(client, opts)
	logger := pool.logger

	logger.Info("worker pool starting",
		"concurrency", opts.Concurrency,
		"redis_url", opts.RedisURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.IncrementWorkers(ctx); err != nil {
		logger.Error("failed to increment worker count", "error", err)
	}
	defer func() {
		// ctx may already be cancelled during shutdown
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()
		if err := client.DecrementWorkers(cleanupCtx); err != nil {
			logger.Error("failed to decrement worker count", "error", err)
		}
	}()

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go pool.runHeartbeat(heartbeatCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	var wg sync.WaitGroup
	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func(workerNum int) {
			defer wg.Done()
			pool.loop(ctx, workerNum)
		}(i)
	}

	logger.Info("worker pool started", "workers", opts.Concurrency)

	sig := <-sigChan
	logger.Info("received signal, initiating graceful shutdown", "signal", sig)

	cancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		logger.Info("worker pool shutdown complete")
	case <-time.After(opts.ShutdownTimeout):
		logger.Warn("worker pool shutdown timeout exceeded", "timeout", opts.ShutdownTimeout)
	}

	return nil
}

// NewPool builds a Pool around an existing queue client. Run wraps this
// for the common daemon case; embedding callers can drive the pool
// themselves.
func NewPool(client queue.Client, opts Options) *Pool {
	if opts.Scanner == nil {
		opts.Scanner = scanner.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	workerID := generateWorkerID()
	pool := &Pool{
		client:   client,
		scanner:  opts.Scanner,
		cache:    opts.Cache,
		ledger:   opts.Ledger,
		workerID: workerID,
		logger:   opts.Logger.With("worker_id", workerID),
	}

	if opts.Meter != nil {
		pool.jobsProcessed, _ = opts.Meter.Int64Counter("sigil.worker.jobs_processed")
		pool.jobsFailed, _ = opts.Meter.Int64Counter("sigil.worker.jobs_failed")
		pool.cacheHits, _ = opts.Meter.Int64Counter("sigil.worker.cache_hits")
	}

	return pool
}

// WorkerID returns the pool's unique worker identifier.
func (p *Pool) WorkerID() string {
	return p.workerID
}

// runHeartbeat refreshes the worker health key until the context is
// cancelled.
func (p *Pool) runHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	p.logger.Debug("heartbeat goroutine started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("heartbeat goroutine stopped")
			return
		case <-ticker.C:
			if err := p.client.Heartbeat(ctx, p.workerID); err != nil {
				// Heartbeat failures are transient, keep quiet
				p.logger.Debug("heartbeat failed", "error", err)
			}
		}
	}
}

// loop pops and processes jobs until the context is cancelled.
func (p *Pool) loop(ctx context.Context, workerNum int) {
	logger := p.logger.With("worker_num", workerNum)
	logger.Debug("worker loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker loop stopped", "reason", "context_cancelled")
			return
		default:
		}

		job, err := p.client.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("worker loop stopped", "reason", "context_error")
				return
			}
			logger.Error("failed to dequeue scan job", "error", err)
			continue
		}
		if job == nil {
			continue
		}

		logger.Info("received scan job",
			"job_id", job.JobID,
			"source", job.Source,
			"priority", job.Priority,
			"queue_wait_ms", job.Age().Milliseconds(),
		)

		outcome := p.Process(ctx, *job)

		if err := p.client.PublishOutcome(ctx, outcome); err != nil {
			logger.Error("failed to publish scan outcome", "job_id", job.JobID, "error", err)
		}
	}
}

// Process runs a single scan job and always returns an outcome, with
// any failure carried in the outcome's error field.
func (p *Pool) Process(ctx context.Context, job queue.ScanJob) queue.ScanOutcome {
	startedAt := time.Now().UnixMilli()
	outcome := queue.ScanOutcome{
		JobID:     job.JobID,
		WorkerID:  p.workerID,
		StartedAt: startedAt,
	}

	if err := job.IsValid(); err != nil {
		outcome.Error = fmt.Sprintf("invalid scan job: %v", err)
		outcome.CompletedAt = time.Now().UnixMilli()
		p.countFailure(ctx)
		return outcome
	}

	// Filtered jobs never touch the cache: a phase- or severity-restricted
	// result is not a faithful record of the whole tree.
	cacheable := p.cache != nil && len(job.Phases) == 0 && job.MinSeverity == ""

	var fingerprint string
	if cacheable {
		fp, err := cache.Fingerprint(job.Root)
		if err == nil {
			fingerprint = fp
			if cached, ok := p.cache.Load(fp); ok {
				p.logger.Info("cache hit", "job_id", job.JobID)
				if p.cacheHits != nil {
					p.cacheHits.Add(ctx, 1)
				}
				outcome.Result = &cached
				outcome.CompletedAt = time.Now().UnixMilli()
				p.recordScore(job, cached.Score)
				p.countSuccess(ctx)
				return outcome
			}
		}
	}

	result, err := p.scanner.Scan(ctx, job.Root, scanner.Filter{
		Phases:      job.Phases,
		MinSeverity: job.MinSeverity,
	})
	if err != nil {
		outcome.Error = err.Error()
		outcome.CompletedAt = time.Now().UnixMilli()
		p.logger.Error("scan failed", "job_id", job.JobID, "error", err)
		p.countFailure(ctx)
		return outcome
	}

	if cacheable && fingerprint != "" {
		if err := p.cache.Save(fingerprint, result); err != nil {
			p.logger.Warn("failed to cache scan result", "job_id", job.JobID, "error", err)
		}
	}
	p.recordScore(job, result.Score)

	outcome.Result = &result
	outcome.CompletedAt = time.Now().UnixMilli()

	p.logger.Info("scan job completed",
		"job_id", job.JobID,
		"score", result.Score,
		"verdict", result.Verdict,
		"findings", len(result.Findings),
		"duration_ms", outcome.CompletedAt-outcome.StartedAt,
	)
	p.countSuccess(ctx)

	return outcome
}

// recordScore writes the score back to the quarantine ledger when the
// job belongs to a quarantined artifact.
func (p *Pool) recordScore(job queue.ScanJob, score int) {
	if p.ledger == nil || job.QuarantineID == "" {
		return
	}
	if _, err := p.ledger.RecordScan(job.QuarantineID, score); err != nil {
		p.logger.Warn("failed to record scan score",
			"job_id", job.JobID, "quarantine_id", job.QuarantineID, "error", err)
	}
}

func (p *Pool) countSuccess(ctx context.Context) {
	if p.jobsProcessed != nil {
		p.jobsProcessed.Add(ctx, 1)
	}
}

func (p *Pool) countFailure(ctx context.Context) {
	if p.jobsFailed != nil {
		p.jobsFailed.Add(ctx, 1)
	}
	if p.jobsProcessed != nil {
		p.jobsProcessed.Add(ctx, 1)
	}
}

// generateWorkerID creates a unique identifier for this worker
// instance. Uses hostname + PID + UUID for uniqueness.
func generateWorkerID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	pid := os.Getpid()
	id := uuid.New().String()[:8]

	return fmt.Sprintf("%s-%d-%s", hostname, pid, id)
}
