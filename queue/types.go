package queue

import (
	"fmt"
	"time"

	"github.com/NOMARJ/sigil/finding"
)

// Priority selects which lane a scan job is queued on.
type Priority string

const (
	// PriorityHigh is for interactive requests, for example a reviewer
	// waiting on a quarantined artifact.
	PriorityHigh Priority = "high"

	// PriorityNormal is the default lane.
	PriorityNormal Priority = "normal"

	// PriorityLow is for bulk re-scans and signature refresh sweeps.
	PriorityLow Priority = "low"
)

// IsValid returns true if the priority is a recognized value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// AllPriorities returns every lane from most to least urgent. Dequeue
// order follows this ordering.
func AllPriorities() []Priority {
	return []Priority{PriorityHigh, PriorityNormal, PriorityLow}
}

// ScanJob is a single scan request submitted to the queue.
type ScanJob struct {
	// JobID is a UUID correlating the job with its outcome.
	JobID string `json:"job_id"`

	// Source identifies what is being audited (URL, package name).
	Source string `json:"source"`

	// Root is the filesystem root the worker should scan.
	Root string `json:"root"`

	// Phases optionally restricts detection to the named phases.
	Phases []string `json:"phases,omitempty"`

	// MinSeverity optionally drops findings below this severity.
	MinSeverity string `json:"min_severity,omitempty"`

	// QuarantineID links the job to a quarantine ledger entry, when the
	// scan is part of a review.
	QuarantineID string `json:"quarantine_id,omitempty"`

	// Priority selects the job's lane.
	Priority Priority `json:"priority"`

	// TraceID is the distributed tracing trace ID for observability.
	TraceID string `json:"trace_id,omitempty"`

	// SpanID is the distributed tracing span ID for observability.
	SpanID string `json:"span_id,omitempty"`

	// SubmittedAt is the Unix timestamp in milliseconds when the job was
	// enqueued.
	SubmittedAt int64 `json:"submitted_at"`
}

// IsValid checks that the job has all required fields populated
// correctly.
func (j *ScanJob) IsValid() error {
	if j.JobID == "" {
		return fmt.Errorf("job_id is required")
	}
	if j.Root == "" {
		return fmt.Errorf("root is required")
	}
	if !j.Priority.IsValid() {
		return fmt.Errorf("invalid priority %q", j.Priority)
	}
	if j.SubmittedAt <= 0 {
		return fmt.Errorf("submitted_at must be positive, got %d", j.SubmittedAt)
	}
	return nil
}

// Age returns the duration since the job was submitted. Useful for
// detecting stale jobs and computing queue wait time.
func (j *ScanJob) Age() time.Duration {
	if j.SubmittedAt <= 0 {
		return 0
	}
	now := time.Now().UnixMilli()
	return time.Duration(now-j.SubmittedAt) * time.Millisecond
}

// ScanOutcome is the terminal report for a ScanJob, published on the
// job's outcome channel.
type ScanOutcome struct {
	// JobID correlates this outcome with the original job.
	JobID string `json:"job_id"`

	// Result is the scan result. Nil if Error is set.
	Result *finding.ScanResult `json:"result,omitempty"`

	// Error is the failure message if the scan could not run. Empty on
	// success.
	Error string `json:"error,omitempty"`

	// WorkerID identifies the worker that processed the job.
	WorkerID string `json:"worker_id"`

	// StartedAt is the Unix timestamp in milliseconds when the scan
	// started.
	StartedAt int64 `json:"started_at"`

	// CompletedAt is the Unix timestamp in milliseconds when the scan
	// completed.
	CompletedAt int64 `json:"completed_at"`
}

// HasError returns true if the outcome represents a failed scan.
func (o *ScanOutcome) HasError() bool {
	return o.Error != ""
}

// Duration returns the wall-clock time the worker spent on the job.
func (o *ScanOutcome) Duration() time.Duration {
	if o.StartedAt <= 0 || o.CompletedAt <= 0 {
		return 0
	}
	return time.Duration(o.CompletedAt-o.StartedAt) * time.Millisecond
}

// IsValid checks that the outcome has all required fields populated
// correctly.
func (o *ScanOutcome) IsValid() error {
	if o.JobID == "" {
		return fmt.Errorf("job_id is required")
	}
	if o.WorkerID == "" {
		return fmt.Errorf("worker_id is required")
	}
	if o.StartedAt <= 0 {
		return fmt.Errorf("started_at must be positive, got %d", o.StartedAt)
	}
	if o.CompletedAt < o.StartedAt {
		return fmt.Errorf("completed_at (%d) cannot be before started_at (%d)", o.CompletedAt, o.StartedAt)
	}
	if !o.HasError() && o.Result == nil {
		return fmt.Errorf("result is required when error is empty")
	}
	return nil
}
