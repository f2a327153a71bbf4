package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NOMARJ/sigil/finding"
)

func validJob() ScanJob {
	return ScanJob{
		JobID:       "8c1f2a9b",
		Source:      "npmjs.com/package/hoverboard",
		Root:        "/var/sigil/quarantine/8c1f2a9b",
		Priority:    PriorityNormal,
		SubmittedAt: time.Now().UnixMilli(),
	}
}

func TestPriority_IsValid(t *testing.T) {
	for _, p := range AllPriorities() {
		assert.True(t, p.IsValid(), "priority %s", p)
	}
	assert.False(t, Priority("urgent").IsValid())
	assert.False(t, Priority("").IsValid())
}

func TestAllPriorities_MostUrgentFirst(t *testing.T) {
	got := AllPriorities()
	require.Len(t, got, 3)
	assert.Equal(t, PriorityHigh, got[0])
	assert.Equal(t, PriorityLow, got[2])
}

func TestScanJob_IsValid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScanJob)
		wantErr string
	}{
		{
			name:   "valid job",
			mutate: func(j *ScanJob) {},
		},
		{
			name:    "missing job id",
			mutate:  func(j *ScanJob) { j.JobID = "" },
			wantErr: "job_id is required",
		},
		{
			name:    "missing root",
			mutate:  func(j *ScanJob) { j.Root = "" },
			wantErr: "root is required",
		},
		{
			name:    "bad priority",
			mutate:  func(j *ScanJob) { j.Priority = "urgent" },
			wantErr: "invalid priority",
		},
		{
			name:    "missing submitted_at",
			mutate:  func(j *ScanJob) { j.SubmittedAt = 0 },
			wantErr: "submitted_at must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := validJob()
			tt.mutate(&job)
			err := job.IsValid()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestScanJob_Age(t *testing.T) {
	job := validJob()
	job.SubmittedAt = time.Now().Add(-2 * time.Second).UnixMilli()
	assert.GreaterOrEqual(t, job.Age(), 2*time.Second)

	job.SubmittedAt = 0
	assert.Equal(t, time.Duration(0), job.Age())
}

func TestScanOutcome_IsValid(t *testing.T) {
	now := time.Now().UnixMilli()
	success := ScanOutcome{
		JobID:       "8c1f2a9b",
		Result:      &finding.ScanResult{Verdict: finding.VerdictClean},
		WorkerID:    "worker-1",
		StartedAt:   now - 100,
		CompletedAt: now,
	}
	assert.NoError(t, success.IsValid())
	assert.False(t, success.HasError())
	assert.Equal(t, 100*time.Millisecond, success.Duration())

	failure := ScanOutcome{
		JobID:       "8c1f2a9b",
		Error:       "root path does not exist",
		WorkerID:    "worker-1",
		StartedAt:   now - 100,
		CompletedAt: now,
	}
	assert.NoError(t, failure.IsValid())
	assert.True(t, failure.HasError())

	noResult := success
	noResult.Result = nil
	err := noResult.IsValid()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result is required")

	backwards := success
	backwards.CompletedAt = backwards.StartedAt - 1
	require.Error(t, backwards.IsValid())
}
