package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NOMARJ/sigil/finding"
)

// setupTestClient creates a miniredis instance and returns a connected RedisClient.
func setupTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(RedisOptions{
		URL:            fmt.Sprintf("redis://%s", mr.Addr()),
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client, mr
}

func TestNewRedisClient(t *testing.T) {
	t.Run("successful connection", func(t *testing.T) {
		mr := miniredis.RunT(t)
		defer mr.Close()

		client, err := NewRedisClient(RedisOptions{
			URL: fmt.Sprintf("redis://%s", mr.Addr()),
		})
		require.NoError(t, err)
		require.NotNil(t, client)
		defer client.Close()
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := NewRedisClient(RedisOptions{
			URL:            "redis://localhost:1",
			ConnectTimeout: 100 * time.Millisecond,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedisClient(RedisOptions{
			URL: "invalid://url",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Redis URL")
	})
}

func TestEnqueueDequeue(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		client, _ := setupTestClient(t)
		ctx := context.Background()

		job := validJob()
		job.Phases = []string{"install_hooks", "credentials"}
		job.MinSeverity = "medium"
		require.NoError(t, client.Enqueue(ctx, job))

		got, err := client.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, job.JobID, got.JobID)
		assert.Equal(t, job.Root, got.Root)
		assert.Equal(t, []string{"install_hooks", "credentials"}, got.Phases)
		assert.Equal(t, PriorityNormal, got.Priority)
	})

	t.Run("rejects invalid job", func(t *testing.T) {
		client, _ := setupTestClient(t)

		job := validJob()
		job.Root = ""
		err := client.Enqueue(context.Background(), job)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid scan job")
	})

	t.Run("fifo within a lane", func(t *testing.T) {
		client, _ := setupTestClient(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			job := validJob()
			job.JobID = fmt.Sprintf("job-%d", i)
			require.NoError(t, client.Enqueue(ctx, job))
		}

		for i := 0; i < 3; i++ {
			got, err := client.Dequeue(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, fmt.Sprintf("job-%d", i), got.JobID)
		}
	})

	t.Run("high priority drains first", func(t *testing.T) {
		client, _ := setupTestClient(t)
		ctx := context.Background()

		low := validJob()
		low.JobID = "low-job"
		low.Priority = PriorityLow
		require.NoError(t, client.Enqueue(ctx, low))

		high := validJob()
		high.JobID = "high-job"
		high.Priority = PriorityHigh
		require.NoError(t, client.Enqueue(ctx, high))

		first, err := client.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, "high-job", first.JobID)

		second, err := client.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, second)
		assert.Equal(t, "low-job", second.JobID)
	})
}

func TestPublishSubscribeOutcome(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	outcomes, err := client.SubscribeOutcome(ctx, "job-42")
	require.NoError(t, err)

	result := finding.ScanResult{
		Score:        15,
		Verdict:      finding.VerdictMediumRisk,
		FilesScanned: 3,
	}
	outcome := ScanOutcome{
		JobID:       "job-42",
		Result:      &result,
		WorkerID:    "worker-1",
		StartedAt:   time.Now().UnixMilli() - 50,
		CompletedAt: time.Now().UnixMilli(),
	}
	require.NoError(t, client.PublishOutcome(ctx, outcome))

	select {
	case got := <-outcomes:
		assert.Equal(t, "job-42", got.JobID)
		require.NotNil(t, got.Result)
		assert.Equal(t, 15, got.Result.Score)
		assert.Equal(t, finding.VerdictMediumRisk, got.Result.Verdict)
	case <-ctx.Done():
		t.Fatal("timed out waiting for outcome")
	}
}

func TestHeartbeat(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Heartbeat(ctx, "worker-1"))

	key := "sigil:worker:worker-1"
	val, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Greater(t, mr.TTL(key), time.Duration(0))

	// Expiry clears the key.
	mr.FastForward(heartbeatTTL + time.Second)
	assert.False(t, mr.Exists(key))
}

func TestWorkerCount(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	count, err := client.ActiveWorkers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, client.IncrementWorkers(ctx))
	require.NoError(t, client.IncrementWorkers(ctx))

	count, err = client.ActiveWorkers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, client.DecrementWorkers(ctx))
	count, err = client.ActiveWorkers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
