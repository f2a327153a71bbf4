package queue

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	laneKeyPrefix    = "sigil:jobs:"
	outcomePrefix    = "sigil:outcomes:"
	workerKeyPrefix  = "sigil:worker:"
	workerCounterKey = "sigil:workers"
)

// heartbeatTTL is how long a worker heartbeat key lives without
// renewal.
const heartbeatTTL = 30 * time.Second

// Client defines the interface for the Redis-backed scan job queue.
type Client interface {
	// Enqueue adds a job to the lane selected by its priority (LPUSH).
	Enqueue(ctx context.Context, job ScanJob) error

	// Dequeue removes and returns the next job, draining higher priority
	// lanes first (BRPOP across lanes). Blocks until a job is available
	// or the context is cancelled.
	Dequeue(ctx context.Context) (*ScanJob, error)

	// PublishOutcome sends a scan outcome to the job's pub/sub channel.
	PublishOutcome(ctx context.Context, outcome ScanOutcome) error

	// SubscribeOutcome subscribes to a job's outcome channel. The
	// returned channel closes when the context is cancelled.
	SubscribeOutcome(ctx context.Context, jobID string) (<-chan ScanOutcome, error)

	// Heartbeat refreshes the worker's health key with a short TTL.
	Heartbeat(ctx context.Context, workerID string) error

	// ActiveWorkers returns the current active worker count.
	ActiveWorkers(ctx context.Context) (int, error)

	// IncrementWorkers increments the active worker count.
	IncrementWorkers(ctx context.Context) error

	// DecrementWorkers decrements the active worker count.
	DecrementWorkers(ctx context.Context) error

	// Close closes the Redis connection.
	Close() error
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration
}

// RedisClient implements the Client interface using go-redis/v9.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis queue client with the given options.
func NewRedisClient(opts RedisOptions) (*RedisClient, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}

	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

func laneKey(p Priority) string {
	return laneKeyPrefix + p.String()
}

func outcomeChannel(jobID string) string {
	return outcomePrefix + jobID
}

// Enqueue adds a job to its priority lane.
func (c *RedisClient) Enqueue(ctx context.Context, job ScanJob) error {
	if err := job.IsValid(); err != nil {
		return fmt.Errorf("invalid scan job: %w", err)
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal scan job: %w", err)
	}

	lane := laneKey(job.Priority)
	if err := c.client.LPush(ctx, lane, data).Err(); err != nil {
		return fmt.Errorf("failed to push to lane %s: %w", lane, err)
	}

	return nil
}

// Dequeue removes and returns the next job across all lanes. Lanes are
// checked most-urgent-first, so a high priority job is always delivered
// before a waiting normal or low one.
func (c *RedisClient) Dequeue(ctx context.Context) (*ScanJob, error) {
	lanes := make([]string, 0, 3)
	for _, p := range AllPriorities() {
		lanes = append(lanes, laneKey(p))
	}

	// BRPOP returns [lane_name, value] or redis.Nil on timeout
	result, err := c.client.BRPop(ctx, 0, lanes...).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop scan job: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result length: %d", len(result))
	}

	var job ScanJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scan job: %w", err)
	}

	return &job, nil
}

// PublishOutcome sends an outcome to the job's pub/sub channel.
func (c *RedisClient) PublishOutcome(ctx context.Context, outcome ScanOutcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal scan outcome: %w", err)
	}

	channel := outcomeChannel(outcome.JobID)
	if err := c.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", channel, err)
	}

	return nil
}

// SubscribeOutcome creates a subscription to a job's outcome channel.
func (c *RedisClient) SubscribeOutcome(ctx context.Context, jobID string) (<-chan ScanOutcome, error) {
	channel := outcomeChannel(jobID)
	pubsub := c.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}

	outcomes := make(chan ScanOutcome)

	go func() {
		defer close(outcomes)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var outcome ScanOutcome
				if err := json.Unmarshal([]byte(msg.Payload), &outcome); err != nil {
					// Skip undecodable payloads and keep listening
					continue
				}

				select {
				case outcomes <- outcome:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return outcomes, nil
}

// Heartbeat refreshes the worker's health key.
func (c *RedisClient) Heartbeat(ctx context.Context, workerID string) error {
	key := workerKeyPrefix + workerID
	if err := c.client.Set(ctx, key, "ok", heartbeatTTL).Err(); err != nil {
		return fmt.Errorf("failed to set heartbeat for worker %s: %w", workerID, err)
	}
	return nil
}

// ActiveWorkers returns the current active worker count.
func (c *RedisClient) ActiveWorkers(ctx context.Context) (int, error) {
	countStr, err := c.client.Get(ctx, workerCounterKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get worker count: %w", err)
	}

	count, err := strconv.Atoi(countStr)
	if err != nil {
		return 0, fmt.Errorf("invalid worker count value: %w", err)
	}

	return count, nil
}

// IncrementWorkers increments the active worker count.
func (c *RedisClient) IncrementWorkers(ctx context.Context) error {
	if err := c.client.Incr(ctx, workerCounterKey).Err(); err != nil {
		return fmt.Errorf("failed to increment worker count: %w", err)
	}
	return nil
}

// DecrementWorkers decrements the active worker count.
func (c *RedisClient) DecrementWorkers(ctx context.Context) error {
	if err := c.client.Decr(ctx, workerCounterKey).Err(); err != nil {
		return fmt.Errorf("failed to decrement worker count: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}
