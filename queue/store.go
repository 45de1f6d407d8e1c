package queue

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/mlbridge/mlbridge/pkg/errors"
)

// Queue and key conventions shared with the PHP side.
const (
	DefaultQueue     = "ml_tasks"
	DefaultResultTTL = time.Hour

	taskKeyPrefix   = "task:"
	resultKeyPrefix = "result:"

	dequeueTimeout = time.Second
)

// Store is the persistence contract the worker and producer need. Dequeue
// returns (nil, nil) when the poll times out with no task available.
type Store interface {
	Enqueue(ctx context.Context, task *Task) error
	Dequeue(ctx context.Context) (*Task, error)
	SetTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	SetResult(ctx context.Context, id string, result interface{}) error
	GetResult(ctx context.Context, id string) (json.RawMessage, error)
}

// RedisStore implements Store on a Redis list plus per-task keys.
type RedisStore struct {
	client *redis.Client
	queue  string
	ttl    time.Duration
}

// NewRedisStore connects to Redis at addr. Empty queue and zero ttl fall
// back to the defaults.
func NewRedisStore(addr, queueName string, ttl time.Duration) *RedisStore {
	if queueName == "" {
		queueName = DefaultQueue
	}
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		queue:  queueName,
		ttl:    ttl,
	}
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "failed to connect to Redis")
	}
	return nil
}

// Close releases the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Enqueue pushes the task onto the queue and records its state.
func (s *RedisStore) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, "failed to marshal task")
	}
	if err := s.client.LPush(ctx, s.queue, payload).Err(); err != nil {
		return errors.Wrap(err, "failed to enqueue task")
	}
	return s.SetTask(ctx, task)
}

// Dequeue blocks up to one second for the next task.
func (s *RedisStore) Dequeue(ctx context.Context) (*Task, error) {
	res, err := s.client.BRPop(ctx, dequeueTimeout, s.queue).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to poll queue")
	}

	// BRPop returns [key, value].
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, errors.NewValidationError("task", "malformed task payload: "+err.Error())
	}
	return &task, nil
}

// SetTask stores the task record under task:<id> with the configured TTL.
func (s *RedisStore) SetTask(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, "failed to marshal task")
	}
	if err := s.client.SetEx(ctx, taskKeyPrefix+task.ID, payload, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store task state")
	}
	return nil
}

// GetTask fetches the task record, (nil, nil) when it does not exist or
// has expired.
func (s *RedisStore) GetTask(ctx context.Context, id string) (*Task, error) {
	payload, err := s.client.Get(ctx, taskKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch task state")
	}

	var task Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, errors.NewValidationError("task", "malformed task payload: "+err.Error())
	}
	return &task, nil
}

// SetResult stores the task's result under result:<id> with the configured
// TTL.
func (s *RedisStore) SetResult(ctx context.Context, id string, result interface{}) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "failed to marshal result")
	}
	if err := s.client.SetEx(ctx, resultKeyPrefix+id, payload, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store result")
	}
	return nil
}

// GetResult fetches the raw result JSON, (nil, nil) when absent.
func (s *RedisStore) GetResult(ctx context.Context, id string) (json.RawMessage, error) {
	payload, err := s.client.Get(ctx, resultKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch result")
	}
	return json.RawMessage(payload), nil
}
