package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Mseunghwan/NoSmoke/internal/models"
)

// jobsKey is the Redis list carrying pending inference jobs.
const jobsKey = "companion:jobs"

// RedisQueue is a Queue backed by a Redis list (LPUSH/BRPOP). Jobs survive a
// worker crash while they sit in the list; a job already popped when the
// worker dies is lost, which is the accepted delivery model.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue connects to Redis and returns a durable queue.
func NewRedisQueue(ctx context.Context, redisURL string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisQueue{client: client}, nil
}

// Close closes the Redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Ping checks the Redis connection.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Publish serializes the job and pushes it onto the list head. BRPOP on the
// consumer side pops from the tail, giving FIFO order.
func (q *RedisQueue) Publish(ctx context.Context, job models.Job) error {
	if job.ID == "" {
		job.ID = ulid.Make().String()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	if err := q.client.LPush(ctx, jobsKey, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	return nil
}

// Consume blocks on BRPOP until a job arrives or ctx is cancelled.
func (q *RedisQueue) Consume(ctx context.Context) (*models.Job, error) {
	for {
		res, err := q.client.BRPop(ctx, 0, jobsKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		// BRPOP returns [key, value]
		if len(res) != 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			// Malformed payload: drop and keep consuming
			continue
		}
		return &job, nil
	}
}
