package queue

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/Mseunghwan/NoSmoke/internal/models"
)

// MemQueue is an in-process Queue backed by a buffered channel. Used in
// development and tests; it is not durable across restarts.
type MemQueue struct {
	jobs chan models.Job
}

// NewMemQueue creates an in-memory queue with the given buffer capacity.
func NewMemQueue(capacity int) *MemQueue {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemQueue{jobs: make(chan models.Job, capacity)}
}

// Publish enqueues without blocking; a full buffer is a publish failure,
// matching an unreachable broker.
func (q *MemQueue) Publish(ctx context.Context, job models.Job) error {
	if job.ID == "" {
		job.ID = ulid.Make().String()
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("%w: queue full", ErrPublish)
	}
}

// Consume blocks until a job is available or ctx is cancelled.
func (q *MemQueue) Consume(ctx context.Context) (*models.Job, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case job := <-q.jobs:
		return &job, nil
	}
}

// Close is a no-op; the channel is left open so racing publishers never
// panic on send.
func (q *MemQueue) Close() error { return nil }

// Len reports the number of buffered jobs. Test helper.
func (q *MemQueue) Len() int { return len(q.jobs) }
