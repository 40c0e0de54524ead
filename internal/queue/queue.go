// Package queue provides the ordered, durable job channel between the
// ingress facade and the single inference worker.
package queue

import (
	"context"
	"errors"

	"github.com/Mseunghwan/NoSmoke/internal/models"
)

// ErrPublish is returned when a job cannot be handed to the broker. The
// caller may retry the whole request; nothing has been enqueued.
var ErrPublish = errors.New("queue publish failed")

// Queue is a multi-producer, single-consumer FIFO job channel.
//
// Exactly one consumer may be active at a time. That constraint serializes
// calls to the rate-limited inference backend and is enforced by
// construction: one worker goroutine owns the consume loop.
type Queue interface {
	// Publish enqueues a job. It does not wait for the job to be processed.
	// A failure wraps ErrPublish and is retriable by the caller.
	Publish(ctx context.Context, job models.Job) error

	// Consume blocks until a job is available or ctx is cancelled.
	// Jobs are delivered in publish order.
	Consume(ctx context.Context) (*models.Job, error)

	// Close releases broker resources.
	Close() error
}
