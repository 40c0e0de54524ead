// Package worker runs the single consumer of the inference job queue.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mseunghwan/NoSmoke/internal/dispatch"
	"github.com/Mseunghwan/NoSmoke/internal/inference"
	"github.com/Mseunghwan/NoSmoke/internal/metrics"
	"github.com/Mseunghwan/NoSmoke/internal/models"
	"github.com/Mseunghwan/NoSmoke/internal/queue"
	"github.com/Mseunghwan/NoSmoke/internal/store"
)

// Worker consumes jobs one at a time, calls the inference backend, persists
// the reply, and pushes it to the user's channel. There is exactly one
// worker per process: the consume loop is owned by a single goroutine, which
// serializes calls to the rate-limited backend by construction.
type Worker struct {
	queue      queue.Queue
	store      store.Store
	dispatcher dispatch.Dispatcher
	client     inference.Client
	timeout    time.Duration
	logger     zerolog.Logger
}

// New creates a worker bound to the queue.
func New(q queue.Queue, st store.Store, d dispatch.Dispatcher, c inference.Client, timeout time.Duration, logger zerolog.Logger) *Worker {
	return &Worker{
		queue:      q,
		store:      st,
		dispatcher: d,
		client:     c,
		timeout:    timeout,
		logger:     logger.With().Str("component", "worker").Logger(),
	}
}

// Run owns the consume loop until ctx is cancelled. It must be started in
// exactly one goroutine; jobs are fully processed (or dropped) before the
// next one is consumed.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info().Dur("inference_timeout", w.timeout).Msg("worker started")

	for {
		job, err := w.queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info().Msg("worker stopped")
				return
			}
			w.logger.Error().Err(err).Msg("consume failed")
			time.Sleep(time.Second)
			continue
		}

		w.process(ctx, job)
	}
}

// process runs one job to completion. Failures are logged and the job is
// dropped: no retry, no requeue, no user-visible error. The caller already
// got its acknowledgement; the durable record stays absent.
func (w *Worker) process(ctx context.Context, job *models.Job) {
	log := w.logger.With().Str("job_id", job.ID).Int64("user_id", job.UserID).Logger()
	log.Info().Msg("job received")

	callCtx, cancel := context.WithTimeout(ctx, w.timeout)
	start := time.Now()
	text, err := w.client.Generate(callCtx, job.Prompt)
	cancel()
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.JobsProcessed.WithLabelValues("inference_timeout").Inc()
			log.Error().Err(inference.ErrTimeout).Dur("elapsed", time.Since(start)).Msg("job dropped")
		} else {
			metrics.JobsProcessed.WithLabelValues("inference_error").Inc()
			log.Error().Err(err).Msg("job dropped")
		}
		return
	}

	msg, err := w.store.AppendMessage(ctx, job.UserID, text, models.TypeReactive)
	if err != nil {
		// The generated answer is lost even though inference succeeded.
		metrics.JobsProcessed.WithLabelValues("persist_error").Inc()
		log.Error().Err(err).Msg("persist failed, job dropped")
		return
	}
	metrics.MessagesPersisted.WithLabelValues(string(models.TypeReactive)).Inc()
	metrics.JobsProcessed.WithLabelValues("ok").Inc()

	delivered := w.dispatcher.Publish(job.UserID, msg.Push())

	log.Info().
		Int64("message_id", msg.ID).
		Int("delivered", delivered).
		Str("topic", dispatch.Topic(job.UserID)).
		Msg("job processed")
}
