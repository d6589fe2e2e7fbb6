package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Canceller is the task body invoked for each due order. It must be
// idempotent: the queue delivers at least once.
type Canceller interface {
	CancelUnpaid(ctx context.Context, orderID uuid.UUID) error
}

const (
	popBatchSize = 16
	retryDelay   = 30 * time.Second
)

// Worker drains the cancellation queue and runs the cancellation task for
// each due order.
type Worker struct {
	scheduler *RedisScheduler
	canceller Canceller
	interval  time.Duration
	logger    zerolog.Logger
}

// NewWorker creates a cancellation worker polling at the given interval.
func NewWorker(scheduler *RedisScheduler, canceller Canceller, interval time.Duration, logger zerolog.Logger) *Worker {
	return &Worker{
		scheduler: scheduler,
		canceller: canceller,
		interval:  interval,
		logger:    logger.With().Str("component", "cancel-worker").Logger(),
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.interval).Msg("cancellation worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("cancellation worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain processes everything currently due. A task that fails goes back on
// the queue with a delay rather than being dropped.
func (w *Worker) drain(ctx context.Context) {
	for {
		members, err := w.scheduler.popDue(ctx, time.Now(), popBatchSize)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error().Err(err).Msg("failed to pop due cancellations")
			return
		}
		if len(members) == 0 {
			return
		}

		for _, member := range members {
			w.processOne(ctx, member)
		}
	}
}

func (w *Worker) processOne(ctx context.Context, member string) {
	orderID, err := uuid.Parse(member)
	if err != nil {
		// Dirty member, drop it rather than poison the queue.
		w.logger.Error().Str("member", member).Msg("discarding malformed cancellation task")
		return
	}

	taskCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := w.canceller.CancelUnpaid(taskCtx, orderID); err != nil {
		w.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("cancellation task failed, requeueing")
		if rqErr := w.scheduler.requeue(ctx, member, retryDelay); rqErr != nil {
			w.logger.Error().
				Err(rqErr).
				Str("order_id", orderID.String()).
				Msg("failed to requeue cancellation task")
		}
	}
}
