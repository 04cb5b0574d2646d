package gojob

import (
	"context"
	"fmt"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	glog "github.com/goliatone/go-logger/glog"
	relaycommand "github.com/goliatone/go-relay/command"
	"github.com/goliatone/go-relay/core"
)

const (
	JobIDSweepDisallow = "relay.disallow.sweep"
	JobIDReload        = "relay.reload"
)

// RetryPolicy bounds requeue behavior for failed sweep deliveries.
type RetryPolicy struct {
	RequeueDelay time.Duration
	MaxDelay     time.Duration
}

func (p RetryPolicy) nackOptions(reason string) queue.NackOptions {
	delay := p.RequeueDelay
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if delay < 0 {
		delay = 0
	}
	return queue.NackOptions{
		Delay:   delay,
		Requeue: true,
		Reason:  reason,
	}
}

// NewSweepMessage builds the queue message that triggers one disallow sweep.
// Dedup by job id: overlapping sweeps are wasted work, not a correctness
// problem.
func NewSweepMessage() *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:          JobIDSweepDisallow,
		IdempotencyKey: JobIDSweepDisallow,
		DedupPolicy:    job.DeduplicationPolicy("drop"),
	}
}

// EnqueueSweep pushes a sweep trigger onto a go-job queue.
func EnqueueSweep(ctx context.Context, enqueuer queue.Enqueuer) error {
	if enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is required")
	}
	return enqueuer.Enqueue(ctx, NewSweepMessage())
}

// SweepWorker consumes sweep deliveries and runs them against the service.
type SweepWorker struct {
	sweeper relaycommand.SweeperService
	policy  RetryPolicy
	logger  core.Logger
}

func NewSweepWorker(sweeper relaycommand.SweeperService, policy RetryPolicy, logger core.Logger) *SweepWorker {
	return &SweepWorker{
		sweeper: sweeper,
		policy:  policy,
		logger:  glog.Ensure(logger),
	}
}

// Handle processes one delivery: ack on success, bounded requeue on failure,
// dead-letter anything that is not a sweep message.
func (w *SweepWorker) Handle(ctx context.Context, delivery queue.Delivery) error {
	if w == nil || w.sweeper == nil {
		return fmt.Errorf("gojob: sweep worker is not configured")
	}
	if delivery == nil {
		return fmt.Errorf("gojob: delivery is required")
	}
	msg := delivery.Message()
	if msg == nil || msg.JobID != JobIDSweepDisallow {
		return delivery.Nack(ctx, queue.NackOptions{
			DeadLetter: true,
			Reason:     "unexpected job id",
		})
	}
	removed, err := w.sweeper.SweepDisallow(ctx)
	if err != nil {
		w.logger.Error("disallow sweep failed", "error", err)
		return delivery.Nack(ctx, w.policy.nackOptions(err.Error()))
	}
	if removed > 0 {
		w.logger.Debug("disallow sweep removed records", "count", removed)
	}
	return delivery.Ack(ctx)
}

// Run consumes deliveries until the context is cancelled.
func (w *SweepWorker) Run(ctx context.Context, dequeuer queue.Dequeuer) error {
	if w == nil || dequeuer == nil {
		return fmt.Errorf("gojob: sweep worker is not configured")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		delivery, err := dequeuer.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := w.Handle(ctx, delivery); err != nil {
			w.logger.Error("handling sweep delivery failed", "error", err)
		}
	}
}
