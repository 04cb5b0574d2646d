package gojob

import (
	"context"
	"fmt"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

type stubEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	s.last = msg
	return nil
}

type stubDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nacked   bool
	nackOpts queue.NackOptions
}

func (s *stubDelivery) Message() *job.ExecutionMessage { return s.msg }

func (s *stubDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nacked = true
	s.nackOpts = opts
	return nil
}

type stubSweeper struct {
	removed int64
	err     error
	calls   int
}

func (s *stubSweeper) SweepDisallow(context.Context) (int64, error) {
	s.calls++
	return s.removed, s.err
}

func TestEnqueueSweepBuildsDedupedMessage(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	if err := EnqueueSweep(context.Background(), enqueuer); err != nil {
		t.Fatalf("enqueue sweep: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != JobIDSweepDisallow {
		t.Fatalf("expected sweep job id, got %+v", enqueuer.last)
	}
	if enqueuer.last.DedupPolicy != job.DeduplicationPolicy("drop") {
		t.Fatalf("expected drop dedup policy, got %q", enqueuer.last.DedupPolicy)
	}
}

func TestSweepWorkerAcksOnSuccess(t *testing.T) {
	sweeper := &stubSweeper{removed: 3}
	worker := NewSweepWorker(sweeper, RetryPolicy{}, nil)
	delivery := &stubDelivery{msg: NewSweepMessage()}

	if err := worker.Handle(context.Background(), delivery); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !delivery.acked || delivery.nacked {
		t.Fatalf("expected ack, got acked=%v nacked=%v", delivery.acked, delivery.nacked)
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected one sweep, got %d", sweeper.calls)
	}
}

func TestSweepWorkerRequeuesOnFailure(t *testing.T) {
	sweeper := &stubSweeper{err: fmt.Errorf("db unavailable")}
	worker := NewSweepWorker(sweeper, RetryPolicy{
		RequeueDelay: 30 * time.Second,
		MaxDelay:     10 * time.Second,
	}, nil)
	delivery := &stubDelivery{msg: NewSweepMessage()}

	if err := worker.Handle(context.Background(), delivery); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if delivery.acked || !delivery.nacked {
		t.Fatalf("expected nack on sweep failure")
	}
	if !delivery.nackOpts.Requeue {
		t.Fatalf("expected requeue")
	}
	if delivery.nackOpts.Delay != 10*time.Second {
		t.Fatalf("expected delay bounded to max, got %s", delivery.nackOpts.Delay)
	}
}

func TestSweepWorkerDeadLettersUnknownJobs(t *testing.T) {
	worker := NewSweepWorker(&stubSweeper{}, RetryPolicy{}, nil)
	delivery := &stubDelivery{msg: &job.ExecutionMessage{JobID: "something.else"}}

	if err := worker.Handle(context.Background(), delivery); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !delivery.nackOpts.DeadLetter {
		t.Fatalf("expected dead letter for unknown job id")
	}
}
