package traffic

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-relay/core"
)

type memoryTrafficStore struct {
	mu     sync.Mutex
	events []core.TrafficEvent
	gate   chan struct{}
}

func (s *memoryTrafficStore) Insert(_ context.Context, event core.TrafficEvent) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

func (s *memoryTrafficStore) UsageTotals(context.Context) ([]core.UsageTotals, error) {
	return nil, nil
}

func (s *memoryTrafficStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestRecorderPersistsEvents(t *testing.T) {
	store := &memoryTrafficStore{}
	recorder := New(store)

	recorder.Record(core.TrafficEvent{Direction: core.TrafficUpstream, Provider: "claude"})
	recorder.Record(core.TrafficEvent{Direction: core.TrafficDownstream, Provider: "claude"})
	recorder.Close()

	if store.count() != 2 {
		t.Fatalf("expected 2 persisted events, got %d", store.count())
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.events[0].CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be stamped")
	}
}

func TestRecorderDropsWhenSaturated(t *testing.T) {
	gate := make(chan struct{})
	store := &memoryTrafficStore{gate: gate}
	recorder := New(store, WithQueueSize(1))

	// First event occupies the worker, second fills the queue, the rest drop.
	for i := 0; i < 5; i++ {
		recorder.Record(core.TrafficEvent{Direction: core.TrafficUpstream})
	}
	deadline := time.After(time.Second)
	for recorder.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatalf("expected drops under saturation")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(gate)
	recorder.Close()

	if got := recorder.Dropped() + int64(store.count()); got != 5 {
		t.Fatalf("expected drops plus persisted to equal 5, got %d", got)
	}
}

func TestRecorderCloseIsIdempotent(t *testing.T) {
	recorder := New(&memoryTrafficStore{})
	recorder.Close()
	recorder.Close()
}

func TestRecorderDiscardsRecordsAfterClose(t *testing.T) {
	store := &memoryTrafficStore{}
	recorder := New(store)

	recorder.Record(core.TrafficEvent{Direction: core.TrafficUpstream, Provider: "claude"})
	recorder.Close()
	recorder.Record(core.TrafficEvent{Direction: core.TrafficUpstream, Provider: "claude"})

	if store.count() != 1 {
		t.Fatalf("expected only the pre-close event persisted, got %d", store.count())
	}
}
