package traffic

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-relay/core"
)

const defaultQueueSize = 256

// Recorder persists traffic events off the request path. Record never
// blocks; events beyond the queue capacity are counted and dropped.
type Recorder struct {
	store   core.TrafficStore
	logger  core.Logger
	metrics core.MetricsRecorder

	queue   chan core.TrafficEvent
	dropped atomic.Int64

	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}
}

type Option func(*Recorder)

func WithLogger(logger core.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithMetrics(metrics core.MetricsRecorder) Option {
	return func(r *Recorder) {
		r.metrics = metrics
	}
}

func WithQueueSize(size int) Option {
	return func(r *Recorder) {
		if size > 0 {
			r.queue = make(chan core.TrafficEvent, size)
		}
	}
}

func New(store core.TrafficStore, options ...Option) *Recorder {
	r := &Recorder{
		store:   store,
		metrics: core.NopMetricsRecorder{},
		queue:   make(chan core.TrafficEvent, defaultQueueSize),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, option := range options {
		if option != nil {
			option(r)
		}
	}
	r.logger = glog.Ensure(r.logger)
	go r.run()
	return r
}

// Record enqueues the event, dropping it when the queue is full. Events
// arriving after Close are discarded.
func (r *Recorder) Record(event core.TrafficEvent) {
	if r == nil {
		return
	}
	select {
	case <-r.closing:
		return
	default:
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	select {
	case r.queue <- event:
	default:
		dropped := r.dropped.Add(1)
		r.metrics.IncCounter(context.Background(), "relay_traffic_dropped_total", 1, map[string]string{
			"direction": string(event.Direction),
		})
		if dropped%100 == 1 {
			r.logger.Warn("traffic queue saturated, dropping events", "dropped", dropped)
		}
	}
}

// Dropped reports how many events were discarded since start.
func (r *Recorder) Dropped() int64 {
	if r == nil {
		return 0
	}
	return r.dropped.Load()
}

// Close stops the worker after draining whatever is queued.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		close(r.closing)
		<-r.done
	})
}

func (r *Recorder) run() {
	defer close(r.done)
	for {
		select {
		case event := <-r.queue:
			r.insert(event)
		case <-r.closing:
			for {
				select {
				case event := <-r.queue:
					r.insert(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) insert(event core.TrafficEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Insert(ctx, event); err != nil {
		r.logger.Error("traffic insert failed",
			"direction", string(event.Direction), "provider", event.Provider, "error", err)
	}
}

var _ core.TrafficRecorder = (*Recorder)(nil)
