package prometheus

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/goliatone/go-relay/core"
)

type counterEntry struct {
	vec  *prometheus.CounterVec
	keys []string
}

type histogramEntry struct {
	vec  *prometheus.HistogramVec
	keys []string
}

// Recorder implements the metrics contract over a dedicated prometheus
// registry. Metric label sets are fixed by the first observation of each
// name; later calls drop tags the vector does not know.
type Recorder struct {
	mu         sync.Mutex
	registry   *prometheus.Registry
	counters   map[string]counterEntry
	histograms map[string]histogramEntry
}

func NewRecorder() *Recorder {
	return &Recorder{
		registry:   prometheus.NewRegistry(),
		counters:   map[string]counterEntry{},
		histograms: map[string]histogramEntry{},
	}
}

// Handler serves the registry in the prometheus exposition format, for
// mounting at /metrics.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || name == "" {
		return
	}
	r.mu.Lock()
	entry, ok := r.counters[name]
	if !ok {
		keys := sortedKeys(tags)
		entry = counterEntry{
			vec: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: name,
				Help: name,
			}, keys),
			keys: keys,
		}
		r.registry.MustRegister(entry.vec)
		r.counters[name] = entry
	}
	r.mu.Unlock()
	entry.vec.With(labelValues(entry.keys, tags)).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil || name == "" {
		return
	}
	r.mu.Lock()
	entry, ok := r.histograms[name]
	if !ok {
		keys := sortedKeys(tags)
		entry = histogramEntry{
			vec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    name,
				Help:    name,
				Buckets: prometheus.DefBuckets,
			}, keys),
			keys: keys,
		}
		r.registry.MustRegister(entry.vec)
		r.histograms[name] = entry
	}
	r.mu.Unlock()
	entry.vec.With(labelValues(entry.keys, tags)).Observe(value)
}

func sortedKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func labelValues(keys []string, tags map[string]string) prometheus.Labels {
	labels := make(prometheus.Labels, len(keys))
	for _, key := range keys {
		labels[key] = tags[key]
	}
	return labels
}

var _ core.MetricsRecorder = (*Recorder)(nil)
