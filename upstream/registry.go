package upstream

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-relay/core"
	"github.com/goliatone/go-relay/pool"
)

// Registry holds the active providers keyed by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*Provider)}
}

func (r *Registry) Register(provider *Provider) error {
	if provider == nil {
		return fmt.Errorf("upstream: provider is nil")
	}
	name := strings.TrimSpace(provider.Name())
	if name == "" {
		return fmt.Errorf("upstream: provider name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("upstream: provider already registered: %s", name)
	}
	r.providers[name] = provider
	return nil
}

func (r *Registry) Get(name string) (*Provider, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	r.mu.RLock()
	provider, ok := r.providers[name]
	r.mu.RUnlock()
	return provider, ok
}

func (r *Registry) List() []*Provider {
	r.mu.RLock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)

	providers := make([]*Provider, 0, len(names))
	r.mu.RLock()
	for _, name := range names {
		providers = append(providers, r.providers[name])
	}
	r.mu.RUnlock()
	return providers
}

// ApplySnapshots replaces each provider's pool contents from a reload.
// Providers without a snapshot are emptied so they stop serving.
func (r *Registry) ApplySnapshots(snapshots map[string]pool.Snapshot) {
	for _, provider := range r.List() {
		snapshot, ok := snapshots[provider.Name()]
		if !ok {
			snapshot = pool.Snapshot{Provider: provider.Name()}
		}
		provider.Pool().ReplaceSnapshot(snapshot)
	}
}

// Stats collects per-provider pool counters, sorted by name.
func (r *Registry) Stats() []core.ProviderStats {
	providers := r.List()
	stats := make([]core.ProviderStats, 0, len(providers))
	for _, provider := range providers {
		stats = append(stats, provider.Stats())
	}
	return stats
}
