package pool

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/goliatone/go-relay/core"
)

// Entry is one selectable credential inside a pool snapshot.
type Entry struct {
	ID      string
	Label   string
	Secret  string
	Weight  int
	Models  []string
	Enabled bool
}

func (e Entry) effectiveWeight() int {
	if e.Weight <= 0 {
		return 1
	}
	return e.Weight
}

func (e Entry) servesModel(model string) bool {
	return core.Credential{Models: e.Models}.ServesModel(model)
}

// Snapshot is the pool state rebuilt from storage on boot and reload.
type Snapshot struct {
	Provider        string
	ProviderID      string
	ProviderEnabled bool
	Entries         []Entry
	Disallow        []core.DisallowRecord
}

// CredentialPool selects credentials by weight among eligible entries and
// tracks disallow marks produced by upstream failures.
type CredentialPool struct {
	mu       sync.RWMutex
	provider string
	enabled  bool
	entries  []Entry
	table    *DisallowTable
	sink     core.DisallowSink

	Now  func() time.Time
	IntN func(n int) int
}

func New(provider string, sink core.DisallowSink) *CredentialPool {
	if sink == nil {
		sink = core.NopDisallowSink{}
	}
	return &CredentialPool{
		provider: provider,
		table:    NewDisallowTable(),
		sink:     sink,
		Now:      func() time.Time { return time.Now().UTC() },
		IntN:     rand.IntN,
	}
}

func (p *CredentialPool) Provider() string {
	if p == nil {
		return ""
	}
	return p.provider
}

// ReplaceSnapshot swaps the pool contents wholesale.
func (p *CredentialPool) ReplaceSnapshot(snapshot Snapshot) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = snapshot.ProviderEnabled
	p.entries = append([]Entry(nil), snapshot.Entries...)
	p.table.Replace(snapshot.Disallow)
}

// Acquire picks an eligible credential for the model, skipping excluded ids.
// Selection probability is proportional to entry weight.
func (p *CredentialPool) Acquire(model string, exclude map[string]struct{}) (Entry, error) {
	if p == nil {
		return Entry{}, fmt.Errorf("pool: pool is not configured")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.enabled {
		return Entry{}, fmt.Errorf("%w: provider %q disabled", core.ErrNoCredentialAvailable, p.provider)
	}

	now := p.Now()
	eligible := make([]Entry, 0, len(p.entries))
	total := 0
	for _, entry := range p.entries {
		if !entry.Enabled {
			continue
		}
		if _, skip := exclude[entry.ID]; skip {
			continue
		}
		if !entry.servesModel(model) {
			continue
		}
		if p.table.Blocked(entry.ID, model, now) {
			continue
		}
		eligible = append(eligible, entry)
		total += entry.effectiveWeight()
	}
	if len(eligible) == 0 {
		return Entry{}, fmt.Errorf("%w: provider %q has no eligible credential for model %q",
			core.ErrNoCredentialAvailable, p.provider, model)
	}

	pick := p.IntN(total)
	for _, entry := range eligible {
		pick -= entry.effectiveWeight()
		if pick < 0 {
			return entry, nil
		}
	}
	return eligible[len(eligible)-1], nil
}

// MarkFailure records a disallow mark and forwards it to the sink.
func (p *CredentialPool) MarkFailure(mark core.DisallowMark) core.DisallowRecord {
	if p == nil {
		return core.DisallowRecord{}
	}
	if mark.Scope.ProviderID == "" {
		mark.Scope.ProviderID = p.provider
	}
	record := mark.Record(uuid.NewString(), p.Now())

	p.mu.Lock()
	p.table.Add(record)
	p.mu.Unlock()

	p.sink.DisallowMarked(record)
	return record
}

// MarkSuccess clears transient marks covering the credential, so a recovered
// upstream comes back into rotation immediately. Cooldown and dead marks stay.
func (p *CredentialPool) MarkSuccess(credentialID, model string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	cleared := p.table.ClearLevel(core.DisallowTransient, credentialID, model)
	p.mu.Unlock()

	for _, scope := range cleared {
		p.sink.DisallowCleared(scope)
	}
}

// RemoveDisallow drops a record by id, typically after an admin delete.
func (p *CredentialPool) RemoveDisallow(id string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.table.Remove(id)
	p.mu.Unlock()
}

// Sweep drops expired disallow records and returns how many were removed.
func (p *CredentialPool) Sweep() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table.Sweep(p.Now())
}

// Stats snapshots the pool counters for the admin surface.
func (p *CredentialPool) Stats() core.ProviderStats {
	if p == nil {
		return core.ProviderStats{}
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	enabled := 0
	for _, entry := range p.entries {
		if entry.Enabled {
			enabled++
		}
	}
	return core.ProviderStats{
		Name:               p.provider,
		CredentialsTotal:   len(p.entries),
		CredentialsEnabled: enabled,
		Disallowed:         p.table.Live(p.Now()),
	}
}
