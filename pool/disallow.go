package pool

import (
	"time"

	"github.com/goliatone/go-relay/core"
)

// DisallowTable holds the active disallow records for one provider pool.
// Callers synchronize access; the pool guards it with its own lock.
type DisallowTable struct {
	records map[string]core.DisallowRecord
}

func NewDisallowTable() *DisallowTable {
	return &DisallowTable{records: map[string]core.DisallowRecord{}}
}

func (t *DisallowTable) Replace(records []core.DisallowRecord) {
	next := make(map[string]core.DisallowRecord, len(records))
	for _, record := range records {
		if record.ID == "" {
			continue
		}
		next[record.ID] = record
	}
	t.records = next
}

func (t *DisallowTable) Add(record core.DisallowRecord) {
	if record.ID == "" {
		return
	}
	t.records[record.ID] = record
}

func (t *DisallowTable) Remove(id string) {
	delete(t.records, id)
}

// Blocked reports whether any live record covers the (credential, model) pair.
func (t *DisallowTable) Blocked(credentialID, model string, now time.Time) bool {
	for _, record := range t.records {
		if record.Expired(now) {
			continue
		}
		if record.Scope.Covers(credentialID, model) {
			return true
		}
	}
	return false
}

// ClearLevel removes records of the given level whose scope covers the pair,
// returning the scopes that were dropped.
func (t *DisallowTable) ClearLevel(level core.DisallowLevel, credentialID, model string) []core.DisallowScope {
	var cleared []core.DisallowScope
	for id, record := range t.records {
		if record.Level != level {
			continue
		}
		if !record.Scope.Covers(credentialID, model) {
			continue
		}
		cleared = append(cleared, record.Scope)
		delete(t.records, id)
	}
	return cleared
}

// Sweep drops expired records and returns how many were removed.
func (t *DisallowTable) Sweep(now time.Time) int {
	removed := 0
	for id, record := range t.records {
		if record.Expired(now) {
			delete(t.records, id)
			removed++
		}
	}
	return removed
}

// Live counts records still in effect at the given instant.
func (t *DisallowTable) Live(now time.Time) int {
	count := 0
	for _, record := range t.records {
		if !record.Expired(now) {
			count++
		}
	}
	return count
}
