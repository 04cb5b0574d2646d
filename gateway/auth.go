package gateway

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/goliatone/go-relay/core"
)

// Identity is the downstream caller a valid api key resolves to.
type Identity struct {
	UserID string
	KeyID  string
}

// MemoryAuth resolves api keys from an immutable snapshot swapped atomically
// on reload. Lookups never take a lock.
type MemoryAuth struct {
	snapshot atomic.Pointer[map[string]Identity]
}

func NewMemoryAuth() *MemoryAuth {
	auth := &MemoryAuth{}
	empty := map[string]Identity{}
	auth.snapshot.Store(&empty)
	return auth
}

// ReplaceSnapshot rebuilds the lookup table from storage. Disabled keys are
// left out, so a disable takes effect on the next reload.
func (a *MemoryAuth) ReplaceSnapshot(keys []core.APIKey) {
	if a == nil {
		return
	}
	next := make(map[string]Identity, len(keys))
	for _, key := range keys {
		if !key.Enabled || strings.TrimSpace(key.Key) == "" {
			continue
		}
		next[key.Key] = Identity{UserID: key.UserID, KeyID: key.ID}
	}
	a.snapshot.Store(&next)
}

func (a *MemoryAuth) Lookup(secret string) (Identity, bool) {
	if a == nil || secret == "" {
		return Identity{}, false
	}
	table := a.snapshot.Load()
	if table == nil {
		return Identity{}, false
	}
	identity, ok := (*table)[secret]
	return identity, ok
}

func (a *MemoryAuth) Len() int {
	if a == nil {
		return 0
	}
	table := a.snapshot.Load()
	if table == nil {
		return 0
	}
	return len(*table)
}

// clientKey pulls the api key from wherever the client's native SDK puts it:
// bearer token, x-api-key, x-goog-api-key, or the ?key= query parameter.
func clientKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if key := r.Header.Get("x-api-key"); key != "" {
		return strings.TrimSpace(key)
	}
	if key := r.Header.Get("x-goog-api-key"); key != "" {
		return strings.TrimSpace(key)
	}
	return strings.TrimSpace(r.URL.Query().Get("key"))
}
