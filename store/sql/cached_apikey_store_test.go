package sqlstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-relay/core"
)

type stubAPIKeyStore struct {
	mu       sync.Mutex
	keys     map[string]core.APIKey
	getCalls int
}

func newStubAPIKeyStore(keys ...core.APIKey) *stubAPIKeyStore {
	store := &stubAPIKeyStore{keys: map[string]core.APIKey{}}
	for _, key := range keys {
		store.keys[key.ID] = key
	}
	return store
}

func (s *stubAPIKeyStore) List(context.Context) ([]core.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.APIKey, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, key)
	}
	return out, nil
}

func (s *stubAPIKeyStore) Get(_ context.Context, id string) (core.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	key, ok := s.keys[id]
	if !ok {
		return core.APIKey{}, fmt.Errorf("stub: api key %s not found", id)
	}
	return key, nil
}

func (s *stubAPIKeyStore) Create(_ context.Context, in core.APIKey) (core.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[in.ID] = in
	return in, nil
}

func (s *stubAPIKeyStore) Upsert(_ context.Context, in core.APIKey) (core.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[in.ID] = in
	return in, nil
}

func (s *stubAPIKeyStore) SetEnabled(_ context.Context, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[id]
	if !ok {
		return fmt.Errorf("stub: api key %s not found", id)
	}
	key.Enabled = enabled
	s.keys[id] = key
	return nil
}

func (s *stubAPIKeyStore) TouchLastUsed(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[id]
	if !ok {
		return fmt.Errorf("stub: api key %s not found", id)
	}
	key.LastUsedAt = &at
	s.keys[id] = key
	return nil
}

func (s *stubAPIKeyStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, id)
	return nil
}

func (s *stubAPIKeyStore) gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls
}

func newTestAPIKeyCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func TestCachedAPIKeyStore_Get_MissFetchThenHit(t *testing.T) {
	base := newStubAPIKeyStore(core.APIKey{ID: "key-1", UserID: "user-1", Key: "rk-1", Enabled: true})
	store, err := NewCachedAPIKeyStore(base, newTestAPIKeyCacheService(t))
	if err != nil {
		t.Fatalf("new cached api key store: %v", err)
	}

	if _, err := store.Get(context.Background(), "key-1"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if base.gets() != 1 {
		t.Fatalf("expected first get to fetch base store once, got %d", base.gets())
	}

	key, err := store.Get(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if base.gets() != 1 {
		t.Fatalf("expected second get to be a cache hit, base gets=%d", base.gets())
	}
	if key.Key != "rk-1" {
		t.Fatalf("expected cached key payload, got %+v", key)
	}
}

func TestCachedAPIKeyStore_SetEnabledInvalidates(t *testing.T) {
	base := newStubAPIKeyStore(core.APIKey{ID: "key-1", Key: "rk-1", Enabled: true})
	store, err := NewCachedAPIKeyStore(base, newTestAPIKeyCacheService(t))
	if err != nil {
		t.Fatalf("new cached api key store: %v", err)
	}

	if _, err := store.Get(context.Background(), "key-1"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if err := store.SetEnabled(context.Background(), "key-1", false); err != nil {
		t.Fatalf("set enabled: %v", err)
	}

	key, err := store.Get(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("get after disable: %v", err)
	}
	if key.Enabled {
		t.Fatalf("expected disabled key after invalidation, got %+v", key)
	}
	if base.gets() != 2 {
		t.Fatalf("expected refetch after invalidation, base gets=%d", base.gets())
	}
}

func TestCachedAPIKeyStore_UpsertAndDeleteInvalidate(t *testing.T) {
	base := newStubAPIKeyStore(core.APIKey{ID: "key-1", Key: "rk-1", Enabled: true})
	store, err := NewCachedAPIKeyStore(base, newTestAPIKeyCacheService(t))
	if err != nil {
		t.Fatalf("new cached api key store: %v", err)
	}

	if _, err := store.Get(context.Background(), "key-1"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if _, err := store.Upsert(context.Background(), core.APIKey{ID: "key-1", Key: "rk-rotated", Enabled: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	key, err := store.Get(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if key.Key != "rk-rotated" {
		t.Fatalf("expected rotated key after upsert invalidation, got %+v", key)
	}

	if err := store.Delete(context.Background(), "key-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(context.Background(), "key-1"); err == nil {
		t.Fatalf("expected miss after delete invalidation")
	}
}

func TestCachedAPIKeyStore_TouchLastUsedKeepsCache(t *testing.T) {
	base := newStubAPIKeyStore(core.APIKey{ID: "key-1", Key: "rk-1", Enabled: true})
	store, err := NewCachedAPIKeyStore(base, newTestAPIKeyCacheService(t))
	if err != nil {
		t.Fatalf("new cached api key store: %v", err)
	}

	if _, err := store.Get(context.Background(), "key-1"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if err := store.TouchLastUsed(context.Background(), "key-1", time.Now().UTC()); err != nil {
		t.Fatalf("touch last used: %v", err)
	}
	if _, err := store.Get(context.Background(), "key-1"); err != nil {
		t.Fatalf("get after touch: %v", err)
	}
	if base.gets() != 1 {
		t.Fatalf("expected touch to keep the cached entry, base gets=%d", base.gets())
	}
}

func TestCachedAPIKeyStore_RequiresDependencies(t *testing.T) {
	if _, err := NewCachedAPIKeyStore(nil, newTestAPIKeyCacheService(t)); err == nil {
		t.Fatalf("expected error for nil base store")
	}
	if _, err := NewCachedAPIKeyStore(newStubAPIKeyStore(), nil); err == nil {
		t.Fatalf("expected error for nil cache service")
	}
}
