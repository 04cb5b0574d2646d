package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-relay/core"
)

const apiKeyCacheKeyPrefix = "go-relay::api_key::v1"

// CachedAPIKeyStore caches key reads in front of the SQL store. Mutations
// write through and invalidate, so the auth snapshot reload never serves a
// disabled key from cache.
type CachedAPIKeyStore struct {
	base  core.APIKeyStore
	cache repositorycache.CacheService
}

func NewCachedAPIKeyStore(base core.APIKeyStore, cacheService repositorycache.CacheService) (*CachedAPIKeyStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base api key store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: api key cache service is required")
	}
	return &CachedAPIKeyStore{base: base, cache: cacheService}, nil
}

// APIKeyCacheKey returns the deterministic cache key for one key id:
// go-relay::api_key::v1::<id> with the id URL-path escaped.
func APIKeyCacheKey(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("sqlstore: api key id is required")
	}
	return apiKeyCacheKeyPrefix + "::" + url.PathEscape(id), nil
}

func (s *CachedAPIKeyStore) List(ctx context.Context) ([]core.APIKey, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached api key store is not configured")
	}
	return s.base.List(ctx)
}

func (s *CachedAPIKeyStore) Get(ctx context.Context, id string) (core.APIKey, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.APIKey{}, fmt.Errorf("sqlstore: cached api key store is not configured")
	}
	cacheKey, err := APIKeyCacheKey(id)
	if err != nil {
		return core.APIKey{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.APIKey, error) {
		return s.base.Get(ctx, id)
	})
}

func (s *CachedAPIKeyStore) Create(ctx context.Context, in core.APIKey) (core.APIKey, error) {
	if s == nil || s.base == nil {
		return core.APIKey{}, fmt.Errorf("sqlstore: cached api key store is not configured")
	}
	return s.base.Create(ctx, in)
}

func (s *CachedAPIKeyStore) Upsert(ctx context.Context, in core.APIKey) (core.APIKey, error) {
	if s == nil || s.base == nil {
		return core.APIKey{}, fmt.Errorf("sqlstore: cached api key store is not configured")
	}
	key, err := s.base.Upsert(ctx, in)
	if err != nil {
		return core.APIKey{}, err
	}
	if err := s.invalidate(ctx, key.ID); err != nil {
		return core.APIKey{}, err
	}
	return key, nil
}

func (s *CachedAPIKeyStore) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached api key store is not configured")
	}
	if err := s.base.SetEnabled(ctx, id, enabled); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

// TouchLastUsed skips invalidation: last-used is advisory and callers never
// make auth decisions from the cached copy's timestamp.
func (s *CachedAPIKeyStore) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached api key store is not configured")
	}
	return s.base.TouchLastUsed(ctx, id, at)
}

func (s *CachedAPIKeyStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached api key store is not configured")
	}
	if err := s.base.Delete(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

func (s *CachedAPIKeyStore) invalidate(ctx context.Context, id string) error {
	if s.cache == nil {
		return nil
	}
	cacheKey, err := APIKeyCacheKey(id)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ core.APIKeyStore = (*CachedAPIKeyStore)(nil)
