package sqlstore

import (
	"context"
	"fmt"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-relay/core"
	"github.com/uptrace/bun"
)

// RepositoryFactory builds the relay store set over one bun connection.
type RepositoryFactory struct {
	db          *bun.DB
	apiKeyCache repositorycache.CacheService

	providerStore     *ProviderStore
	credentialStore   *CredentialStore
	disallowStore     *DisallowStore
	userStore         *UserStore
	apiKeyStore       *APIKeyStore
	cachedAPIKeyStore *CachedAPIKeyStore
	globalConfigStore *GlobalConfigStore
	trafficStore      *TrafficStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

// WithAPIKeyCache puts a read cache in front of the api key store for the
// per-request auth lookup. Call before BuildStores.
func (f *RepositoryFactory) WithAPIKeyCache(cacheService repositorycache.CacheService) *RepositoryFactory {
	if f != nil {
		f.apiKeyCache = cacheService
	}
	return f
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.providerStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) ProviderStore() core.ProviderStore {
	if f == nil {
		return nil
	}
	return f.providerStore
}

func (f *RepositoryFactory) CredentialStore() core.CredentialStore {
	if f == nil {
		return nil
	}
	return f.credentialStore
}

func (f *RepositoryFactory) DisallowStore() core.DisallowStore {
	if f == nil {
		return nil
	}
	return f.disallowStore
}

func (f *RepositoryFactory) UserStore() core.UserStore {
	if f == nil {
		return nil
	}
	return f.userStore
}

func (f *RepositoryFactory) APIKeyStore() core.APIKeyStore {
	if f == nil {
		return nil
	}
	if f.cachedAPIKeyStore != nil {
		return f.cachedAPIKeyStore
	}
	return f.apiKeyStore
}

func (f *RepositoryFactory) GlobalConfigStore() core.GlobalConfigStore {
	if f == nil {
		return nil
	}
	return f.globalConfigStore
}

func (f *RepositoryFactory) TrafficStore() core.TrafficStore {
	if f == nil {
		return nil
	}
	return f.trafficStore
}

// LoadSnapshot reads everything the in-memory runtime is rebuilt from.
func (f *RepositoryFactory) LoadSnapshot(ctx context.Context) (core.Snapshot, error) {
	if f == nil || f.providerStore == nil {
		return core.Snapshot{}, fmt.Errorf("sqlstore: repository factory is not initialized")
	}
	providers, err := f.providerStore.List(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("sqlstore: loading providers: %w", err)
	}
	credentials, err := f.credentialStore.List(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("sqlstore: loading credentials: %w", err)
	}
	disallow, err := f.disallowStore.List(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("sqlstore: loading disallow records: %w", err)
	}
	users, err := f.userStore.List(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("sqlstore: loading users: %w", err)
	}
	keys, err := f.apiKeyStore.List(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("sqlstore: loading api keys: %w", err)
	}
	return core.Snapshot{
		Providers:   providers,
		Credentials: credentials,
		Disallow:    disallow,
		Users:       users,
		APIKeys:     keys,
		LoadedAt:    time.Now().UTC(),
	}, nil
}

func (f *RepositoryFactory) initStores() error {
	providerRepo := repository.NewRepository[*providerRecord](f.db, providerHandlers())
	if validator, ok := providerRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid provider repository wiring: %w", err)
		}
	}
	credentialRepo := repository.NewRepository[*credentialRecord](f.db, credentialHandlers())
	if validator, ok := credentialRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid credential repository wiring: %w", err)
		}
	}
	userRepo := repository.NewRepository[*userRecord](f.db, userHandlers())
	if validator, ok := userRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid user repository wiring: %w", err)
		}
	}
	apiKeyRepo := repository.NewRepository[*apiKeyRecord](f.db, apiKeyHandlers())
	if validator, ok := apiKeyRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid api key repository wiring: %w", err)
		}
	}

	f.providerStore = &ProviderStore{db: f.db, repo: providerRepo}
	f.credentialStore = &CredentialStore{db: f.db, repo: credentialRepo}
	f.disallowStore = &DisallowStore{db: f.db}
	f.userStore = &UserStore{db: f.db, repo: userRepo}
	f.apiKeyStore = &APIKeyStore{db: f.db, repo: apiKeyRepo}
	if f.apiKeyCache != nil {
		cached, err := NewCachedAPIKeyStore(f.apiKeyStore, f.apiKeyCache)
		if err != nil {
			return err
		}
		f.cachedAPIKeyStore = cached
	}
	f.globalConfigStore = &GlobalConfigStore{db: f.db}
	f.trafficStore = &TrafficStore{db: f.db}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

var _ core.StoreProvider = (*RepositoryFactory)(nil)
