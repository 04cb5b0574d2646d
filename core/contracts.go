package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Logger aliases keep relay packages off a direct go-logger import.
type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type ProviderStore interface {
	List(ctx context.Context) ([]Provider, error)
	Get(ctx context.Context, id string) (Provider, error)
	Create(ctx context.Context, in Provider) (Provider, error)
	Update(ctx context.Context, in Provider) (Provider, error)
	Delete(ctx context.Context, id string) error
}

type CredentialStore interface {
	List(ctx context.Context) ([]Credential, error)
	ListByProvider(ctx context.Context, providerID string) ([]Credential, error)
	Get(ctx context.Context, id string) (Credential, error)
	Create(ctx context.Context, in Credential) (Credential, error)
	Update(ctx context.Context, in Credential) (Credential, error)
	Delete(ctx context.Context, id string) error
}

type DisallowStore interface {
	List(ctx context.Context) ([]DisallowRecord, error)
	Create(ctx context.Context, in DisallowRecord) (DisallowRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type UserStore interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, in User) (User, error)
	Upsert(ctx context.Context, in User) (User, error)
	Delete(ctx context.Context, id string) error
}

type APIKeyStore interface {
	List(ctx context.Context) ([]APIKey, error)
	Get(ctx context.Context, id string) (APIKey, error)
	Create(ctx context.Context, in APIKey) (APIKey, error)
	Upsert(ctx context.Context, in APIKey) (APIKey, error)
	SetEnabled(ctx context.Context, id string, enabled bool) error
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type GlobalConfigStore interface {
	Load(ctx context.Context) (GlobalConfig, bool, error)
	Save(ctx context.Context, in GlobalConfig) error
}

type TrafficStore interface {
	Insert(ctx context.Context, event TrafficEvent) error
	UsageTotals(ctx context.Context) ([]UsageTotals, error)
}

// Snapshot is everything the in-memory runtime state is rebuilt from.
type Snapshot struct {
	Providers   []Provider
	Credentials []Credential
	Disallow    []DisallowRecord
	Users       []User
	APIKeys     []APIKey
	LoadedAt    time.Time
}

// StoreProvider exposes the store set a storage backend must supply.
type StoreProvider interface {
	ProviderStore() ProviderStore
	CredentialStore() CredentialStore
	DisallowStore() DisallowStore
	UserStore() UserStore
	APIKeyStore() APIKeyStore
	GlobalConfigStore() GlobalConfigStore
	TrafficStore() TrafficStore
	LoadSnapshot(ctx context.Context) (Snapshot, error)
}

// TrafficRecorder accepts traffic events off the request path. Record must
// never block; implementations drop when saturated.
type TrafficRecorder interface {
	Record(event TrafficEvent)
}

// NopTrafficRecorder discards every event.
type NopTrafficRecorder struct{}

func (NopTrafficRecorder) Record(TrafficEvent) {}

// DisallowSink receives marks produced by pools so they can be persisted
// without the pool holding a storage dependency.
type DisallowSink interface {
	DisallowMarked(record DisallowRecord)
	DisallowCleared(scope DisallowScope)
}

// NopDisallowSink discards every event.
type NopDisallowSink struct{}

func (NopDisallowSink) DisallowMarked(DisallowRecord) {}

func (NopDisallowSink) DisallowCleared(DisallowScope) {}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

var (
	_ TrafficRecorder = NopTrafficRecorder{}
	_ DisallowSink    = NopDisallowSink{}
)
