package relay

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
	"github.com/goliatone/go-relay/core"
	"github.com/goliatone/go-relay/gateway"
	"github.com/goliatone/go-relay/pool"
	"github.com/goliatone/go-relay/traffic"
	"github.com/goliatone/go-relay/upstream"
)

// Config is the resolved runtime configuration.
type Config = core.Config

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// RepositoryStoreFactory builds the store set from a persistence client.
// *sqlstore.RepositoryFactory satisfies it.
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (core.StoreProvider, error)
}

type serviceBuilder struct {
	logger            core.Logger
	loggerProvider    core.LoggerProvider
	metrics           core.MetricsRecorder
	configProvider    core.ConfigProvider
	optionsResolver   core.OptionsResolver
	persistenceClient any
	repositoryFactory any
	stores            core.StoreProvider
	definitions       []upstream.Definition
	recorder          core.TrafficRecorder
	sink              core.DisallowSink
	runtimeConfig     Config
}

type Option func(*serviceBuilder)

func WithLogger(logger core.Logger) Option {
	return func(b *serviceBuilder) { b.logger = logger }
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *serviceBuilder) { b.loggerProvider = provider }
}

func WithMetricsRecorder(metrics core.MetricsRecorder) Option {
	return func(b *serviceBuilder) { b.metrics = metrics }
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *serviceBuilder) { b.configProvider = provider }
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *serviceBuilder) { b.optionsResolver = resolver }
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) { b.persistenceClient = client }
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) { b.repositoryFactory = factory }
}

func WithStoreProvider(stores core.StoreProvider) Option {
	return func(b *serviceBuilder) { b.stores = stores }
}

// WithDefinitions overrides the builtin upstream catalog.
func WithDefinitions(definitions ...upstream.Definition) Option {
	return func(b *serviceBuilder) { b.definitions = definitions }
}

// WithTrafficRecorder swaps the persisted traffic pipeline. The service does
// not close injected recorders.
func WithTrafficRecorder(recorder core.TrafficRecorder) Option {
	return func(b *serviceBuilder) { b.recorder = recorder }
}

func WithDisallowSink(sink core.DisallowSink) Option {
	return func(b *serviceBuilder) { b.sink = sink }
}

// Service is the assembled relay runtime: storage, credential pools, the
// upstream registry, traffic recording and the auth snapshot. It implements
// the admin surface the gateway and the command/query packages drive.
type Service struct {
	config         Config
	logger         core.Logger
	loggerProvider core.LoggerProvider
	metrics        core.MetricsRecorder
	stores         core.StoreProvider
	sink           core.DisallowSink
	definitions    []upstream.Definition

	caller        *upstream.Caller
	registry      *upstream.Registry
	auth          *gateway.MemoryAuth
	recorder      core.TrafficRecorder
	trafficWorker *traffic.Recorder
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := serviceBuilder{runtimeConfig: cfg}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("relay", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("relay"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metrics == nil {
		builder.metrics = core.NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = core.NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = core.GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, err
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, err
	}

	if builder.stores == nil && builder.repositoryFactory != nil {
		if factory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			stores, buildErr := factory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, buildErr
			}
			builder.stores = stores
		} else if stores, ok := builder.repositoryFactory.(core.StoreProvider); ok {
			builder.stores = stores
		}
	}
	if builder.stores == nil {
		return nil, fmt.Errorf("relay: storage is required, pass WithStoreProvider or WithRepositoryFactory")
	}

	if len(builder.definitions) == 0 {
		builder.definitions = upstream.BuiltinDefinitions()
	}
	for _, def := range builder.definitions {
		if err := def.Validate(); err != nil {
			return nil, err
		}
	}
	if builder.sink == nil {
		builder.sink = NewStoreDisallowSink(builder.stores.DisallowStore(), logger)
	}

	return &Service{
		config:         finalConfig,
		logger:         logger,
		loggerProvider: provider,
		metrics:        builder.metrics,
		stores:         builder.stores,
		sink:           builder.sink,
		definitions:    builder.definitions,
		auth:           gateway.NewMemoryAuth(),
		recorder:       builder.recorder,
	}, nil
}

// Setup builds the service and boots it in one call.
func Setup(ctx context.Context, cfg Config, opts ...Option) (*Service, error) {
	service, err := NewService(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := service.Bootstrap(ctx); err != nil {
		return nil, err
	}
	return service, nil
}

// Bootstrap folds the persisted global config over the runtime configuration,
// seeds the admin identity on first boot, builds the upstream registry and
// loads the initial snapshot into pools and auth.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s == nil || s.stores == nil {
		return fmt.Errorf("relay: service is not configured")
	}

	global, found, err := s.stores.GlobalConfigStore().Load(ctx)
	if err != nil {
		return fmt.Errorf("relay: loading global config: %w", err)
	}
	if found {
		s.config = s.config.ApplyGlobal(global)
	} else {
		if strings.TrimSpace(s.config.Server.AdminKey) == "" {
			s.config.Server.AdminKey = "adm-" + uuid.NewString()
			s.logger.Warn("no admin key configured, generated one",
				"admin_key", s.config.Server.AdminKey)
		}
		if err := s.stores.GlobalConfigStore().Save(ctx, s.config.GlobalConfig()); err != nil {
			return fmt.Errorf("relay: seeding global config: %w", err)
		}
	}

	if s.recorder == nil {
		s.trafficWorker = traffic.New(s.stores.TrafficStore(),
			traffic.WithLogger(s.logger),
			traffic.WithMetrics(s.metrics),
			traffic.WithQueueSize(s.config.Traffic.QueueSize),
		)
		s.recorder = s.trafficWorker
	}

	caller, err := upstream.NewCaller(s.config.Proxy)
	if err != nil {
		return fmt.Errorf("relay: building upstream caller: %w", err)
	}
	s.caller = caller

	registry := upstream.NewRegistry()
	for _, def := range s.definitions {
		credentials := pool.New(def.Name, s.sink)
		provider := upstream.NewProvider(def, credentials, caller,
			s.recorder, s.config.Pool.MaxAttempts, s.logger)
		if err := registry.Register(provider); err != nil {
			return err
		}
	}
	s.registry = registry

	if err := s.ensureBootstrapIdentity(ctx); err != nil {
		return err
	}
	if err := s.Reload(ctx); err != nil {
		return err
	}

	s.logger.Info("relay bootstrapped",
		"providers", len(s.definitions),
		"auth_keys", s.auth.Len())
	return nil
}

// ensureBootstrapIdentity guarantees the admin user exists and that at least
// one client api key does, so a fresh install is reachable.
func (s *Service) ensureBootstrapIdentity(ctx context.Context) error {
	admin, err := s.stores.UserStore().Upsert(ctx, core.User{Name: "admin"})
	if err != nil {
		return fmt.Errorf("relay: seeding admin user: %w", err)
	}
	keys, err := s.stores.APIKeyStore().List(ctx)
	if err != nil {
		return fmt.Errorf("relay: listing api keys: %w", err)
	}
	if len(keys) > 0 {
		return nil
	}
	key := core.APIKey{
		UserID:  admin.ID,
		Key:     "rk-" + uuid.NewString(),
		Label:   "bootstrap",
		Enabled: true,
	}
	if _, err := s.stores.APIKeyStore().Upsert(ctx, key); err != nil {
		return fmt.Errorf("relay: seeding bootstrap api key: %w", err)
	}
	s.logger.Warn("no api keys found, generated a bootstrap key", "api_key", key.Key)
	return nil
}

// Reload rebuilds pools and the auth snapshot from storage. Safe to call
// concurrently with traffic; swaps are atomic per pool.
func (s *Service) Reload(ctx context.Context) error {
	if s == nil || s.stores == nil {
		return fmt.Errorf("relay: service is not configured")
	}
	snapshot, err := s.stores.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("relay: loading snapshot: %w", err)
	}
	if s.registry != nil {
		s.registry.ApplySnapshots(buildPoolSnapshots(snapshot))
	}
	s.auth.ReplaceSnapshot(snapshot.APIKeys)
	return nil
}

// buildPoolSnapshots groups stored rows into per-provider pool snapshots.
// Disallow records attach by provider id or name, or through one of the
// provider's credentials; pool-produced marks carry the provider name.
func buildPoolSnapshots(snapshot core.Snapshot) map[string]pool.Snapshot {
	out := make(map[string]pool.Snapshot, len(snapshot.Providers))
	for _, provider := range snapshot.Providers {
		entries := make([]pool.Entry, 0)
		credentialIDs := map[string]struct{}{}
		for _, credential := range snapshot.Credentials {
			if credential.ProviderID != provider.ID {
				continue
			}
			credentialIDs[credential.ID] = struct{}{}
			entries = append(entries, pool.Entry{
				ID:      credential.ID,
				Label:   credential.Label,
				Secret:  credential.Secret,
				Weight:  credential.Weight,
				Models:  credential.Models,
				Enabled: credential.Enabled,
			})
		}
		var disallow []core.DisallowRecord
		for _, record := range snapshot.Disallow {
			switch {
			case record.Scope.ProviderID == provider.ID || record.Scope.ProviderID == provider.Name:
				disallow = append(disallow, record)
			case record.Scope.CredentialID != "":
				if _, ok := credentialIDs[record.Scope.CredentialID]; ok {
					disallow = append(disallow, record)
				}
			}
		}
		out[provider.Name] = pool.Snapshot{
			Provider:        provider.Name,
			ProviderID:      provider.ID,
			ProviderEnabled: provider.Enabled,
			Entries:         entries,
			Disallow:        disallow,
		}
	}
	return out
}

// Server assembles the HTTP surface: proxy routes at the root, admin routes
// under /admin, plus any extra handlers (a /metrics endpoint, typically).
func (s *Service) Server(extras map[string]http.Handler) (*gateway.Server, error) {
	if s == nil || s.registry == nil {
		return nil, fmt.Errorf("relay: service is not bootstrapped")
	}
	proxy := gateway.NewProxyHandler(s.auth, s.registry, s.recorder, s.stores.APIKeyStore(), s.logger)
	admin := gateway.NewAdminHandler(s.config.Server.AdminKey, s, s.logger)
	return gateway.NewServer(s.config.Server.Host, s.config.Server.Port, proxy, admin, extras, s.logger), nil
}

// Close drains and stops the owned traffic pipeline. Injected recorders are
// the caller's to close.
func (s *Service) Close() {
	if s == nil {
		return
	}
	if s.trafficWorker != nil {
		s.trafficWorker.Close()
	}
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Logger() core.Logger {
	if s == nil {
		return nil
	}
	return s.logger
}

func (s *Service) Registry() *upstream.Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) Auth() *gateway.MemoryAuth {
	if s == nil {
		return nil
	}
	return s.auth
}

func (s *Service) Stores() core.StoreProvider {
	if s == nil {
		return nil
	}
	return s.stores
}

func (s *Service) Recorder() core.TrafficRecorder {
	if s == nil {
		return nil
	}
	return s.recorder
}
