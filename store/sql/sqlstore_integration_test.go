package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-relay/core"
	relaymigrations "github.com/goliatone/go-relay/migrations"
	sqlstore "github.com/goliatone/go-relay/store/sql"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-relay-tests"
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:relay-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	err = relaymigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != relaymigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, relaymigrations.DialectSQLite)
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}

func newFactory(t *testing.T) (*sqlstore.RepositoryFactory, func()) {
	t.Helper()
	client, cleanup := newSQLiteClient(t)
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		cleanup()
		t.Fatalf("new repository factory: %v", err)
	}
	return factory, cleanup
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	var tableName string
	if err := client.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"relay_providers",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "relay_providers" {
		t.Fatalf("expected relay_providers table, got %q", tableName)
	}
}

func TestProviderAndCredentialStores(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newFactory(t)
	defer cleanup()

	providers := factory.ProviderStore()
	credentials := factory.CredentialStore()

	provider, err := providers.Create(ctx, core.Provider{Name: "claude", Enabled: true})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}
	if provider.ID == "" {
		t.Fatalf("expected generated provider id")
	}

	credential, err := credentials.Create(ctx, core.Credential{
		ProviderID: provider.ID,
		Label:      "primary",
		Secret:     "sk-test",
		Weight:     3,
		Models:     []string{"claude-sonnet-4"},
		Enabled:    true,
	})
	if err != nil {
		t.Fatalf("create credential: %v", err)
	}

	fetched, err := credentials.Get(ctx, credential.ID)
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if fetched.Weight != 3 || len(fetched.Models) != 1 || fetched.Models[0] != "claude-sonnet-4" {
		t.Fatalf("unexpected credential %+v", fetched)
	}

	fetched.Weight = 5
	fetched.Enabled = false
	updated, err := credentials.Update(ctx, fetched)
	if err != nil {
		t.Fatalf("update credential: %v", err)
	}
	if updated.Weight != 5 || updated.Enabled {
		t.Fatalf("update did not stick: %+v", updated)
	}

	byProvider, err := credentials.ListByProvider(ctx, provider.ID)
	if err != nil {
		t.Fatalf("list by provider: %v", err)
	}
	if len(byProvider) != 1 {
		t.Fatalf("expected one credential, got %d", len(byProvider))
	}

	if err := credentials.Delete(ctx, credential.ID); err != nil {
		t.Fatalf("delete credential: %v", err)
	}
	if _, err := credentials.Get(ctx, credential.ID); !errors.Is(err, core.ErrCredentialNotFound) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
	if err := credentials.Delete(ctx, credential.ID); !errors.Is(err, core.ErrCredentialNotFound) {
		t.Fatalf("expected not-found on double delete, got %v", err)
	}
}

func TestDisallowStoreSweep(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newFactory(t)
	defer cleanup()

	store := factory.DisallowStore()
	now := time.Now().UTC()

	expired := now.Add(-time.Minute)
	if _, err := store.Create(ctx, core.DisallowRecord{
		Scope:     core.DisallowScope{CredentialID: "cred-1"},
		Level:     core.DisallowCooldown,
		Reason:    "rate_limit",
		ExpiresAt: &expired,
		CreatedAt: now.Add(-2 * time.Minute),
	}); err != nil {
		t.Fatalf("create expired record: %v", err)
	}
	if _, err := store.Create(ctx, core.DisallowRecord{
		Scope:     core.DisallowScope{CredentialID: "cred-2"},
		Level:     core.DisallowDead,
		Reason:    "auth_error",
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("create dead record: %v", err)
	}

	removed, err := store.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 swept record, got %d", removed)
	}

	remaining, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Level != core.DisallowDead {
		t.Fatalf("dead record must survive sweeps, got %+v", remaining)
	}
}

func TestGlobalConfigStoreSingleRow(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newFactory(t)
	defer cleanup()

	store := factory.GlobalConfigStore()

	if _, found, err := store.Load(ctx); err != nil || found {
		t.Fatalf("expected empty config store, found=%v err=%v", found, err)
	}

	first := core.GlobalConfig{Host: "0.0.0.0", Port: 8080, AdminKey: "admin-1", DSN: "file:relay.db"}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save config: %v", err)
	}
	second := core.GlobalConfig{Host: "127.0.0.1", Port: 9090, AdminKey: "admin-2", DSN: "file:relay.db", Proxy: "http://proxy:3128"}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("overwrite config: %v", err)
	}

	loaded, found, err := store.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load config: found=%v err=%v", found, err)
	}
	if loaded != second {
		t.Fatalf("expected latest config to win, got %+v", loaded)
	}
}

func TestAPIKeyStoreSeedingAndToggle(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newFactory(t)
	defer cleanup()

	users := factory.UserStore()
	keys := factory.APIKeyStore()

	admin, err := users.Upsert(ctx, core.User{Name: "admin"})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	again, err := users.Upsert(ctx, core.User{Name: "admin"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if admin.ID != again.ID {
		t.Fatalf("upsert must be idempotent by name")
	}

	key, err := keys.Upsert(ctx, core.APIKey{UserID: admin.ID, Key: "rk-admin", Label: "seed", Enabled: true})
	if err != nil {
		t.Fatalf("upsert key: %v", err)
	}
	dup, err := keys.Upsert(ctx, core.APIKey{UserID: admin.ID, Key: "rk-admin", Enabled: true})
	if err != nil {
		t.Fatalf("second key upsert: %v", err)
	}
	if key.ID != dup.ID {
		t.Fatalf("key upsert must be idempotent by key value")
	}

	if err := keys.SetEnabled(ctx, key.ID, false); err != nil {
		t.Fatalf("disable key: %v", err)
	}
	used := time.Now().UTC().Truncate(time.Second)
	if err := keys.TouchLastUsed(ctx, key.ID, used); err != nil {
		t.Fatalf("touch key: %v", err)
	}
	fetched, err := keys.Get(ctx, key.ID)
	if err != nil {
		t.Fatalf("get key: %v", err)
	}
	if fetched.Enabled {
		t.Fatalf("expected disabled key")
	}
	if fetched.LastUsedAt == nil {
		t.Fatalf("expected last_used_at to be set")
	}

	if err := keys.SetEnabled(ctx, "missing", true); !errors.Is(err, core.ErrAPIKeyNotFound) {
		t.Fatalf("expected not-found for missing key, got %v", err)
	}
}

func TestTrafficStoreUsageTotals(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newFactory(t)
	defer cleanup()

	store := factory.TrafficStore()
	total := func(v int64) *int64 { return &v }

	events := []core.TrafficEvent{
		{
			Direction: core.TrafficUpstream,
			Provider:  "claude",
			Operation: "claude.messages",
			Usage:     core.Usage{ClaudeTotalTokens: total(100)},
			CreatedAt: time.Now().UTC(),
		},
		{
			Direction: core.TrafficUpstream,
			Provider:  "claude",
			Operation: "claude.messages",
			Usage:     core.Usage{ClaudeTotalTokens: total(50)},
			CreatedAt: time.Now().UTC(),
		},
		{
			Direction: core.TrafficUpstream,
			Provider:  "openai",
			Operation: "openai.chat.completions",
			Usage:     core.Usage{OpenAIChatTotalTokens: total(30)},
			CreatedAt: time.Now().UTC(),
		},
		{
			// Downstream mirror of the first exchange; excluded from totals.
			Direction: core.TrafficDownstream,
			Provider:  "claude",
			Usage:     core.Usage{ClaudeTotalTokens: total(100)},
			CreatedAt: time.Now().UTC(),
		},
	}
	for _, event := range events {
		if err := store.Insert(ctx, event); err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}

	totals, err := store.UsageTotals(ctx)
	if err != nil {
		t.Fatalf("usage totals: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected totals for two providers, got %+v", totals)
	}
	if totals[0].Provider != "claude" || totals[0].Requests != 2 || totals[0].Claude != 150 {
		t.Fatalf("unexpected claude totals %+v", totals[0])
	}
	if totals[1].Provider != "openai" || totals[1].OpenAI != 30 {
		t.Fatalf("unexpected openai totals %+v", totals[1])
	}
}

func TestLoadSnapshot(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newFactory(t)
	defer cleanup()

	provider, err := factory.ProviderStore().Create(ctx, core.Provider{Name: "claude", Enabled: true})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}
	if _, err := factory.CredentialStore().Create(ctx, core.Credential{
		ProviderID: provider.ID,
		Secret:     "sk-test",
		Enabled:    true,
	}); err != nil {
		t.Fatalf("create credential: %v", err)
	}
	user, err := factory.UserStore().Create(ctx, core.User{Name: "admin"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := factory.APIKeyStore().Create(ctx, core.APIKey{UserID: user.ID, Key: "rk-1", Enabled: true}); err != nil {
		t.Fatalf("create key: %v", err)
	}

	snapshot, err := factory.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(snapshot.Providers) != 1 || len(snapshot.Credentials) != 1 ||
		len(snapshot.Users) != 1 || len(snapshot.APIKeys) != 1 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.LoadedAt.IsZero() {
		t.Fatalf("expected snapshot timestamp")
	}
}

func TestFactoryWiresCachedAPIKeyStore(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	cacheConfig := repositorycache.DefaultConfig()
	cacheConfig.TTL = time.Minute
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}

	factory := sqlstore.NewRepositoryFactory().WithAPIKeyCache(cacheService)
	if _, err := factory.BuildStores(client); err != nil {
		t.Fatalf("build stores: %v", err)
	}

	store := factory.APIKeyStore()
	if _, ok := store.(*sqlstore.CachedAPIKeyStore); !ok {
		t.Fatalf("expected cached api key store, got %T", store)
	}

	ctx := context.Background()
	user, err := factory.UserStore().Create(ctx, core.User{Name: "admin"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	created, err := store.Upsert(ctx, core.APIKey{UserID: user.ID, Key: "rk-cache", Enabled: true})
	if err != nil {
		t.Fatalf("upsert key: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); err != nil {
		t.Fatalf("get through cache: %v", err)
	}
	if err := store.SetEnabled(ctx, created.ID, false); err != nil {
		t.Fatalf("disable key: %v", err)
	}
	key, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get after disable: %v", err)
	}
	if key.Enabled {
		t.Fatalf("expected cache invalidation on disable, got %+v", key)
	}
}
