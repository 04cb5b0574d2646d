package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	relay "github.com/goliatone/go-relay"
	"github.com/goliatone/go-relay/core"
	relaymigrations "github.com/goliatone/go-relay/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"gopkg.in/yaml.v3"
)

// Runtime carries state shared by the subcommands, filled in by the root
// command's persistent flags.
type Runtime struct {
	ConfigPath string
	Logger     core.Logger
}

// fileConfigLoader reads the YAML config file into the raw map the config
// provider layers under runtime overrides. A missing file is not an error;
// the defaults apply.
type fileConfigLoader struct {
	path string
}

func (l fileConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	raw := map[string]any{}
	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", l.path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	applyEnvOverrides(raw)
	return raw, nil
}

// applyEnvOverrides folds RELAY_* environment variables over the file values.
// Env wins over file; flags still win over both.
func applyEnvOverrides(raw map[string]any) {
	setSection := func(section, key string, value any) {
		nested, _ := raw[section].(map[string]any)
		if nested == nil {
			nested = map[string]any{}
			raw[section] = nested
		}
		nested[key] = value
	}
	if v := os.Getenv("RELAY_SERVER_HOST"); v != "" {
		setSection("server", "host", v)
	}
	if v := os.Getenv("RELAY_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			setSection("server", "port", port)
		}
	}
	if v := os.Getenv("RELAY_ADMIN_KEY"); v != "" {
		setSection("server", "admin_key", v)
	}
	if v := os.Getenv("RELAY_STORAGE_DSN"); v != "" {
		setSection("storage", "dsn", v)
	}
	if v := os.Getenv("RELAY_PROXY"); v != "" {
		raw["proxy"] = v
	}
}

func resolveConfig(ctx context.Context, rt *Runtime, runtime relay.Config) (relay.Config, error) {
	defaults := relay.DefaultConfig()
	provider := core.NewCfgxConfigProvider(fileConfigLoader{path: rt.ConfigPath})
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return relay.Config{}, err
	}
	return core.GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
}

type persistenceConfig struct {
	driver string
	server string
	debug  bool
}

func (c persistenceConfig) GetDebug() bool                { return c.debug }
func (c persistenceConfig) GetDriver() string             { return c.driver }
func (c persistenceConfig) GetServer() string             { return c.server }
func (c persistenceConfig) GetPingTimeout() time.Duration { return 5 * time.Second }
func (c persistenceConfig) GetOtelIdentifier() string     { return "go-relay" }

// dsnDriver picks the SQL driver from the DSN shape. Postgres URLs go to pq,
// everything else is treated as a sqlite file DSN.
func dsnDriver(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return "postgres"
	}
	return "sqlite3"
}

// openPersistence opens the database behind the DSN, wires the embedded
// migrations for its dialect and returns the client ready to migrate.
func openPersistence(ctx context.Context, dsn string) (*persistence.Client, error) {
	driver := dsnDriver(dsn)

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg := persistenceConfig{driver: driver, server: dsn}

	var client *persistence.Client
	if driver == "postgres" {
		client, err = persistence.New(cfg, sqlDB, pgdialect.New())
	} else {
		sqlDB.SetMaxOpenConns(1)
		client, err = persistence.New(cfg, sqlDB, sqlitedialect.New())
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("persistence client: %w", err)
	}

	target := relaymigrations.DialectSQLite
	if driver == "postgres" {
		target = relaymigrations.DialectPostgres
	}
	err = relaymigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != target {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, target)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("register migrations: %w", err)
	}

	return client, nil
}
