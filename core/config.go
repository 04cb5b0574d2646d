package core

import (
	"fmt"
	"strings"
)

type ServerConfig struct {
	Host     string `koanf:"host" mapstructure:"host"`
	Port     int    `koanf:"port" mapstructure:"port"`
	AdminKey string `koanf:"admin_key" mapstructure:"admin_key"`
}

type StorageConfig struct {
	DSN string `koanf:"dsn" mapstructure:"dsn"`
}

type PoolConfig struct {
	MaxAttempts int `koanf:"max_attempts" mapstructure:"max_attempts"`
}

type TrafficConfig struct {
	QueueSize int `koanf:"queue_size" mapstructure:"queue_size"`
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Server      ServerConfig  `koanf:"server" mapstructure:"server"`
	Storage     StorageConfig `koanf:"storage" mapstructure:"storage"`
	Pool        PoolConfig    `koanf:"pool" mapstructure:"pool"`
	Traffic     TrafficConfig `koanf:"traffic" mapstructure:"traffic"`
	Proxy       string        `koanf:"proxy" mapstructure:"proxy"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "relay",
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Storage: StorageConfig{
			DSN: "file:relay.db",
		},
		Pool: PoolConfig{
			MaxAttempts: 3,
		},
		Traffic: TrafficConfig{
			QueueSize: 256,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("core: server.host is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("core: server.port %d out of range", c.Server.Port)
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("core: storage.dsn is required")
	}
	if c.Pool.MaxAttempts <= 0 {
		return fmt.Errorf("core: pool.max_attempts must be positive")
	}
	if c.Traffic.QueueSize <= 0 {
		return fmt.Errorf("core: traffic.queue_size must be positive")
	}
	return nil
}

// GlobalConfig projects the persisted subset of the runtime configuration.
func (c Config) GlobalConfig() GlobalConfig {
	return GlobalConfig{
		Host:     c.Server.Host,
		Port:     c.Server.Port,
		AdminKey: c.Server.AdminKey,
		DSN:      c.Storage.DSN,
		Proxy:    c.Proxy,
	}
}

// ApplyGlobal folds a persisted global config row back over the runtime
// configuration; the DB row wins for the fields it carries.
func (c Config) ApplyGlobal(global GlobalConfig) Config {
	out := c
	if strings.TrimSpace(global.Host) != "" {
		out.Server.Host = global.Host
	}
	if global.Port > 0 {
		out.Server.Port = global.Port
	}
	if strings.TrimSpace(global.AdminKey) != "" {
		out.Server.AdminKey = global.AdminKey
	}
	if strings.TrimSpace(global.DSN) != "" {
		out.Storage.DSN = global.DSN
	}
	if strings.TrimSpace(global.Proxy) != "" {
		out.Proxy = global.Proxy
	}
	return out
}
