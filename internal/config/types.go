package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds every server-level option once loaded.
type Config struct {
	Server ServerConfig `koanf:"server"`
}

// ServerConfig collects the bootstrap knobs owned by the composition root.
type ServerConfig struct {
	Listen  ListenConfig  `koanf:"listen"`
	Logging LoggingConfig `koanf:"logging"`
	Cache   CacheConfig   `koanf:"cache"`
	Store   StoreConfig   `koanf:"store"`
	Locale  LocaleConfig  `koanf:"locale"`
}

// ListenConfig instructs the HTTP listener about bind address and port.
type ListenConfig struct {
	Address string `koanf:"address"`
	Port    int    `koanf:"port"`
}

// LoggingConfig expresses log level and format.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CacheConfig shapes the result cache: backend selection, TTL from entry
// creation, and the capacity bound for the in-process backend.
type CacheConfig struct {
	Backend    string           `koanf:"backend"`
	TTLSeconds int              `koanf:"ttlSeconds"`
	MaxEntries int              `koanf:"maxEntries"`
	Redis      RedisCacheConfig `koanf:"redis"`
}

// RedisCacheConfig carries connection settings for the redis backend.
type RedisCacheConfig struct {
	Address  string              `koanf:"address"`
	Username string              `koanf:"username"`
	Password string              `koanf:"password"`
	DB       int                 `koanf:"db"`
	TLS      RedisTLSCacheConfig `koanf:"tls"`
}

// RedisTLSCacheConfig enables TLS toward redis with an optional CA bundle.
type RedisTLSCacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	CAFile  string `koanf:"caFile"`
}

// StoreConfig selects and configures the location store implementation.
type StoreConfig struct {
	Backend  string              `koanf:"backend"`
	SeedFile string              `koanf:"seedFile"`
	Watch    bool                `koanf:"watch"`
	Postgres PostgresStoreConfig `koanf:"postgres"`
}

// PostgresStoreConfig carries connection settings for the relational store.
type PostgresStoreConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"maxOpenConns"`
	MaxIdleConns int    `koanf:"maxIdleConns"`
}

// LocaleConfig governs the translation overlay.
type LocaleConfig struct {
	DefaultLanguage string   `koanf:"defaultLanguage"`
	DefaultAliases  []string `koanf:"defaultAliases"`
	Translate       bool     `koanf:"translate"`
}

// Validate enforces invariants that keep the runtime predictable before
// serving traffic.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil")
	}
	if c.Server.Listen.Port <= 0 || c.Server.Listen.Port > 65535 {
		return fmt.Errorf("config: listen.port invalid: %d", c.Server.Listen.Port)
	}
	if c.Server.Cache.TTLSeconds < 0 {
		return fmt.Errorf("config: server.cache.ttlSeconds invalid: %d", c.Server.Cache.TTLSeconds)
	}
	if c.Server.Cache.MaxEntries < 0 {
		return fmt.Errorf("config: server.cache.maxEntries invalid: %d", c.Server.Cache.MaxEntries)
	}
	cacheBackend := strings.TrimSpace(strings.ToLower(c.Server.Cache.Backend))
	switch cacheBackend {
	case "", "memory":
	case "redis":
		if strings.TrimSpace(c.Server.Cache.Redis.Address) == "" {
			return errors.New("config: server.cache.redis.address required for redis backend")
		}
	default:
		return fmt.Errorf("config: server.cache.backend unsupported: %s", c.Server.Cache.Backend)
	}
	storeBackend := strings.TrimSpace(strings.ToLower(c.Server.Store.Backend))
	switch storeBackend {
	case "", "memory":
		if strings.TrimSpace(c.Server.Store.SeedFile) == "" {
			return errors.New("config: server.store.seedFile required for memory backend")
		}
	case "postgres":
		if strings.TrimSpace(c.Server.Store.Postgres.DSN) == "" {
			return errors.New("config: server.store.postgres.dsn required for postgres backend")
		}
	default:
		return fmt.Errorf("config: server.store.backend unsupported: %s", c.Server.Store.Backend)
	}
	if strings.TrimSpace(c.Server.Locale.DefaultLanguage) == "" {
		return errors.New("config: server.locale.defaultLanguage required")
	}
	return nil
}

// DefaultConfig returns the baseline values that align with the deployment
// defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Listen: ListenConfig{
				Address: "0.0.0.0",
				Port:    8080,
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
			},
			Cache: CacheConfig{
				Backend:    "memory",
				TTLSeconds: 60,
				MaxEntries: 4096,
			},
			Store: StoreConfig{
				Backend:  "memory",
				SeedFile: "./locations.yaml",
			},
			Locale: LocaleConfig{
				DefaultLanguage: "en",
				DefaultAliases:  []string{"en-gb"},
				Translate:       true,
			},
		},
	}
}
