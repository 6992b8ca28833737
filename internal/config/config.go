package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
)

// EnvPrefix is the prefix of environment overrides, e.g. HOOKS_DATABASE_URL
const EnvPrefix = "HOOKS"

// Config is the hook engine configuration
type Config struct {
	// Installed reports whether the data store is set up; before that only
	// essential hooks run
	Installed      bool           `mapstructure:"installed"`
	MinImportance  string         `mapstructure:"min_importance"`
	PersistFaulted bool           `mapstructure:"persist_faulted"`
	Log            LogConfig      `mapstructure:"log"`
	Database       DatabaseConfig `mapstructure:"database"`
	Cache          CacheConfig    `mapstructure:"cache"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver      string        `mapstructure:"driver"`
	URL         string        `mapstructure:"url"`
	SaveTimeout time.Duration `mapstructure:"save_timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	Backend    string        `mapstructure:"backend"`
	Prefix     string        `mapstructure:"prefix"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

// RedisConfig represents the Redis connection
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("installed", true)
	v.SetDefault("min_importance", "normal")
	v.SetDefault("persist_faulted", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.url", ":memory:")
	v.SetDefault("database.save_timeout", "0s")
	v.SetDefault("database.max_retries", 3)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.prefix", "smartstore:")
	v.SetDefault("cache.default_ttl", "5m")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
}

// Load reads the configuration. An empty path looks for hooks.yml in the
// working directory and falls back to defaults when there is none; an
// explicit path must exist. Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hooks")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if _, err := hooks.ParseImportance(c.MinImportance); err != nil {
		return fmt.Errorf("min_importance: %w", err)
	}

	switch strings.ToLower(c.Database.Driver) {
	case "pgx", "postgres", "postgresql", "sqlite3", "sqlite":
	default:
		return fmt.Errorf("database.driver must be one of pgx, postgres, sqlite3, got: %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Database.MaxRetries < 1 {
		return fmt.Errorf("database.max_retries must be at least 1, got: %d", c.Database.MaxRetries)
	}
	if c.Database.SaveTimeout < 0 {
		return fmt.Errorf("database.save_timeout must not be negative, got: %v", c.Database.SaveTimeout)
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return errors.New("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got: %q", c.Cache.Backend)
	}
	return nil
}

// Gate returns the importance gate for building the hook catalog
func (c *Config) Gate() hooks.ImportanceGate {
	return hooks.ImportanceGate{Installed: c.Installed}
}

// SaveOptions returns the default options of every save
func (c *Config) SaveOptions() hooks.SaveOptions {
	importance, _ := hooks.ParseImportance(c.MinImportance)
	return hooks.SaveOptions{
		MinImportance:  importance,
		PersistFaulted: c.PersistFaulted,
	}
}

// DatabaseURL returns the configured URL, letting DATABASE_URL win the way
// most deployment platforms expect
func (c *Config) DatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return c.Database.URL
}
