// Package config loads the metapager CLI configuration from an optional YAML
// file and METAPAGER_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Alp4ka/metapager"
)

const EnvPrefix = "METAPAGER"

type (
	Config struct {
		Database Database `mapstructure:"database"`
		Paging   Paging   `mapstructure:"paging"`
		Log      Log      `mapstructure:"log"`
	}

	Database struct {
		// Dialect is one of sqlite, mysql, postgres.
		Dialect string `mapstructure:"dialect"`
		DSN     string `mapstructure:"dsn"`
	}

	Paging struct {
		DefaultLimit int `mapstructure:"default_limit"`
		MaxLimit     int `mapstructure:"max_limit"`
	}

	Log struct {
		Level string `mapstructure:"level"`
	}
)

// Load reads the configuration. path may be empty, in which case only
// defaults and environment variables apply. METAPAGER_DATABASE_DSN overrides
// database.dsn and so on.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("database.dialect", "sqlite")
	v.SetDefault("database.dsn", "metapager.db")
	v.SetDefault("paging.default_limit", metapager.DefaultLimit)
	v.SetDefault("paging.max_limit", metapager.MaxLimit)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Dialect {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database dialect '%s'", c.Database.Dialect)
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is empty")
	}
	if c.Paging.MaxLimit <= 0 || c.Paging.DefaultLimit <= 0 || c.Paging.DefaultLimit > c.Paging.MaxLimit {
		return fmt.Errorf("invalid paging limits %d/%d", c.Paging.DefaultLimit, c.Paging.MaxLimit)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

// Limits returns the configured page size limits.
func (c *Config) Limits() metapager.Limits {
	return metapager.Limits{Default: c.Paging.DefaultLimit, Max: c.Paging.MaxLimit}
}

// Logger builds a production zap logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
