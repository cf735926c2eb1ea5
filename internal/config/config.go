// Package config loads server configuration from the environment and an
// optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the vaultd server configuration.
type Config struct {
	// Addr is the address the HTTP server listens on (e.g. :8080).
	Addr string `mapstructure:"VAULT_ADDR"`
	// DBPath is the SQLite database path.
	DBPath string `mapstructure:"VAULT_DB_PATH"`
	// JWTSecret signs access tokens. Required.
	JWTSecret string `mapstructure:"VAULT_JWT_SECRET"`
	// AccessTokenTTL is the access token lifetime (e.g. "15m").
	AccessTokenTTL string `mapstructure:"VAULT_ACCESS_TOKEN_TTL"`
	// SessionTTL is the absolute session lifetime (e.g. "168h").
	SessionTTL string `mapstructure:"VAULT_SESSION_TTL"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"VAULT_LOG_LEVEL"`
	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"VAULT_LOG_FORMAT"`
	// BcryptCost is the bcrypt cost factor for password hashing.
	BcryptCost int `mapstructure:"VAULT_BCRYPT_COST"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine (e.g. in CI)

	v.AutomaticEnv()

	v.SetDefault("VAULT_ADDR", ":8080")
	v.SetDefault("VAULT_DB_PATH", "securevault.db")
	v.SetDefault("VAULT_JWT_SECRET", "")
	v.SetDefault("VAULT_ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("VAULT_SESSION_TTL", "168h") // 7d
	v.SetDefault("VAULT_LOG_LEVEL", "info")
	v.SetDefault("VAULT_LOG_FORMAT", "text")
	v.SetDefault("VAULT_BCRYPT_COST", 12)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("config: VAULT_JWT_SECRET must be set")
	}
	if _, err := time.ParseDuration(cfg.AccessTokenTTL); err != nil {
		return nil, fmt.Errorf("config: invalid VAULT_ACCESS_TOKEN_TTL: %w", err)
	}
	if _, err := time.ParseDuration(cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("config: invalid VAULT_SESSION_TTL: %w", err)
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: VAULT_BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// AccessTTL returns the parsed access token lifetime.
func (c *Config) AccessTTL() time.Duration {
	d, _ := time.ParseDuration(c.AccessTokenTTL)
	return d
}

// SessionLifetime returns the parsed session lifetime.
func (c *Config) SessionLifetime() time.Duration {
	d, _ := time.ParseDuration(c.SessionTTL)
	return d
}
