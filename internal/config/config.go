// Package config defines the top-level configuration for the swap engine
// daemon and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SWAPD_* environment variables.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Owner    OwnerConfig    `toml:"owner"`
	Demo     DemoConfig     `toml:"demo"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds the swap engine parameters.
type EngineConfig struct {
	// FeeNumerator is the initial swap fee over the fixed 1000 denominator.
	FeeNumerator uint64 `toml:"fee_numerator"`

	// Account is the engine's custody account address. When empty a
	// deterministic address is derived at wire time.
	Account string `toml:"account"`
}

// OwnerConfig identifies the privileged owner. Either a bare address or a
// key source must be provided; when a key is given the address is derived
// from it.
type OwnerConfig struct {
	Address          string `toml:"address"`
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// DemoTokenConfig describes one token seeded by demo mode.
type DemoTokenConfig struct {
	Address string `toml:"address"`
	Symbol  string `toml:"symbol"`
	// MintToOwner is the amount minted to the owner account, decimal string.
	MintToOwner string `toml:"mint_to_owner"`
	// SeedLiquidity is the amount deposited as initial liquidity.
	SeedLiquidity string `toml:"seed_liquidity"`
}

// DemoConfig configures demo mode: an in-memory custody pre-funded with
// tokens and seeded liquidity, standing in for a real deployment.
type DemoConfig struct {
	Tokens []DemoTokenConfig `toml:"tokens"`
}

// PostgresConfig holds PostgreSQL connection parameters for the event log.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for event-log
// archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig controls the event-log archiver job.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
}

// ServerConfig holds the HTTP relay configuration.
type ServerConfig struct {
	Enabled         bool     `toml:"enabled"`
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	APIKey          string   `toml:"api_key"` // if empty, admin auth is disabled
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
}

// NotifyConfig holds operator notification channels.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so TOML values can be written as "24h".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			FeeNumerator: 3,
		},
		Postgres: PostgresConfig{
			Port:         5432,
			SSLMode:      "disable",
			PoolMaxConns: 8,
			PoolMinConns: 1,
		},
		Redis: RedisConfig{
			PoolSize:   8,
			MaxRetries: 3,
		},
		Archive: ArchiveConfig{
			RetentionDays: 30,
			Interval:      duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8080,
			RateLimit:       120,
			RateLimitWindow: duration{time.Minute},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// Validate checks the configuration for inconsistencies. It is the caller's
// responsibility to invoke Validate after Load.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "serve", "demo":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if c.Engine.FeeNumerator > 50 {
		return fmt.Errorf("config: fee_numerator %d exceeds maximum 50", c.Engine.FeeNumerator)
	}
	if c.Engine.Account != "" && !common.IsHexAddress(c.Engine.Account) {
		return fmt.Errorf("config: engine account %q is not a valid address", c.Engine.Account)
	}

	if c.Owner.Address == "" && c.Owner.PrivateKey == "" && c.Owner.EncryptedKeyPath == "" {
		return fmt.Errorf("config: owner identity required (set owner.address or a key source)")
	}
	if c.Owner.Address != "" && !common.IsHexAddress(c.Owner.Address) {
		return fmt.Errorf("config: owner address %q is not a valid address", c.Owner.Address)
	}

	for _, t := range c.Demo.Tokens {
		if !common.IsHexAddress(t.Address) {
			return fmt.Errorf("config: demo token address %q is not a valid address", t.Address)
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return fmt.Errorf("config: server port %d out of range", c.Server.Port)
		}
		if c.Server.RateLimit < 0 {
			return fmt.Errorf("config: rate_limit must be non-negative")
		}
	}

	if c.Archive.Enabled {
		if c.Archive.RetentionDays <= 0 {
			return fmt.Errorf("config: archive retention_days must be positive")
		}
		if c.Archive.Interval.Duration <= 0 {
			return fmt.Errorf("config: archive interval must be positive")
		}
		if c.Postgres.DSN == "" && c.Postgres.Host == "" {
			return fmt.Errorf("config: archive requires postgres")
		}
		if c.S3.Bucket == "" {
			return fmt.Errorf("config: archive requires an s3 bucket")
		}
	}

	return nil
}

// PostgresEnabled reports whether a database was configured.
func (c *Config) PostgresEnabled() bool {
	return c.Postgres.DSN != "" || c.Postgres.Host != ""
}

// RedisEnabled reports whether Redis was configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
