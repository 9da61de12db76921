package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validTOML = `
mode = "serve"
log_level = "debug"

[engine]
fee_numerator = 5

[owner]
address = "0x00000000000000000000000000000000000000a1"

[server]
enabled = true
port = 9090
rate_limit_window = "30s"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validTOML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Mode != "serve" {
		t.Errorf("expected mode serve, got %q", cfg.Mode)
	}
	if cfg.Engine.FeeNumerator != 5 {
		t.Errorf("expected fee 5, got %d", cfg.Engine.FeeNumerator)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.RateLimitWindow.Duration != 30*time.Second {
		t.Errorf("expected 30s window, got %v", cfg.Server.RateLimitWindow.Duration)
	}
	// Unset fields keep their defaults.
	if cfg.Archive.RetentionDays != 30 {
		t.Errorf("expected default retention 30, got %d", cfg.Archive.RetentionDays)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SWAPD_ENGINE_FEE_NUMERATOR", "7")
	t.Setenv("SWAPD_REDIS_ADDR", "redis:6379")
	t.Setenv("SWAPD_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SWAPD_ARCHIVE_INTERVAL", "6h")

	cfg, err := Load(writeConfig(t, validTOML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Engine.FeeNumerator != 7 {
		t.Errorf("expected env fee 7, got %d", cfg.Engine.FeeNumerator)
	}
	if !cfg.RedisEnabled() || cfg.Redis.Addr != "redis:6379" {
		t.Errorf("expected redis addr override, got %q", cfg.Redis.Addr)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected cors origins: %v", cfg.Server.CORSOrigins)
	}
	if cfg.Archive.Interval.Duration != 6*time.Hour {
		t.Errorf("expected 6h interval, got %v", cfg.Archive.Interval.Duration)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Defaults()
		cfg.Owner.Address = "0x00000000000000000000000000000000000000a1"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "defaults with owner pass",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "unknown mode",
			mutate:  func(cfg *Config) { cfg.Mode = "scrape" },
			wantErr: "unsupported mode",
		},
		{
			name:    "fee above cap",
			mutate:  func(cfg *Config) { cfg.Engine.FeeNumerator = 51 },
			wantErr: "fee_numerator",
		},
		{
			name:    "missing owner identity",
			mutate:  func(cfg *Config) { cfg.Owner.Address = "" },
			wantErr: "owner identity",
		},
		{
			name:    "malformed owner address",
			mutate:  func(cfg *Config) { cfg.Owner.Address = "0x123" },
			wantErr: "not a valid address",
		},
		{
			name: "malformed demo token",
			mutate: func(cfg *Config) {
				cfg.Demo.Tokens = []DemoTokenConfig{{Address: "nope", Symbol: "X"}}
			},
			wantErr: "demo token",
		},
		{
			name:    "server port out of range",
			mutate:  func(cfg *Config) { cfg.Server.Port = 70000 },
			wantErr: "port",
		},
		{
			name: "archive without postgres",
			mutate: func(cfg *Config) {
				cfg.Archive.Enabled = true
				cfg.S3.Bucket = "archive"
			},
			wantErr: "archive requires postgres",
		},
		{
			name: "archive without bucket",
			mutate: func(cfg *Config) {
				cfg.Archive.Enabled = true
				cfg.Postgres.Host = "db"
			},
			wantErr: "archive requires an s3 bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
