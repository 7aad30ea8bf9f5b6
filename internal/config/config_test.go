package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MongoDatabase != "vexsync" || cfg.Concurrency != 4 || cfg.AllSkillsInterval != time.Hour {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Level() != slog.LevelInfo {
		t.Fatalf("unexpected level %v", cfg.Level())
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vexsync.yaml")
	yaml := `
log_level: debug
mongo_database: catalog
concurrency: 2
active_interval: 30m
webhooks:
  - id: hook
    guild: g1
    url: https://example.com/hook
    secret: s3cret
active:
  - program: 1
    season: 130
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VEXSYNC_MONGO_DATABASE", "override")
	t.Setenv("VEXSYNC_DISCORD_TOKEN", "token")
	t.Setenv("VEXSYNC_DISCORD_CHANNELS", "111,222")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MongoDatabase != "override" {
		t.Fatalf("env should win over the file, got %q", cfg.MongoDatabase)
	}
	if cfg.Concurrency != 2 || cfg.ActiveInterval != 30*time.Minute || cfg.Level() != slog.LevelDebug {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if len(cfg.DiscordChannels) != 2 || cfg.DiscordChannels[1] != "222" {
		t.Fatalf("unexpected channels %v", cfg.DiscordChannels)
	}
	if len(cfg.Webhooks) != 1 || cfg.Webhooks[0].Secret != "s3cret" {
		t.Fatalf("unexpected webhooks %+v", cfg.Webhooks)
	}
	if len(cfg.Active) != 1 || cfg.Active[0].Season != 130 {
		t.Fatalf("unexpected active targets %+v", cfg.Active)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, ErrLoadConfig) {
		t.Fatalf("expected ErrLoadConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"level", func(c *Config) { c.LogLevel = "loud" }},
		{"mongo", func(c *Config) { c.MongoURI = "" }},
		{"concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"discord", func(c *Config) { c.DiscordChannels = []string{"1"} }},
		{"webhook", func(c *Config) { c.Webhooks = []Webhook{{ID: "x"}} }},
		{"jitter", func(c *Config) { c.CurrentEventsInterval = time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if err := New().Validate(); err != nil {
		t.Fatalf("defaults should be valid, got %v", err)
	}
}
