// Package config defines the vexsync binary's configuration and how it is
// loaded.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xraph/vexsync"
	"github.com/xraph/vexsync/remote"
)

// Webhook is one webhook notification channel.
type Webhook struct {
	ID     string `koanf:"id"`
	Guild  string `koanf:"guild"`
	URL    string `koanf:"url"`
	Secret string `koanf:"secret"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// HTTPAddr is the listen address of the operations API and the /metrics
	// endpoint. Empty disables both.
	HTTPAddr string `koanf:"http_addr"`

	// OTelEndpoint is the OTLP/HTTP trace endpoint URL. Empty disables tracing.
	OTelEndpoint string `koanf:"otel_endpoint"`

	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`

	// RedisAddr enables the Redis job lock. Empty uses an in-process lock.
	RedisAddr string `koanf:"redis_addr"`

	RemoteBaseURL string  `koanf:"remote_base_url"`
	RemoteRPS     float64 `koanf:"remote_rps"`

	// Concurrency bounds how many team groups are written at once.
	Concurrency         int  `koanf:"concurrency"`
	NotifyRegistrations bool `koanf:"notify_registrations"`

	DiscordToken    string    `koanf:"discord_token"`
	DiscordChannels []string  `koanf:"discord_channels"`
	Webhooks        []Webhook `koanf:"webhooks"`

	// Active lists the program seasons refreshed by the active job.
	Active []vexsync.Target `koanf:"active"`

	// Job intervals. A job with a zero interval is not scheduled and runs
	// only when triggered through the operations API.
	ProgramsInterval       time.Duration `koanf:"programs_interval"`
	ActiveInterval         time.Duration `koanf:"active_interval"`
	AllTeamsInterval       time.Duration `koanf:"all_teams_interval"`
	AllEventsInterval      time.Duration `koanf:"all_events_interval"`
	AllSkillsInterval      time.Duration `koanf:"all_skills_interval"`
	CurrentEventsInterval  time.Duration `koanf:"current_events_interval"`
	ExistingEventsInterval time.Duration `koanf:"existing_events_interval"`

	// Jitter shifts every job wait by up to this much either way.
	Jitter time.Duration `koanf:"jitter"`

	// RunOnStart runs every job once at startup.
	RunOnStart bool `koanf:"run_on_start"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		HTTPAddr:              ":9090",
		MongoURI:              "mongodb://localhost:27017",
		MongoDatabase:         "vexsync",
		RemoteBaseURL:         remote.DefaultBaseURL,
		RemoteRPS:             5,
		Concurrency:           vexsync.DefaultConfig().Concurrency,
		ProgramsInterval:      24 * time.Hour,
		ActiveInterval:        time.Hour,
		AllSkillsInterval:     time.Hour,
		CurrentEventsInterval: 10 * time.Minute,
		Jitter:                30 * time.Second,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MongoURI == "" || c.MongoDatabase == "" {
		return fmt.Errorf("%w: mongo_uri and mongo_database must not be empty", ErrInvalidConfig)
	}
	if c.RemoteBaseURL == "" {
		return fmt.Errorf("%w: remote_base_url must not be empty", ErrInvalidConfig)
	}
	if c.RemoteRPS < 0 || c.Concurrency < 1 {
		return fmt.Errorf("%w: remote_rps must not be negative and concurrency must be positive", ErrInvalidConfig)
	}
	if len(c.DiscordChannels) > 0 && c.DiscordToken == "" {
		return fmt.Errorf("%w: discord_channels need a discord_token", ErrInvalidConfig)
	}
	for i, w := range c.Webhooks {
		if w.URL == "" {
			return fmt.Errorf("%w: webhooks[%d] has no url", ErrInvalidConfig, i)
		}
	}
	for name, d := range c.Intervals() {
		if d < 0 {
			return fmt.Errorf("%w: %s interval must not be negative", ErrInvalidConfig, name)
		}
		if d > 0 && c.Jitter >= d {
			return fmt.Errorf("%w: jitter must be below the %s interval", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Intervals returns the interval of every job by job name.
func (c *Config) Intervals() map[string]time.Duration {
	return map[string]time.Duration{
		"programs":        c.ProgramsInterval,
		"active":          c.ActiveInterval,
		"all_teams":       c.AllTeamsInterval,
		"all_events":      c.AllEventsInterval,
		"all_skills":      c.AllSkillsInterval,
		"current_events":  c.CurrentEventsInterval,
		"existing_events": c.ExistingEventsInterval,
	}
}

// Level returns the slog level of LogLevel.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, s)
	}
	return l, nil
}
