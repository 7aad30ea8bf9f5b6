package vexsync

import (
	"log/slog"

	"github.com/xraph/vexsync/event"
	"github.com/xraph/vexsync/notify"
	"github.com/xraph/vexsync/observability"
	"github.com/xraph/vexsync/store"
)

// Option configures an Engine.
type Option func(*Engine) error

// WithStore sets the catalog store.
func WithStore(s store.Store) Option {
	return func(e *Engine) error {
		e.store = s
		return nil
	}
}

// WithRemote sets the client for the remote competition service.
func WithRemote(r Remote) Option {
	return func(e *Engine) error {
		e.remote = r
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) error {
		e.metrics = m
		return nil
	}
}

// WithTracer sets the tracer.
func WithTracer(t *observability.Tracer) Option {
	return func(e *Engine) error {
		e.tracer = t
		return nil
	}
}

// WithChannels adds notification channels.
func WithChannels(channels ...notify.Channel) Option {
	return func(e *Engine) error {
		e.channels = append(e.channels, channels...)
		return nil
	}
}

// WithUpdater sets what synced events are handed to. The default upserts
// them into the store.
func WithUpdater(u event.Updater) Option {
	return func(e *Engine) error {
		e.updater = u
		return nil
	}
}

// WithZoneResolver sets how event coordinates map to time zones. Without
// one every event uses event.FallbackZone.
func WithZoneResolver(z event.ZoneResolver) Option {
	return func(e *Engine) error {
		e.zones = z
		return nil
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) error {
		e.config = cfg
		return nil
	}
}

// WithConcurrency sets how many team groups are written at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) error {
		e.config.Concurrency = n
		return nil
	}
}

// WithNotifyRegistrations toggles registration announcements.
func WithNotifyRegistrations(on bool) Option {
	return func(e *Engine) error {
		e.config.NotifyRegistrations = on
		return nil
	}
}

// WithActive sets the program seasons SyncActive refreshes.
func WithActive(targets ...Target) Option {
	return func(e *Engine) error {
		e.config.Active = targets
		return nil
	}
}
