package vexsync

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/xraph/vexsync/event"
	"github.com/xraph/vexsync/notify"
	"github.com/xraph/vexsync/observability"
	"github.com/xraph/vexsync/program"
	"github.com/xraph/vexsync/remote"
	"github.com/xraph/vexsync/skills"
	"github.com/xraph/vexsync/store"
	"github.com/xraph/vexsync/team"
)

// Remote is the remote competition service as the syncers use it.
// *remote.Client implements it.
type Remote interface {
	program.Fetcher
	team.Fetcher
	event.Fetcher
	skills.Fetcher
}

// compile-time interface checks.
var (
	_ Remote         = (*remote.Client)(nil)
	_ team.Announcer = (*Engine)(nil)
)

// Engine is the root sync engine.
type Engine struct {
	config   Config
	store    store.Store
	remote   Remote
	channels []notify.Channel
	updater  event.Updater
	zones    event.ZoneResolver
	logger   *slog.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer

	programs *program.Syncer
	teams    *team.Syncer
	events   *event.Syncer
	skills   *skills.Syncer
	fanout   *notify.Fanout
}

// New creates an Engine with the given options. A store and a remote
// client are required.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.store == nil {
		return nil, ErrNoStore
	}
	if e.remote == nil {
		return nil, ErrNoRemote
	}
	e.wireServices()
	return e, nil
}

// wireServices initializes the syncers after options have been applied.
func (e *Engine) wireServices() {
	if e.updater == nil {
		e.updater = event.NewStoreUpdater(e.store, e.logger, e.metrics)
	}

	e.fanout = notify.NewFanout(e.store, e.channels, e.logger, e.metrics, e.tracer)
	e.programs = program.NewSyncer(e.store, e.remote, e.logger, e.metrics, e.tracer)
	e.teams = team.NewSyncer(e.store, e.remote, team.Config{
		Concurrency:         e.config.Concurrency,
		NotifyRegistrations: e.config.NotifyRegistrations,
		Announcer:           e,
	}, e.logger, e.metrics, e.tracer)
	e.events = event.NewSyncer(e.updater, e.store, e.remote, e.zones, e.logger, e.metrics, e.tracer)
	e.skills = skills.NewSyncer(e.store, e.store, e.remote, e.logger, e.metrics, e.tracer)
}

// Store returns the catalog store.
func (e *Engine) Store() store.Store { return e.store }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// ──────────────────────────────────────────────────
// Single-season passes
// ──────────────────────────────────────────────────

// SyncProgramsAndSeasons upserts every program and its seasons.
func (e *Engine) SyncProgramsAndSeasons(ctx context.Context) (*Tally, error) {
	return e.programs.Sync(ctx)
}

// SyncTeams reconciles the registered teams of a program season.
func (e *Engine) SyncTeams(ctx context.Context, prog, season int) (*Tally, error) {
	return e.teams.Sync(ctx, prog, season)
}

// SyncEvents hands the events of a program season in the window to the
// event updater.
func (e *Engine) SyncEvents(ctx context.Context, prog, season int, when remote.Window) (*Tally, error) {
	return e.events.Sync(ctx, prog, season, when)
}

// SyncMaxSkills replaces the stored skills ranking of a season.
func (e *Engine) SyncMaxSkills(ctx context.Context, prog, season int) (*Tally, error) {
	return e.skills.Sync(ctx, prog, season)
}

// SyncCurrentEvents re-runs the event updater for stored events taking
// place now.
func (e *Engine) SyncCurrentEvents(ctx context.Context) (*Tally, error) {
	return e.events.SyncCurrent(ctx, time.Now())
}

// SyncExistingEvents re-runs the event updater for every stored event.
func (e *Engine) SyncExistingEvents(ctx context.Context) (*Tally, error) {
	return e.events.SyncExisting(ctx)
}

// ──────────────────────────────────────────────────
// Multi-season passes
// ──────────────────────────────────────────────────

// SyncAllTeams syncs the teams of every stored program season.
func (e *Engine) SyncAllTeams(ctx context.Context) (*Tally, error) {
	return e.eachSeason(ctx, "teams", e.SyncTeams)
}

// SyncAllMaxSkills syncs the skills ranking of every stored program season.
func (e *Engine) SyncAllMaxSkills(ctx context.Context) (*Tally, error) {
	return e.eachSeason(ctx, "max_skills", e.SyncMaxSkills)
}

// SyncAllEvents syncs the past events of every stored program season, then
// the future events of each program's latest season.
func (e *Engine) SyncAllEvents(ctx context.Context) (*Tally, error) {
	past := func(ctx context.Context, prog, season int) (*Tally, error) {
		return e.SyncEvents(ctx, prog, season, remote.Past)
	}
	total, firstErr := e.eachSeason(ctx, "events", past)
	if ctx.Err() != nil {
		return total, firstErr
	}

	programs, err := e.store.ListPrograms(ctx)
	if err != nil {
		return total, firstOf(firstErr, err)
	}
	for _, p := range programs {
		if len(p.Seasons) == 0 {
			continue
		}
		latest := slices.Max(p.Seasons)
		tally, err := e.SyncEvents(ctx, p.ID, latest, remote.Future)
		total.Merge(tally)
		if err != nil {
			e.logSeasonError(ctx, "events", p.ID, latest, err)
			firstErr = firstOf(firstErr, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	return total, firstErr
}

// SyncActive refreshes the configured active program seasons: teams, past
// and future events, then skills.
func (e *Engine) SyncActive(ctx context.Context) (*Tally, error) {
	total := &Tally{}
	var firstErr error

	for _, t := range e.config.Active {
		steps := []struct {
			kind string
			run  func() (*Tally, error)
		}{
			{"teams", func() (*Tally, error) { return e.SyncTeams(ctx, t.Program, t.Season) }},
			{"events", func() (*Tally, error) { return e.SyncEvents(ctx, t.Program, t.Season, remote.Past) }},
			{"events", func() (*Tally, error) { return e.SyncEvents(ctx, t.Program, t.Season, remote.Future) }},
			{"max_skills", func() (*Tally, error) { return e.SyncMaxSkills(ctx, t.Program, t.Season) }},
		}
		for _, step := range steps {
			tally, err := step.run()
			total.Merge(tally)
			if err != nil {
				e.logSeasonError(ctx, step.kind, t.Program, t.Season, err)
				firstErr = firstOf(firstErr, err)
				if ctx.Err() != nil {
					return total, firstErr
				}
			}
		}
	}
	return total, firstErr
}

// eachSeason runs pass for every stored program season in ascending order.
// A failing season is logged and the loop continues; the first error is
// returned at the end.
func (e *Engine) eachSeason(ctx context.Context, kind string, pass func(ctx context.Context, prog, season int) (*Tally, error)) (*Tally, error) {
	total := &Tally{}

	programs, err := e.store.ListPrograms(ctx)
	if err != nil {
		return total, fmt.Errorf("vexsync: list programs: %w", err)
	}

	var firstErr error
	for _, p := range programs {
		seasons := slices.Sorted(slices.Values(p.Seasons))
		for _, season := range seasons {
			tally, err := pass(ctx, p.ID, season)
			total.Merge(tally)
			if err != nil {
				e.logSeasonError(ctx, kind, p.ID, season, err)
				firstErr = firstOf(firstErr, err)
				if ctx.Err() != nil {
					return total, firstErr
				}
			}
		}
	}
	return total, firstErr
}

func (e *Engine) logSeasonError(ctx context.Context, kind string, prog, season int, err error) {
	e.logger.ErrorContext(ctx, "season sync failed",
		"kind", kind,
		"program", program.Name(prog),
		"season", season,
		"error", err,
	)
}

func firstOf(first, next error) error {
	if first != nil {
		return first
	}
	return next
}

// ──────────────────────────────────────────────────
// Notifications
// ──────────────────────────────────────────────────

// Notify sends msg to every channel, mentioning the subscribers of teams,
// and adds reactions in order.
func (e *Engine) Notify(ctx context.Context, msg notify.Message, teams []team.Ref, reactions []string) *notify.Report {
	return e.fanout.Notify(ctx, msg, teams, reactions)
}

// NotifyMatch announces a match to the subscribers of its teams. A scored
// match leads with its score line and gets the scored reactions; a scheduled
// one gets the alliance reactions.
func (e *Engine) NotifyMatch(ctx context.Context, content string, m notify.Match, payload any) *notify.Report {
	reactions := notify.AllianceReactions
	if m.Scored() {
		reactions = notify.ScoredReactions
		content = notify.ScoreLine(m) + lineBreak(content) + content
	}
	return e.Notify(ctx, notify.Message{Content: content, Payload: payload}, notify.MatchTeams(m), reactions)
}

func lineBreak(s string) string {
	if s == "" {
		return ""
	}
	return "\n"
}

// AnnounceRegistration implements team.Announcer.
func (e *Engine) AnnounceRegistration(ctx context.Context, t *team.Team) error {
	report := e.Notify(ctx, notify.Message{Content: "Team registered", Payload: t}, []team.Ref{t.Key.Ref()}, nil)
	if n := report.Failed(); n > 0 {
		return fmt.Errorf("vexsync: announce %s: %d of %d channels failed", t.Key.ID, n, len(report.Outcomes))
	}
	return nil
}
