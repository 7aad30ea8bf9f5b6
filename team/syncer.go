package team

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/vexsync/id"
	"github.com/xraph/vexsync/internal/entity"
	"github.com/xraph/vexsync/observability"
	"github.com/xraph/vexsync/program"
	"github.com/xraph/vexsync/remote"
)

// Fetcher loads team registrations from the remote service.
type Fetcher interface {
	NewSession(ctx context.Context) (remote.Session, error)
	TeamGroups(ctx context.Context, program, season int) ([]remote.TeamGroup, error)
	TeamsInGroup(ctx context.Context, sess remote.Session, program, season int, group remote.TeamGroup) ([]remote.Team, error)
}

// Announcer is told about new registrations.
type Announcer interface {
	AnnounceRegistration(ctx context.Context, t *Team) error
}

// Config configures a Syncer.
type Config struct {
	// Concurrency bounds how many team groups are processed at once.
	Concurrency int

	// NotifyRegistrations announces new registrations through Announcer.
	NotifyRegistrations bool

	// Announcer receives new registrations. May be nil.
	Announcer Announcer
}

// Syncer reconciles the teams of a program season with the store.
type Syncer struct {
	store   Store
	fetcher Fetcher
	cfg     Config
	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// NewSyncer creates a team syncer.
func NewSyncer(store Store, fetcher Fetcher, cfg Config, logger *slog.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Syncer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: store, fetcher: fetcher, cfg: cfg, logger: logger, metrics: metrics, tracer: tracer}
}

// Sync fetches every team group of the season and reconciles its teams.
//
// Groups run concurrently up to Config.Concurrency; teams inside a group are
// written in payload order. A group whose fetch fails is logged and counted
// as failed while the other groups continue. A payload shape error aborts
// the pass.
func (s *Syncer) Sync(ctx context.Context, prog, season int) (_ *entity.Tally, err error) {
	passID := id.NewPassID()
	ctx, span := s.tracer.StartPassSpan(ctx, "teams", passID.String(), prog, season)
	start := time.Now()
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.RecordPass("teams", err, time.Since(start))
	}()

	sess, err := s.fetcher.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.fetcher.TeamGroups(ctx, prog, season)
	if err != nil {
		return nil, err
	}

	tally := &entity.Tally{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, group := range groups {
		g.Go(func() error {
			teams, fetchErr := s.fetcher.TeamsInGroup(gctx, sess, prog, season, group)
			if fetchErr != nil {
				if errors.Is(fetchErr, remote.ErrPayloadShape) || gctx.Err() != nil {
					return fetchErr
				}
				s.logger.ErrorContext(gctx, "team group failed",
					"pass_id", passID.String(),
					"program", program.Name(prog),
					"season", season,
					"lat", float64(group.Position.Lat),
					"lng", float64(group.Position.Lng),
					"error", fetchErr,
				)
				tally.Record(entity.Failed)
				return nil
			}

			for _, rt := range teams {
				t := Transform(rt, prog, season, group)
				change, recErr := s.reconcile(gctx, t)
				if recErr != nil {
					if gctx.Err() != nil {
						return recErr
					}
					s.logger.ErrorContext(gctx, "reconcile team failed",
						"pass_id", passID.String(),
						"team", t.Key.ID,
						"error", recErr,
					)
					change = entity.Failed
				}
				tally.Record(change)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return tally, err
	}

	s.logger.InfoContext(ctx, "teams synced",
		"pass_id", passID.String(),
		"program", program.Name(prog),
		"season", season,
		"groups", len(groups),
		"inserted", tally.Inserted,
		"updated", tally.Updated,
		"unchanged", tally.Unchanged,
		"failed", tally.Failed,
	)
	return tally, nil
}

// reconcile writes one team and classifies the write by the previous record.
func (s *Syncer) reconcile(ctx context.Context, t *Team) (entity.Change, error) {
	prev, err := s.store.ReconcileTeam(ctx, t)
	if err != nil {
		return entity.Failed, err
	}

	change := entity.Unchanged
	switch {
	case prev == nil:
		change = entity.Inserted
		s.logger.InfoContext(ctx, "team registered",
			"program", program.Name(t.Key.Program),
			"team", t.Key.ID,
			"season", t.Key.Season,
		)
		s.announce(ctx, t)
	case Changed(prev, t):
		change = entity.Updated
	}

	if Moved(prev, t) {
		if err := s.store.ClearCountry(ctx, t.Key); err != nil {
			return entity.Failed, err
		}
	}

	s.metrics.RecordChange("team", change)
	return change, nil
}

func (s *Syncer) announce(ctx context.Context, t *Team) {
	if !s.cfg.NotifyRegistrations || s.cfg.Announcer == nil {
		return
	}
	if err := s.cfg.Announcer.AnnounceRegistration(ctx, t); err != nil {
		s.logger.WarnContext(ctx, "announce registration failed",
			"team", t.Key.ID,
			"error", err,
		)
	}
}

// Transform maps a remote team of a group to a Team. College teams get
// their grade from the program.
func Transform(rt remote.Team, prog, season int, group remote.TeamGroup) *Team {
	t := &Team{
		Key:    Key{ID: rt.Team, Program: prog, Season: season},
		Lat:    float64(group.Position.Lat),
		Lng:    float64(group.Position.Lng),
		City:   rt.City,
		Region: rt.Name,
		Name:   rt.TeamName,
		Robot:  rt.RobotName,
	}
	if prog == program.VEXU {
		t.Grade = GradeCollege
	}
	return t
}
