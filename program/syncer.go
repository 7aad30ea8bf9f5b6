package program

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/xraph/vexsync/id"
	"github.com/xraph/vexsync/internal/entity"
	"github.com/xraph/vexsync/observability"
	"github.com/xraph/vexsync/remote"
)

// Fetcher loads the remote program list.
type Fetcher interface {
	Programs(ctx context.Context) ([]remote.Program, error)
}

// Syncer upserts the remote programs and seasons into the store.
type Syncer struct {
	store   Store
	fetcher Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// NewSyncer creates a program/season syncer.
func NewSyncer(store Store, fetcher Fetcher, logger *slog.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: store, fetcher: fetcher, logger: logger, metrics: metrics, tracer: tracer}
}

// Sync fetches every program and upserts its seasons, then the program itself.
// A failed upsert is logged and counted without stopping the pass.
func (s *Syncer) Sync(ctx context.Context) (_ *entity.Tally, err error) {
	passID := id.NewPassID()
	ctx, span := s.tracer.StartPassSpan(ctx, "programs", passID.String(), 0, 0)
	start := time.Now()
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.RecordPass("programs", err, time.Since(start))
	}()

	remotes, err := s.fetcher.Programs(ctx)
	if err != nil {
		return nil, err
	}

	tally := &entity.Tally{}
	for _, rp := range remotes {
		p, seasons := Transform(rp)

		for _, season := range seasons {
			change, upErr := s.store.UpsertSeason(ctx, season)
			if upErr != nil {
				s.logger.ErrorContext(ctx, "upsert season failed",
					"pass_id", passID.String(),
					"season", season.ID,
					"error", upErr,
				)
				tally.Record(entity.Failed)
				continue
			}
			s.record(ctx, "season", change, "season", season.ID, "name", season.Name)
			tally.Record(change)
		}

		change, upErr := s.store.UpsertProgram(ctx, p)
		if upErr != nil {
			s.logger.ErrorContext(ctx, "upsert program failed",
				"pass_id", passID.String(),
				"program", p.ID,
				"error", upErr,
			)
			tally.Record(entity.Failed)
			continue
		}
		s.record(ctx, "program", change, "program", p.ID, "abbr", p.Abbr, "seasons", p.Seasons)
		tally.Record(change)
	}

	s.logger.InfoContext(ctx, "programs synced",
		"pass_id", passID.String(),
		"inserted", tally.Inserted,
		"updated", tally.Updated,
		"failed", tally.Failed,
	)
	return tally, nil
}

func (s *Syncer) record(ctx context.Context, kind string, change entity.Change, attrs ...any) {
	s.metrics.RecordChange(kind, change)
	switch change {
	case entity.Inserted:
		s.logger.InfoContext(ctx, "insert to "+kind+"s", attrs...)
	case entity.Updated:
		s.logger.InfoContext(ctx, "update to "+kind+"s", attrs...)
	}
}

// Transform maps a remote program to a Program and its Seasons sorted by ID.
func Transform(rp remote.Program) (*Program, []*Season) {
	seasons := make([]*Season, 0, len(rp.Seasons))
	for _, rs := range rp.Seasons {
		seasons = append(seasons, &Season{
			ID:      rs.ID,
			Program: rp.ID,
			Name:    SeasonName(rs.Name),
			Start:   int(rs.StartYear),
			End:     int(rs.EndYear),
		})
	}
	sort.Slice(seasons, func(i, j int) bool { return seasons[i].ID < seasons[j].ID })

	ids := make([]int, len(seasons))
	for i, season := range seasons {
		ids[i] = season.ID
	}

	return &Program{
		ID:      rp.ID,
		Name:    rp.Name,
		Abbr:    rp.Abbr,
		Seasons: ids,
	}, seasons
}
