package skills

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xraph/vexsync/id"
	"github.com/xraph/vexsync/internal/entity"
	"github.com/xraph/vexsync/observability"
	"github.com/xraph/vexsync/program"
	"github.com/xraph/vexsync/remote"
	"github.com/xraph/vexsync/team"
)

// Fetcher loads a season's ranking list.
type Fetcher interface {
	MaxSkills(ctx context.Context, season int) ([]remote.MaxSkill, error)
}

// Syncer replaces a season's stored ranking with the remote one.
type Syncer struct {
	store   Store
	teams   TeamGrader
	fetcher Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// NewSyncer creates a skills ranking syncer.
func NewSyncer(store Store, teams TeamGrader, fetcher Fetcher, logger *slog.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: store, teams: teams, fetcher: fetcher, logger: logger, metrics: metrics, tracer: tracer}
}

// Sync upserts every ranking row of the season and then deletes, per grade,
// the stored ranks beyond the highest rank the remote list holds. A newly
// filled rank also records the team's grade. A season without rankings is
// logged and is not an error.
func (s *Syncer) Sync(ctx context.Context, prog, season int) (_ *entity.Tally, err error) {
	passID := id.NewPassID()
	ctx, span := s.tracer.StartPassSpan(ctx, "max_skills", passID.String(), prog, season)
	start := time.Now()
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.RecordPass("max_skills", err, time.Since(start))
	}()

	rows, err := s.fetcher.MaxSkills(ctx, season)
	if errors.Is(err, remote.ErrNoRankings) {
		s.logger.InfoContext(ctx, "no official skills rankings",
			"program", program.Name(prog),
			"season", season,
		)
		return &entity.Tally{}, nil
	}
	if err != nil {
		return nil, err
	}

	tally := &entity.Tally{}
	maxRanks := make(map[team.Grade]int)
	grades := make([]team.Grade, 0, 4)

	// An unreadable grade may hide any grade's highest rank; such a pass
	// does not prune.
	prune := true

	for _, row := range rows {
		grade, gErr := team.ParseGrade(row.Team.GradeLevel)
		if gErr != nil {
			s.logger.ErrorContext(ctx, "skipping ranking row",
				"pass_id", passID.String(),
				"season", season,
				"rank", row.Rank,
				"error", gErr,
			)
			tally.Record(entity.Failed)
			prune = false
			continue
		}

		// Malformed rows still count toward the grade maximum.
		if cur, seen := maxRanks[grade]; !seen {
			grades = append(grades, grade)
			maxRanks[grade] = row.Rank
		} else if row.Rank > cur {
			maxRanks[grade] = row.Rank
		}

		rec, tErr := Transform(row, prog, season)
		if tErr != nil {
			s.logger.ErrorContext(ctx, "skipping ranking row",
				"pass_id", passID.String(),
				"season", season,
				"error", tErr,
			)
			tally.Record(entity.Failed)
			continue
		}

		prev, upErr := s.store.UpsertMaxSkill(ctx, rec)
		if upErr != nil {
			if ctx.Err() != nil {
				return tally, upErr
			}
			s.logger.ErrorContext(ctx, "upsert ranking failed",
				"pass_id", passID.String(),
				"season", season,
				"grade", string(rec.Key.Grade),
				"rank", rec.Key.Rank,
				"error", upErr,
			)
			tally.Record(entity.Failed)
			continue
		}

		change := entity.Unchanged
		switch {
		case prev == nil:
			change = entity.Inserted
			s.grade(ctx, prog, season, rec)
		case Changed(prev, rec):
			change = entity.Updated
		}
		s.metrics.RecordChange("max_skill", change)
		tally.Record(change)
	}

	if !prune {
		s.logger.WarnContext(ctx, "skills rankings not pruned",
			"pass_id", passID.String(),
			"season", season,
			"reason", "unknown grade",
		)
		grades = nil
	}

	for _, grade := range grades {
		n, delErr := s.store.DeleteRanksAbove(ctx, season, grade, maxRanks[grade])
		if delErr != nil {
			s.logger.ErrorContext(ctx, "prune rankings failed",
				"pass_id", passID.String(),
				"season", season,
				"grade", string(grade),
				"error", delErr,
			)
			if err == nil {
				err = delErr
			}
			continue
		}
		tally.AddDeleted(n)
		s.metrics.RecordPruned("max_skill", n)
	}

	s.logger.InfoContext(ctx, "skills rankings synced",
		"pass_id", passID.String(),
		"program", program.Name(prog),
		"season", season,
		"inserted", tally.Inserted,
		"updated", tally.Updated,
		"deleted", tally.Deleted,
		"failed", tally.Failed,
	)
	return tally, err
}

// grade records the grade of the team holding a newly filled rank.
func (s *Syncer) grade(ctx context.Context, prog, season int, rec *Record) {
	key := team.Key{ID: rec.Team.ID, Program: prog, Season: season}

	prev, err := s.teams.SetGrade(ctx, key, rec.Key.Grade)
	switch {
	case err != nil:
		s.logger.ErrorContext(ctx, "set team grade failed",
			"team", key.ID,
			"error", err,
		)
	case prev == nil:
		s.logger.InfoContext(ctx, "insert to teams",
			"program", program.Name(prog),
			"team", key.ID,
			"season", season,
		)
	case prev.Grade != rec.Key.Grade:
		s.logger.InfoContext(ctx, "update team grade",
			"program", program.Name(prog),
			"team", key.ID,
			"from", string(prev.Grade),
			"to", string(rec.Key.Grade),
		)
	}
}
