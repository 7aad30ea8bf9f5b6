package skills

import (
	"context"

	"github.com/xraph/vexsync/team"
)

// Store defines the persistence contract for skills rankings.
type Store interface {
	// UpsertMaxSkill sets every field of the record at its rank key in one
	// atomic find-and-modify and returns the previous record, or nil.
	UpsertMaxSkill(ctx context.Context, r *Record) (*Record, error)

	// DeleteRanksAbove removes the ranks of a season grade greater than rank
	// and returns how many were removed.
	DeleteRanksAbove(ctx context.Context, season int, grade team.Grade, rank int) (int64, error)

	// ListMaxSkills returns the ranking of a season grade ordered by rank.
	ListMaxSkills(ctx context.Context, season int, grade team.Grade) ([]*Record, error)
}

// TeamGrader records the grade a ranking reveals for a team.
type TeamGrader interface {
	SetGrade(ctx context.Context, key team.Key, grade team.Grade) (*team.Team, error)
}
