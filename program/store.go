package program

import (
	"context"

	"github.com/xraph/vexsync/internal/entity"
)

// Store defines the persistence contract for programs and seasons.
type Store interface {
	// UpsertSeason sets every field of the season, inserting it when absent.
	UpsertSeason(ctx context.Context, s *Season) (entity.Change, error)

	// UpsertProgram sets name and abbreviation and adds p.Seasons to the
	// stored season set. Seasons are never removed.
	UpsertProgram(ctx context.Context, p *Program) (entity.Change, error)

	// GetProgram returns a program by code.
	GetProgram(ctx context.Context, programID int) (*Program, error)

	// ListPrograms returns every program ordered by code.
	ListPrograms(ctx context.Context) ([]*Program, error)

	// GetSeason returns a season by ID.
	GetSeason(ctx context.Context, seasonID int) (*Season, error)
}
