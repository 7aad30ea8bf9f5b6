package team

import "context"

// Store defines the persistence contract for team registrations.
type Store interface {
	// ReconcileTeam writes t in one atomic find-and-modify: present fields are
	// set, an empty Name, Robot or Region is unset, and an empty Grade leaves
	// the stored grade alone. It returns the record as it was before the write,
	// or nil when t is a new registration.
	ReconcileTeam(ctx context.Context, t *Team) (*Team, error)

	// ClearCountry unsets the geocoded country of a team.
	ClearCountry(ctx context.Context, key Key) error

	// SetGrade sets the grade of a team, inserting a bare record when absent.
	// It returns the previous record, or nil when the team was absent.
	SetGrade(ctx context.Context, key Key, grade Grade) (*Team, error)

	// GetTeam returns a team registration.
	GetTeam(ctx context.Context, key Key) (*Team, error)

	// ListTeams returns the registrations of a program season ordered by ID.
	ListTeams(ctx context.Context, program, season int) ([]*Team, error)
}
