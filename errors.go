package vexsync

import "errors"

// Sentinel errors returned by vexsync operations.
var (
	// ErrNoStore is returned when an Engine is created without a store.
	ErrNoStore = errors.New("vexsync: store is required")

	// ErrNoRemote is returned when an Engine is created without a remote client.
	ErrNoRemote = errors.New("vexsync: remote client is required")

	// ErrProgramNotFound is returned when a program cannot be found.
	ErrProgramNotFound = errors.New("vexsync: program not found")

	// ErrSeasonNotFound is returned when a season cannot be found.
	ErrSeasonNotFound = errors.New("vexsync: season not found")

	// ErrTeamNotFound is returned when a team registration cannot be found.
	ErrTeamNotFound = errors.New("vexsync: team not found")

	// ErrEventNotFound is returned when an event cannot be found.
	ErrEventNotFound = errors.New("vexsync: event not found")

	// ErrStoreClosed is returned when a store operation is attempted after the store is closed.
	ErrStoreClosed = errors.New("vexsync: store is closed")

	// ErrMigrationFailed is returned when creating the store's indexes fails.
	ErrMigrationFailed = errors.New("vexsync: migration failed")
)
