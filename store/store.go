// Package store defines the composite Store interface for the vexsync catalog.
//
// Each subsystem defines its own store interface and the aggregate Store
// composes them all.
package store

import (
	"context"

	"github.com/xraph/vexsync/event"
	"github.com/xraph/vexsync/program"
	"github.com/xraph/vexsync/skills"
	"github.com/xraph/vexsync/subscription"
	"github.com/xraph/vexsync/team"
)

// Store is the aggregate persistence interface.
type Store interface {
	program.Store
	team.Store
	event.Store
	skills.Store
	subscription.Store

	// Migrate creates the indexes the catalog queries rely on.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
