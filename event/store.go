package event

import (
	"context"
	"time"

	"github.com/xraph/vexsync/internal/entity"
)

// ListOpts filters stored events.
type ListOpts struct {
	// ActiveAt keeps events whose dates contain this instant. Zero keeps all.
	ActiveAt time.Time

	// Season keeps events of one season. Zero keeps all.
	Season int
}

// Store defines the persistence contract for events.
type Store interface {
	// UpsertEvent sets the event's top-level fields, inserting it when absent.
	UpsertEvent(ctx context.Context, e *Event) (entity.Change, error)

	// GetEvent returns an event by SKU.
	GetEvent(ctx context.Context, sku string) (*Event, error)

	// ListEvents returns the events matching opts ordered by start, then SKU.
	ListEvents(ctx context.Context, opts ListOpts) ([]*Event, error)
}
