package event

import (
	"context"
	"log/slog"

	"github.com/xraph/vexsync/internal/entity"
	"github.com/xraph/vexsync/observability"
)

// StoreUpdater is the default Updater: it upserts the event's top-level
// fields so the catalog holds every synced event.
type StoreUpdater struct {
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStoreUpdater creates an updater backed by store.
func NewStoreUpdater(store Store, logger *slog.Logger, metrics *observability.Metrics) *StoreUpdater {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreUpdater{store: store, logger: logger, metrics: metrics}
}

// UpdateEvent implements Updater.
func (u *StoreUpdater) UpdateEvent(ctx context.Context, e *Event) error {
	change, err := u.store.UpsertEvent(ctx, e)
	if err != nil {
		return err
	}
	u.metrics.RecordChange("event", change)

	switch change {
	case entity.Inserted:
		u.logger.InfoContext(ctx, "insert to events", "sku", e.SKU, "name", e.Name)
	case entity.Updated:
		u.logger.InfoContext(ctx, "update to events", "sku", e.SKU, "name", e.Name)
	}
	return nil
}
