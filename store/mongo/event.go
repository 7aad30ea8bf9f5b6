package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/vexsync"
	"github.com/xraph/vexsync/event"
	"github.com/xraph/vexsync/internal/entity"
)

// UpsertEvent sets the event's top-level fields. updated_at moves only when a
// field actually changed.
func (s *Store) UpsertEvent(ctx context.Context, e *event.Event) (entity.Change, error) {
	ts := now()
	set := bson.M{
		"season":   e.Season,
		"program":  e.Program,
		"name":     e.Name,
		"start":    e.Start,
		"end":      e.End,
		"lat":      e.Lat,
		"lng":      e.Lng,
		"timezone": e.TimeZone,
	}
	unset := bson.M{}
	setOrUnset(set, unset, map[string]string{
		"email":   e.Email,
		"phone":   e.Phone,
		"webcast": e.Webcast,
	})

	col := s.db.Collection(colEvents)
	res, err := col.UpdateOne(ctx,
		bson.M{"_id": e.SKU},
		update(set, unset, bson.M{"created_at": ts, "updated_at": ts}),
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return entity.Failed, fmt.Errorf("vexsync/mongo: upsert event %s: %w", e.SKU, err)
	}

	switch {
	case res.UpsertedCount > 0:
		return entity.Inserted, nil
	case res.ModifiedCount > 0:
		if _, err := col.UpdateOne(ctx, bson.M{"_id": e.SKU}, bson.M{"$set": bson.M{"updated_at": ts}}); err != nil {
			return entity.Failed, fmt.Errorf("vexsync/mongo: touch event %s: %w", e.SKU, err)
		}
		return entity.Updated, nil
	default:
		return entity.Unchanged, nil
	}
}

// GetEvent returns an event by SKU.
func (s *Store) GetEvent(ctx context.Context, sku string) (*event.Event, error) {
	var e event.Event
	err := s.db.Collection(colEvents).FindOne(ctx, bson.M{"_id": sku}).Decode(&e)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vexsync.ErrEventNotFound
		}
		return nil, fmt.Errorf("vexsync/mongo: get event: %w", err)
	}
	return &e, nil
}

// ListEvents returns the events matching opts ordered by start, then SKU.
func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	filter := bson.M{}
	if opts.Season != 0 {
		filter["season"] = opts.Season
	}
	if !opts.ActiveAt.IsZero() {
		filter["start"] = bson.M{"$lte": opts.ActiveAt}
		filter["end"] = bson.M{"$gte": opts.ActiveAt}
	}

	cur, err := s.db.Collection(colEvents).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "start", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("vexsync/mongo: list events: %w", err)
	}

	var result []*event.Event
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("vexsync/mongo: list events: %w", err)
	}
	return result, nil
}
