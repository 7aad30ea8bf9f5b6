package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/vexsync/subscription"
	"github.com/xraph/vexsync/team"
)

// ListSubscriptions returns the subscriptions of a team within a guild. Only
// the users are read.
func (s *Store) ListSubscriptions(ctx context.Context, guild string, t team.Ref) ([]*subscription.Subscription, error) {
	cur, err := s.db.Collection(colSubs).Find(ctx,
		bson.M{
			"_id.guild":        guild,
			"_id.team.program": t.Program,
			"_id.team.id":      t.ID,
		},
		options.Find().SetProjection(bson.M{"users": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("vexsync/mongo: list subscriptions: %w", err)
	}

	var result []*subscription.Subscription
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("vexsync/mongo: list subscriptions: %w", err)
	}
	return result, nil
}

// Subscribe adds users to a team's subscribers in a guild.
func (s *Store) Subscribe(ctx context.Context, guild string, t team.Ref, users ...string) error {
	key := subscription.Key{Guild: guild, Team: t}
	_, err := s.db.Collection(colSubs).UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$addToSet": bson.M{"users": bson.M{"$each": users}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("vexsync/mongo: subscribe: %w", err)
	}
	return nil
}
