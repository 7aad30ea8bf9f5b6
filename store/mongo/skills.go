package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/vexsync/skills"
	"github.com/xraph/vexsync/team"
)

// UpsertMaxSkill sets the record at its rank key and returns the previous one.
func (s *Store) UpsertMaxSkill(ctx context.Context, r *skills.Record) (*skills.Record, error) {
	ts := now()
	set := bson.M{
		"team":           r.Team,
		"event":          r.Event,
		"score":          r.Score,
		"programming":    r.Programming,
		"driver":         r.Driver,
		"maxProgramming": r.MaxProgramming,
		"maxDriver":      r.MaxDriver,
		"eligible":       r.Eligible,
		"updated_at":     ts,
	}
	unset := bson.M{}
	setOrUnset(set, unset, map[string]string{
		"region":  r.Region,
		"country": r.Country,
	})

	var prev skills.Record
	err := s.db.Collection(colSkills).
		FindOneAndUpdate(ctx, bson.M{"_id": r.Key}, update(set, unset, bson.M{"created_at": ts}), upsertBefore()).
		Decode(&prev)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("vexsync/mongo: upsert max skill %d/%s/%d: %w", r.Key.Season, r.Key.Grade, r.Key.Rank, err)
	}
	return &prev, nil
}

// DeleteRanksAbove removes the ranks of a season grade greater than rank.
func (s *Store) DeleteRanksAbove(ctx context.Context, season int, grade team.Grade, rank int) (int64, error) {
	res, err := s.db.Collection(colSkills).DeleteMany(ctx, bson.M{
		"_id.season": season,
		"_id.grade":  grade,
		"_id.rank":   bson.M{"$gt": rank},
	})
	if err != nil {
		return 0, fmt.Errorf("vexsync/mongo: prune ranks of %d/%s: %w", season, grade, err)
	}
	return res.DeletedCount, nil
}

// ListMaxSkills returns the ranking of a season grade ordered by rank.
func (s *Store) ListMaxSkills(ctx context.Context, season int, grade team.Grade) ([]*skills.Record, error) {
	cur, err := s.db.Collection(colSkills).Find(ctx,
		bson.M{"_id.season": season, "_id.grade": grade},
		options.Find().SetSort(bson.D{{Key: "_id.rank", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("vexsync/mongo: list max skills: %w", err)
	}

	var result []*skills.Record
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("vexsync/mongo: list max skills: %w", err)
	}
	return result, nil
}
