package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/vexsync"
	"github.com/xraph/vexsync/team"
)

// ReconcileTeam writes t and returns the previous record. An empty grade
// leaves the stored grade alone. updated_at only moves when a field changed.
func (s *Store) ReconcileTeam(ctx context.Context, t *team.Team) (*team.Team, error) {
	ts := now()
	set := bson.M{
		"lat":  t.Lat,
		"lng":  t.Lng,
		"city": t.City,
	}
	unset := bson.M{}
	setOrUnset(set, unset, map[string]string{
		"region": t.Region,
		"name":   t.Name,
		"robot":  t.Robot,
	})
	if t.Grade != team.GradeNone {
		set["grade"] = t.Grade
	}

	col := s.db.Collection(colTeams)
	var prev team.Team
	err := col.
		FindOneAndUpdate(ctx, bson.M{"_id": t.Key}, update(set, unset, bson.M{"created_at": ts, "updated_at": ts}), upsertBefore()).
		Decode(&prev)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("vexsync/mongo: reconcile team %s: %w", t.Key.ID, err)
	}

	if team.Changed(&prev, t) {
		if _, err := col.UpdateOne(ctx, bson.M{"_id": t.Key}, bson.M{"$set": bson.M{"updated_at": ts}}); err != nil {
			return nil, fmt.Errorf("vexsync/mongo: touch team %s: %w", t.Key.ID, err)
		}
	}
	return &prev, nil
}

// ClearCountry unsets the country of a team.
func (s *Store) ClearCountry(ctx context.Context, key team.Key) error {
	_, err := s.db.Collection(colTeams).UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{
			"$unset": bson.M{"country": ""},
			"$set":   bson.M{"updated_at": now()},
		},
	)
	if err != nil {
		return fmt.Errorf("vexsync/mongo: clear country of %s: %w", key.ID, err)
	}
	return nil
}

// SetGrade sets the grade of a team and returns the previous record.
func (s *Store) SetGrade(ctx context.Context, key team.Key, grade team.Grade) (*team.Team, error) {
	ts := now()
	u := update(
		bson.M{"grade": grade, "updated_at": ts},
		nil,
		bson.M{"created_at": ts},
	)

	var prev team.Team
	err := s.db.Collection(colTeams).
		FindOneAndUpdate(ctx, bson.M{"_id": key}, u, upsertBefore()).
		Decode(&prev)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("vexsync/mongo: set grade of %s: %w", key.ID, err)
	}
	return &prev, nil
}

// GetTeam returns a team registration.
func (s *Store) GetTeam(ctx context.Context, key team.Key) (*team.Team, error) {
	var t team.Team
	err := s.db.Collection(colTeams).FindOne(ctx, bson.M{"_id": key}).Decode(&t)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vexsync.ErrTeamNotFound
		}
		return nil, fmt.Errorf("vexsync/mongo: get team: %w", err)
	}
	return &t, nil
}

// ListTeams returns the registrations of a program season ordered by ID.
func (s *Store) ListTeams(ctx context.Context, prog, season int) ([]*team.Team, error) {
	cur, err := s.db.Collection(colTeams).Find(ctx,
		bson.M{"_id.program": prog, "_id.season": season},
		options.Find().SetSort(bson.D{{Key: "_id.id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("vexsync/mongo: list teams: %w", err)
	}

	var result []*team.Team
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("vexsync/mongo: list teams: %w", err)
	}
	return result, nil
}
