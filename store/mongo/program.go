package mongo

import (
	"context"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/vexsync"
	"github.com/xraph/vexsync/internal/entity"
	"github.com/xraph/vexsync/program"
)

// UpsertSeason sets every field of the season.
func (s *Store) UpsertSeason(ctx context.Context, season *program.Season) (entity.Change, error) {
	t := now()
	u := update(
		bson.M{
			"program":    season.Program,
			"name":       season.Name,
			"start":      season.Start,
			"end":        season.End,
			"updated_at": t,
		},
		nil,
		bson.M{"created_at": t},
	)

	var prev program.Season
	err := s.db.Collection(colSeasons).
		FindOneAndUpdate(ctx, bson.M{"_id": season.ID}, u, upsertBefore()).
		Decode(&prev)
	if err != nil {
		if isNoDocuments(err) {
			return entity.Inserted, nil
		}
		return entity.Failed, fmt.Errorf("vexsync/mongo: upsert season %d: %w", season.ID, err)
	}

	if prev.Program == season.Program && prev.Name == season.Name && prev.Start == season.Start && prev.End == season.End {
		return entity.Unchanged, nil
	}
	return entity.Updated, nil
}

// UpsertProgram sets name and abbreviation and adds the seasons to the
// program's season set.
func (s *Store) UpsertProgram(ctx context.Context, p *program.Program) (entity.Change, error) {
	t := now()
	seasons := p.Seasons
	if seasons == nil {
		seasons = []int{}
	}
	u := bson.M{
		"$set": bson.M{
			"name":       p.Name,
			"abbr":       p.Abbr,
			"updated_at": t,
		},
		"$addToSet":    bson.M{"seasons": bson.M{"$each": seasons}},
		"$setOnInsert": bson.M{"created_at": t},
	}

	var prev program.Program
	err := s.db.Collection(colPrograms).
		FindOneAndUpdate(ctx, bson.M{"_id": p.ID}, u, upsertBefore()).
		Decode(&prev)
	if err != nil {
		if isNoDocuments(err) {
			return entity.Inserted, nil
		}
		return entity.Failed, fmt.Errorf("vexsync/mongo: upsert program %d: %w", p.ID, err)
	}

	if prev.Name != p.Name || prev.Abbr != p.Abbr {
		return entity.Updated, nil
	}
	for _, id := range p.Seasons {
		if !slices.Contains(prev.Seasons, id) {
			return entity.Updated, nil
		}
	}
	return entity.Unchanged, nil
}

// GetProgram returns a program by code.
func (s *Store) GetProgram(ctx context.Context, programID int) (*program.Program, error) {
	var p program.Program
	err := s.db.Collection(colPrograms).FindOne(ctx, bson.M{"_id": programID}).Decode(&p)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vexsync.ErrProgramNotFound
		}
		return nil, fmt.Errorf("vexsync/mongo: get program: %w", err)
	}
	return &p, nil
}

// ListPrograms returns every program ordered by code.
func (s *Store) ListPrograms(ctx context.Context) ([]*program.Program, error) {
	cur, err := s.db.Collection(colPrograms).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("vexsync/mongo: list programs: %w", err)
	}

	var result []*program.Program
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("vexsync/mongo: list programs: %w", err)
	}
	return result, nil
}

// GetSeason returns a season by ID.
func (s *Store) GetSeason(ctx context.Context, seasonID int) (*program.Season, error) {
	var season program.Season
	err := s.db.Collection(colSeasons).FindOne(ctx, bson.M{"_id": seasonID}).Decode(&season)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vexsync.ErrSeasonNotFound
		}
		return nil, fmt.Errorf("vexsync/mongo: get season: %w", err)
	}
	return &season, nil
}
