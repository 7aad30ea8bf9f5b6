// Package mongo implements store.Store on MongoDB.
//
// Writes use the database's atomic find-and-modify; the previous document it
// returns is what classifies a write as an insert or an update.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/vexsync/store"
)

// Collection name constants.
const (
	colPrograms = "programs"
	colSeasons  = "seasons"
	colTeams    = "teams"
	colEvents   = "events"
	colSkills   = "maxSkills"
	colSubs     = "teamSubs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store implements store.Store using the MongoDB driver.
type Store struct {
	db *mongo.Database
}

// New creates a store on db.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Connect opens a client for uri and returns a store on database name.
func Connect(ctx context.Context, uri, name string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("vexsync/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("vexsync/mongo: ping: %w", err)
	}
	return New(client.Database(name)), nil
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates indexes for all catalog collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}

		_, err := s.db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("vexsync/mongo: migrate %s indexes: %w", col, err)
		}
	}

	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.db.Client().Disconnect(ctx)
}

// now returns the current UTC time at the database's precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// upsertBefore returns find-and-modify options that insert missing documents
// and return the document as it was before the write.
func upsertBefore() *options.FindOneAndUpdateOptionsBuilder {
	return options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)
}

// setOrUnset puts each field into $set when non-empty and into $unset
// otherwise, matching the omitempty fields of the models.
func setOrUnset(set, unset bson.M, fields map[string]string) {
	for k, v := range fields {
		if v == "" {
			unset[k] = ""
		} else {
			set[k] = v
		}
	}
}

// update builds an update document, leaving out empty operators.
func update(set, unset, setOnInsert bson.M) bson.M {
	u := bson.M{"$set": set}
	if len(unset) > 0 {
		u["$unset"] = unset
	}
	if len(setOnInsert) > 0 {
		u["$setOnInsert"] = setOnInsert
	}
	return u
}

// migrationIndexes returns the index definitions for all catalog collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSeasons: {
			{Keys: bson.D{{Key: "program", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colTeams: {
			{Keys: bson.D{{Key: "_id.program", Value: 1}, {Key: "_id.season", Value: 1}, {Key: "_id.id", Value: 1}}},
		},
		colEvents: {
			{Keys: bson.D{{Key: "season", Value: 1}, {Key: "start", Value: 1}}},
			{Keys: bson.D{{Key: "start", Value: 1}, {Key: "end", Value: 1}}},
		},
		colSkills: {
			{Keys: bson.D{{Key: "_id.season", Value: 1}, {Key: "_id.grade", Value: 1}, {Key: "_id.rank", Value: 1}}},
			{Keys: bson.D{{Key: "team.program", Value: 1}, {Key: "team.id", Value: 1}}},
		},
		colSubs: {
			{Keys: bson.D{{Key: "_id.guild", Value: 1}, {Key: "_id.team.program", Value: 1}, {Key: "_id.team.id", Value: 1}}},
		},
	}
}
