package vexsync

import "github.com/xraph/vexsync/internal/entity"

// Entity is the base type embedded by all catalog records.
type Entity = entity.Entity

// Change classifies what an upsert did to a record.
type Change = entity.Change

// Tally counts the outcome of every item handled by one sync pass.
type Tally = entity.Tally

// Change values.
const (
	Unchanged = entity.Unchanged
	Inserted  = entity.Inserted
	Updated   = entity.Updated
	Failed    = entity.Failed
)
