// Package entity defines the base entity type and change bookkeeping shared by
// every catalog record.
package entity

import "time"

// Entity is the base type embedded by all catalog records.
//
// CreatedAt is only written when a record is first inserted; UpdatedAt is
// refreshed on every write. Team and event writes that change nothing leave
// it alone.
type Entity struct {
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// New returns an Entity with both timestamps set to the current UTC time.
func New() Entity {
	now := time.Now().UTC()
	return Entity{CreatedAt: now, UpdatedAt: now}
}

// Now returns the current UTC time truncated to the millisecond precision the
// document store keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
