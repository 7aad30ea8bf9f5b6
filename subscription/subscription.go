// Package subscription reads which chat users follow which teams.
//
// Subscriptions are managed by the chat front end; vexsync only reads them.
package subscription

import (
	"context"

	"github.com/xraph/vexsync/team"
)

// Key identifies the subscribers of one team within one guild.
type Key struct {
	Guild string   `json:"guild" bson:"guild"`
	Team  team.Ref `json:"team" bson:"team"`
}

// Subscription lists the users of a guild following a team.
type Subscription struct {
	Key   Key      `json:"key" bson:"_id"`
	Users []string `json:"users" bson:"users"`
}

// Store defines the read contract for subscriptions.
type Store interface {
	// ListSubscriptions returns the subscriptions of a team within a guild.
	ListSubscriptions(ctx context.Context, guild string, t team.Ref) ([]*Subscription, error)
}
