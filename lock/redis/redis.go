// Package redis implements lock.Locker on Redis for deployments running more
// than one vexsync process.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/vexsync/lock"
)

// compile-time interface check
var _ lock.Locker = (*Locker)(nil)

const keyPrefix = "vexsync:lock:"

// release deletes the key only while it still holds the caller's token.
var release = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires locks with SET NX PX.
type Locker struct {
	rdb goredis.UniversalClient
}

// New creates a locker on rdb.
func New(rdb goredis.UniversalClient) *Locker {
	return &Locker{rdb: rdb}
}

// Acquire implements lock.Locker.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (lock.Release, error) {
	token := lock.Token()
	k := keyPrefix + key

	ok, err := l.rdb.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("vexsync/redis: acquire %s: %w", key, err)
	}
	if !ok {
		return nil, lock.ErrHeld
	}

	return func(ctx context.Context) error {
		if err := release.Run(ctx, l.rdb, []string{k}, token).Err(); err != nil {
			return fmt.Errorf("vexsync/redis: release %s: %w", key, err)
		}
		return nil
	}, nil
}
