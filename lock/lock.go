// Package lock guards sync jobs so only one run of a job is in flight across
// every process sharing the backend.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xraph/vexsync/id"
)

// ErrHeld is returned when the lock is held by another owner.
var ErrHeld = errors.New("vexsync: lock held")

// Release gives a lock back. Releasing a lock that expired or was taken over
// is a no-op.
type Release func(ctx context.Context) error

// Locker acquires named locks that expire after ttl.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// Token returns a fresh owner token.
func Token() string {
	return id.NewJobID().String()
}

type held struct {
	token   string
	expires time.Time
}

// Memory is a single-process Locker.
type Memory struct {
	mu    sync.Mutex
	locks map[string]held
	now   func() time.Time
}

// NewMemory creates an in-process locker.
func NewMemory() *Memory {
	return &Memory{locks: make(map[string]held), now: time.Now}
}

// Acquire implements Locker.
func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if h, ok := m.locks[key]; ok && now.Before(h.expires) {
		return nil, ErrHeld
	}

	token := Token()
	m.locks[key] = held{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if h, ok := m.locks[key]; ok && h.token == token {
			delete(m.locks, key)
		}
		return nil
	}, nil
}
