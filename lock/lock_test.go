package lock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryExcludesSecondOwner(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	release, err := m.Acquire(ctx, "teams", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Acquire(ctx, "teams", time.Minute); !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}
	if _, err := m.Acquire(ctx, "skills", time.Minute); err != nil {
		t.Fatalf("other keys should be free, got %v", err)
	}

	if err := release(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Acquire(ctx, "teams", time.Minute); err != nil {
		t.Fatalf("released lock should be free, got %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	clock := time.Date(2019, 10, 5, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	ctx := context.Background()

	stale, err := m.Acquire(ctx, "teams", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	clock = clock.Add(2 * time.Minute)
	if _, err := m.Acquire(ctx, "teams", time.Minute); err != nil {
		t.Fatalf("expired lock should be free, got %v", err)
	}

	// The stale owner must not release the new owner's lock.
	_ = stale(ctx)
	if _, err := m.Acquire(ctx, "teams", time.Minute); !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld after stale release, got %v", err)
	}
}
