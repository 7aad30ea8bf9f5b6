package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAllow_Unlimited(t *testing.T) {
	l := New()
	for range 100 {
		if !l.Allow("www.robotevents.com", 0) {
			t.Fatal("Allow(0) should always return true")
		}
	}
}

func TestAllow_BurstThenDeny(t *testing.T) {
	l := New()
	host := "www.robotevents.com"

	// Bucket starts full at one second of traffic.
	if !l.Allow(host, 2) || !l.Allow(host, 2) {
		t.Fatal("first two calls should be allowed")
	}
	if l.Allow(host, 2) {
		t.Fatal("third call should be denied")
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l := New()

	if !l.Allow("a.example", 1) {
		t.Fatal("a should be allowed")
	}
	if l.Allow("a.example", 1) {
		t.Fatal("a should be exhausted")
	}
	if !l.Allow("b.example", 1) {
		t.Fatal("b should not share a's bucket")
	}
}

func TestAllow_Refills(t *testing.T) {
	l := New()
	host := "refill.example"

	l.Allow(host, 20)
	for l.Allow(host, 20) {
	}

	time.Sleep(120 * time.Millisecond)

	if !l.Allow(host, 20) {
		t.Fatal("expected a token after refill")
	}
}

func TestWait_CancelledContext(t *testing.T) {
	l := New()
	host := "slow.example"
	for l.Allow(host, 0.5) {
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, host, 0.5); err == nil {
		t.Fatal("expected context error")
	}
}

func TestWait_Paces(t *testing.T) {
	l := New()
	host := "paced.example"

	start := time.Now()
	for range 12 {
		if err := l.Wait(context.Background(), host, 10); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}

	// 10 come from the initial burst; the remaining 2 need ~200ms of refill.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("expected pacing, finished in %v", elapsed)
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("concurrent.example", 10) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed < 10 || allowed > 11 {
		t.Fatalf("expected about 10 allowed, got %d", allowed)
	}
}
