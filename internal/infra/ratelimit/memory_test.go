package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_Window(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: clock})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(ctx, "analyst-1", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if decision.Remaining != 3-(i+1) {
			t.Fatalf("request %d remaining = %d", i+1, decision.Remaining)
		}
	}

	decision, err := limiter.Allow(ctx, "analyst-1", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if decision.Allowed {
		t.Fatal("fourth request should be denied")
	}
	if decision.Remaining != 0 {
		t.Fatalf("denied remaining = %d", decision.Remaining)
	}

	// Advancing past the window resets the counter.
	now = now.Add(61 * time.Second)
	decision, err = limiter.Allow(ctx, "analyst-1", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow after reset: %v", err)
	}
	if !decision.Allowed || decision.Remaining != 2 {
		t.Fatalf("expected fresh window, got %+v", decision)
	}
}

func TestMemoryLimiter_KeysIsolated(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	ctx := context.Background()

	if _, err := limiter.Allow(ctx, "a", 1, time.Minute); err != nil {
		t.Fatalf("allow a: %v", err)
	}
	decision, err := limiter.Allow(ctx, "b", 1, time.Minute)
	if err != nil {
		t.Fatalf("allow b: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("key b should have its own window")
	}
}

func TestMemoryLimiter_ZeroLimitDisabled(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	decision, err := limiter.Allow(context.Background(), "any", 0, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("zero limit disables limiting")
	}
}
