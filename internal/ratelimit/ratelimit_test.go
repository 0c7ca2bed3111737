package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		key      string
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			key:      "test",
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			key:      "test",
			calls:    5,
			wantPass: 2,
		},
		{
			name:     "single token",
			rps:      1,
			burst:    1,
			key:      "key1",
			calls:    1,
			wantPass: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst, 0)
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow(tt.key) {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1, 0)
	defer rl.Stop()

	rl.Allow("key1")
	if rl.Allow("key1") {
		t.Error("key1 should be exhausted")
	}

	if !rl.Allow("key2") {
		t.Error("key2 should be independent and allowed")
	}
}

func TestKeyedRateLimiter_Evict(t *testing.T) {
	rl := New(1, 1, time.Hour)
	defer rl.Stop()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return current }

	rl.Allow("stale")
	current = current.Add(50 * time.Minute)
	rl.Allow("fresh")
	current = current.Add(20 * time.Minute)

	if got := rl.Evict(); got != 1 {
		t.Fatalf("Evict() removed %d, want 1", got)
	}
	if rl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", rl.Len())
	}

	// An evicted key starts over with a full bucket.
	if !rl.Allow("stale") {
		t.Error("evicted key should be allowed again")
	}
}

func TestKeyedRateLimiter_EvictDisabled(t *testing.T) {
	rl := New(1, 1, 0)
	defer rl.Stop()

	rl.Allow("a")
	if got := rl.Evict(); got != 0 {
		t.Errorf("Evict() = %d with eviction disabled", got)
	}
}

func TestKeyedRateLimiter_Concurrent(t *testing.T) {
	rl := New(1, 10, 0)
	defer rl.Stop()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		passed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("shared") {
				mu.Lock()
				passed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if passed < 10 || passed > 11 {
		t.Errorf("passed = %d, want about the burst of 10", passed)
	}
}

func TestKeyedRateLimiter_StopIdempotent(t *testing.T) {
	rl := New(1, 1, time.Minute)
	rl.Stop()
	rl.Stop()
}
