package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(10.0, 5)
	if l == nil {
		t.Fatal("NewLimiter returned nil")
	}
	if l.rate != 10.0 {
		t.Errorf("rate = %f, want 10.0", l.rate)
	}
	if l.burst != 5 {
		t.Errorf("burst = %d, want 5", l.burst)
	}
}

func TestEvery(t *testing.T) {
	if got := Every(2 * time.Second); got != 0.5 {
		t.Errorf("Every(2s) = %f, want 0.5", got)
	}
	if got := Every(100 * time.Millisecond); got != 10 {
		t.Errorf("Every(100ms) = %f, want 10", got)
	}
}

func TestAllow_WithinBurst(t *testing.T) {
	l := NewLimiter(1.0, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("progress") {
			t.Errorf("event %d should be allowed (within burst)", i+1)
		}
	}
}

func TestAllow_ExceedsBurst(t *testing.T) {
	now := time.Now()
	l := NewLimiter(1.0, 2)
	l.nowFunc = func() time.Time { return now }

	l.Allow("progress")
	l.Allow("progress")

	if l.Allow("progress") {
		t.Error("event after burst exhaustion should be rejected")
	}
}

func TestAllow_RefillAfterWait(t *testing.T) {
	now := time.Now()
	l := NewLimiter(10.0, 2)
	l.nowFunc = func() time.Time { return now }

	l.Allow("progress")
	l.Allow("progress")
	if l.Allow("progress") {
		t.Error("expected rejection after burst")
	}

	// 10 tokens/sec * 200ms = 2 tokens
	now = now.Add(200 * time.Millisecond)

	if !l.Allow("progress") {
		t.Error("expected allow after token refill")
	}
}

func TestAllow_IndependentKeys(t *testing.T) {
	now := time.Now()
	l := NewLimiter(1.0, 1)
	l.nowFunc = func() time.Time { return now }

	l.Allow("extinction")
	if l.Allow("extinction") {
		t.Error("extinction should be exhausted")
	}
	if !l.Allow("utopia") {
		t.Error("utopia should be allowed (independent bucket)")
	}
}

func TestAllow_BurstDoesNotExceedMax(t *testing.T) {
	now := time.Now()
	l := NewLimiter(100.0, 3)
	l.nowFunc = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		l.Allow("progress")
	}

	// Would refill 1000 tokens uncapped.
	now = now.Add(10 * time.Second)

	for i := 0; i < 3; i++ {
		if !l.Allow("progress") {
			t.Errorf("event %d should be allowed after refill capped at burst", i+1)
		}
	}
	if l.Allow("progress") {
		t.Error("4th event should be rejected (burst cap)")
	}
}

func TestAllow_ZeroRate(t *testing.T) {
	l := NewLimiter(0.0, 2)

	if !l.Allow("progress") || !l.Allow("progress") {
		t.Error("initial burst should be allowed")
	}
	if l.Allow("progress") {
		t.Error("should be rejected with zero rate")
	}
}

func TestTake_CountsSuppressed(t *testing.T) {
	now := time.Now()
	l := NewLimiter(1.0, 1)
	l.nowFunc = func() time.Time { return now }

	if ok, n := l.Take("progress"); !ok || n != 0 {
		t.Fatalf("first Take() = %v, %d; want true, 0", ok, n)
	}
	for i := 0; i < 4; i++ {
		if ok, _ := l.Take("progress"); ok {
			t.Fatalf("Take() %d allowed inside the interval", i)
		}
	}
	if got := l.Suppressed("progress"); got != 4 {
		t.Errorf("Suppressed() = %d, want 4", got)
	}

	now = now.Add(time.Second)
	ok, n := l.Take("progress")
	if !ok || n != 4 {
		t.Errorf("Take() after refill = %v, %d; want true, 4", ok, n)
	}
	if got := l.Suppressed("progress"); got != 0 {
		t.Errorf("Suppressed() after allow = %d, want 0", got)
	}
	if got := l.Suppressed("unknown"); got != 0 {
		t.Errorf("Suppressed(unknown) = %d, want 0", got)
	}
}

func TestAllow_ConcurrentAccess(t *testing.T) {
	now := time.Now()
	l := NewLimiter(1.0, 100)
	l.nowFunc = func() time.Time { return now }

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("concurrent-key")
		}()
	}

	wg.Wait()
	close(allowed)

	allowedCount := 0
	for a := range allowed {
		if a {
			allowedCount++
		}
	}
	if allowedCount != 100 {
		t.Errorf("allowed %d events, want exactly the burst of 100", allowedCount)
	}
	if got := l.Suppressed("concurrent-key"); got != 100 {
		t.Errorf("Suppressed() = %d, want 100", got)
	}
}
