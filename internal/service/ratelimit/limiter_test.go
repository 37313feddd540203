package ratelimit

import (
	"testing"
	"time"
)

func TestAllowHonoursBurstPerKey(t *testing.T) {
	l := New(1, 2)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("burst of 2 should pass")
	}
	if l.Allow("a") {
		t.Fatalf("third request within the same instant must be limited")
	}
	if !l.Allow("b") {
		t.Fatalf("keys must not share a bucket")
	}

	clock = clock.Add(time.Second)
	if !l.Allow("a") {
		t.Fatalf("bucket should refill after one second")
	}
}

func TestSweepDropsIdleKeys(t *testing.T) {
	l := New(1, 1)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.Allow("old")
	clock = clock.Add(11 * time.Minute)
	l.Allow("new")

	if n := l.Sweep(); n != 1 {
		t.Fatalf("expected 1 bucket left, got %d", n)
	}
}
