package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type panel struct {
	Verdict string  `json:"verdict"`
	Value   float64 `json:"value"`
}

func newTestCache(t *testing.T, opts ...MemoryOption) *MemoryCache {
	t.Helper()
	mc := NewMemoryCache(opts...)
	t.Cleanup(func() { _ = mc.Close() })
	return mc
}

func TestMemoryCacheRoundTripsJSON(t *testing.T) {
	ctx := context.Background()
	mc := newTestCache(t)

	if err := mc.Set(ctx, "p", panel{Verdict: "anomaly", Value: 500}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got panel
	if err := mc.Get(ctx, "p", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Verdict != "anomaly" || got.Value != 500 {
		t.Fatalf("unexpected value %+v", got)
	}

	var miss panel
	if err := mc.Get(ctx, "absent", &miss); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	if err := mc.Delete(ctx, "p"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := mc.Exists(ctx, "p"); ok {
		t.Fatalf("deleted key still exists")
	}
}

func TestMemoryCacheIncrementReadsBackAsInt(t *testing.T) {
	ctx := context.Background()
	mc := newTestCache(t)

	for want := int64(1); want <= 3; want++ {
		got, err := mc.Increment(ctx, "gen")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
	var n int64
	if err := mc.Get(ctx, "gen", &n); err != nil {
		t.Fatalf("get: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}

	_ = mc.Set(ctx, "text", "hello", 0)
	if _, err := mc.Increment(ctx, "text"); err == nil {
		t.Fatalf("expected error incrementing non-integer")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc := newTestCache(t)
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	_ = mc.Set(ctx, "k", "v", time.Second)
	if ok, _ := mc.Exists(ctx, "k"); !ok {
		t.Fatalf("expected key to exist")
	}
	now = now.Add(2 * time.Second)
	if ok, _ := mc.Exists(ctx, "k"); ok {
		t.Fatalf("expected key to expire")
	}

	_ = mc.Set(ctx, "k2", "v", time.Second)
	if ok, _ := mc.Expire(ctx, "k2", time.Hour); !ok {
		t.Fatalf("expected expire to find key")
	}
	now = now.Add(time.Minute)
	var s string
	if err := mc.Get(ctx, "k2", &s); err != nil || s != "v" {
		t.Fatalf("expected extended key, got %q %v", s, err)
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := newTestCache(t, WithMemoryMaxSize(2))
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	_ = mc.Set(ctx, "a", "1", 0)
	now = now.Add(time.Second)
	_ = mc.Set(ctx, "b", "2", 0)
	now = now.Add(time.Second)
	var s string
	_ = mc.Get(ctx, "a", &s) // a is now the most recent
	now = now.Add(time.Second)
	_ = mc.Set(ctx, "c", "3", 0)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if ok, _ := mc.Exists(ctx, "a", "c"); !ok {
		t.Fatalf("expected a and c to remain")
	}
	if mc.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", mc.Len())
	}
}
