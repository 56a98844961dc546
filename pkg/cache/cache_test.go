package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type selection struct {
	Codes []string `json:"codes"`
}

func newTestMemory(opts ...MemoryOption) (*MemoryCache, *time.Time) {
	mc := NewMemoryCache(append([]MemoryOption{WithMemoryCleanup(0)}, opts...)...)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	return mc, &now
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory()
	defer mc.Close()

	if err := mc.Set(ctx, "sel", selection{Codes: []string{"dolar", "euro"}}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := GetTyped[selection](ctx, mc, "sel")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Codes) != 2 || got.Codes[1] != "euro" {
		t.Fatalf("unexpected %+v", got)
	}

	if err := mc.Set(ctx, "raw", "plain", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var s string
	if err := mc.Get(ctx, "raw", &s); err != nil || s != "plain" {
		t.Fatalf("get raw: %q %v", s, err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestMemory()
	defer mc.Close()

	_ = mc.Set(ctx, "k", "v", time.Minute)
	*now = now.Add(30 * time.Second)
	if ok, _ := mc.Expire(ctx, "k", time.Minute); !ok {
		t.Fatalf("expire should extend a live key")
	}
	*now = now.Add(45 * time.Second)
	if ok, _ := mc.Exists(ctx, "k"); !ok {
		t.Fatalf("key should still be alive after extension")
	}
	*now = now.Add(time.Minute)

	var s string
	if err := mc.Get(ctx, "k", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if mc.Len() != 0 {
		t.Fatalf("expired key not removed on read")
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestMemory(WithMemoryMaxSize(2))
	defer mc.Close()

	_ = mc.Set(ctx, "a", "1", time.Hour)
	*now = now.Add(time.Second)
	_ = mc.Set(ctx, "b", "2", time.Hour)
	*now = now.Add(time.Second)
	var s string
	_ = mc.Get(ctx, "a", &s) // a is now more recent than b
	*now = now.Add(time.Second)
	_ = mc.Set(ctx, "c", "3", time.Hour)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if ok, _ := mc.Exists(ctx, "a", "c"); !ok {
		t.Fatalf("a and c should remain")
	}
}

func TestLayeredCacheReadsThroughToRemote(t *testing.T) {
	ctx := context.Background()
	remote, _ := newTestMemory()
	lc := NewLayeredCache(remote, WithLayeredMemoryTTL(time.Second))
	defer lc.Close()

	_ = remote.Set(ctx, "k", "from-remote", time.Hour)

	var s string
	if err := lc.Get(ctx, "k", &s); err != nil || s != "from-remote" {
		t.Fatalf("read-through: %q %v", s, err)
	}
	// L1 now holds the raw value, not a JSON-quoted copy.
	s = ""
	if err := lc.memCache.Get(ctx, "k", &s); err != nil || s != "from-remote" {
		t.Fatalf("l1 copy: %q %v", s, err)
	}

	if err := lc.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := lc.Get(ctx, "k", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}
