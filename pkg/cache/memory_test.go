package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestMemoryCache(t *testing.T, maxEntries int) (*MemoryCache, *time.Time) {
	t.Helper()

	c := NewMemoryCache(&Options{MaxEntries: maxEntries, DefaultTTL: time.Minute, CleanupInterval: time.Hour})
	t.Cleanup(func() { c.Close() })

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCache_SetGet(t *testing.T) {
	c, _ := newTestMemoryCache(t, 10)
	ctx := context.Background()

	value := []byte("routes")
	if err := c.Set(ctx, "k", value, 0); err != nil {
		t.Fatal(err)
	}
	value[0] = 'X'

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "routes" {
		t.Errorf("Get() = %q, stored value must be a copy", got)
	}

	got[0] = 'Y'
	again, _ := c.Get(ctx, "k")
	if string(again) != "routes" {
		t.Errorf("Get() = %q, returned value must be a copy", again)
	}
}

func TestMemoryCache_Overwrite(t *testing.T) {
	c, _ := newTestMemoryCache(t, 10)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("a"), 0)
	_ = c.Set(ctx, "k", []byte("b"), 0)

	got, _ := c.Get(ctx, "k")
	if string(got) != "b" {
		t.Errorf("Get() = %q, want b", got)
	}
	if stats, _ := c.Stats(ctx); stats.TotalKeys != 1 {
		t.Errorf("TotalKeys = %d, want 1", stats.TotalKeys)
	}
}

func TestMemoryCache_NotFound(t *testing.T) {
	c, _ := newTestMemoryCache(t, 10)

	if _, err := c.Get(context.Background(), "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get() error = %v, want ErrKeyNotFound", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, now := newTestMemoryCache(t, 10)
	ctx := context.Background()

	_ = c.Set(ctx, "short", []byte("1"), time.Second)
	_ = c.Set(ctx, "default", []byte("2"), 0)

	*now = now.Add(2 * time.Second)
	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expired key: error = %v, want ErrKeyNotFound", err)
	}
	if _, err := c.Get(ctx, "default"); err != nil {
		t.Errorf("default TTL key expired too early: %v", err)
	}

	*now = now.Add(time.Minute)
	c.removeExpired()
	if stats, _ := c.Stats(ctx); stats.TotalKeys != 0 {
		t.Errorf("TotalKeys = %d after cleanup, want 0", stats.TotalKeys)
	}
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestMemoryCache(t, 2)
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("a"), 0)
	_ = c.Set(ctx, "b", []byte("b"), 0)
	_, _ = c.Get(ctx, "a")
	_ = c.Set(ctx, "c", []byte("c"), 0)

	if _, err := c.Get(ctx, "b"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("b should be evicted, error = %v", err)
	}
	for _, k := range []string{"a", "c"} {
		if _, err := c.Get(ctx, k); err != nil {
			t.Errorf("%s should survive: %v", k, err)
		}
	}
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c, _ := newTestMemoryCache(t, 10)
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("a"), 0)
	_ = c.Set(ctx, "b", []byte("b"), 0)

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete() of a missing key: %v", err)
	}
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("a should be deleted")
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "b"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("b should be cleared")
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c, _ := newTestMemoryCache(t, 10)
	ctx := context.Background()

	_ = c.Set(ctx, "key", []byte("value"), 0)
	_, _ = c.Get(ctx, "key")
	_, _ = c.Get(ctx, "key")
	_, _ = c.Get(ctx, "missing")

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 2/1", stats.Hits, stats.Misses)
	}
	if stats.HitRate < 0.66 || stats.HitRate > 0.67 {
		t.Errorf("HitRate = %v", stats.HitRate)
	}
	if stats.MemoryBytes != int64(len("key")+len("value")) {
		t.Errorf("MemoryBytes = %d", stats.MemoryBytes)
	}
	if stats.Backend != BackendMemory {
		t.Errorf("Backend = %s", stats.Backend)
	}
}
