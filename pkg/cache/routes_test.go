package cache

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"routefinder/pkg/domain"
)

func newTestRouteCache(t *testing.T) (*RouteCache, *MemoryCache) {
	t.Helper()

	mc := NewMemoryCache(&Options{MaxEntries: 10, DefaultTTL: time.Minute, CleanupInterval: time.Hour})
	rc := NewRouteCache(mc, time.Minute)
	t.Cleanup(func() { rc.Close() })
	return rc, mc
}

func TestRouteCache_SetGet(t *testing.T) {
	rc, _ := newTestRouteCache(t)
	ctx := context.Background()
	m := domain.MustMatrix([][]int64{{0, 1}, {0, 0}})

	if _, ok, err := rc.Get(ctx, m, 0, 10); err != nil || ok {
		t.Fatalf("Get() on empty cache = %v, %v", ok, err)
	}

	in := &CachedRoutes{
		Algorithm:                "bfs",
		OnlyZeroOrOneOffDiagonal: true,
		Routes:                   []CachedRoute{{Vertex: 1, Distance: "1", Route: []int{0, 1}}},
		Stats:                    domain.ComputeStats(m),
	}
	if err := rc.Set(ctx, m, 0, 10, in); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if in.ComputedAt.IsZero() {
		t.Error("Set() must stamp ComputedAt")
	}

	got, ok, err := rc.Get(ctx, m, 0, 10)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if got.Algorithm != "bfs" || !got.OnlyZeroOrOneOffDiagonal || got.HasNegative {
		t.Errorf("Get() = %+v", got)
	}
	if !reflect.DeepEqual(got.Routes, in.Routes) {
		t.Errorf("Routes = %+v, want %+v", got.Routes, in.Routes)
	}
	if got.Stats != in.Stats {
		t.Errorf("Stats = %+v, want %+v", got.Stats, in.Stats)
	}

	if _, ok, _ := rc.Get(ctx, m, 0, 5); ok {
		t.Error("different max route length must miss")
	}

	if err := rc.Invalidate(ctx, m, 0, 10); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := rc.Get(ctx, m, 0, 10); ok {
		t.Error("invalidated entry must miss")
	}
}

func TestRouteCache_CorruptedEntry(t *testing.T) {
	rc, mc := newTestRouteCache(t)
	ctx := context.Background()
	m := domain.MustMatrix([][]int64{{0}})
	key := RouteKey(MatrixHash(m), 0, 1)

	if err := mc.Set(ctx, key, []byte("{not json"), 0); err != nil {
		t.Fatal(err)
	}

	_, ok, err := rc.Get(ctx, m, 0, 1)
	if err != nil || ok {
		t.Fatalf("Get() = %v, %v; corrupted entry must be a miss", ok, err)
	}
	if _, err := mc.Get(ctx, key); err != ErrKeyNotFound {
		t.Error("corrupted entry must be removed")
	}
}

func TestRouteCache_Closed(t *testing.T) {
	mc := NewMemoryCache(nil)
	rc := NewRouteCache(mc, 0)
	rc.Close()

	_, _, err := rc.Get(context.Background(), domain.MustMatrix([][]int64{{0}}), 0, 1)
	if err != ErrCacheClosed {
		t.Errorf("Get() error = %v, want ErrCacheClosed", err)
	}
}

func TestEncodeDecodeRoutes(t *testing.T) {
	routes := []domain.RouteResult{
		{Vertex: 1, Distance: domain.Finite(-4), Route: []int{0, 1}},
		{Vertex: 2, Distance: domain.NegativeInfinity},
		{Vertex: 3, Distance: domain.Infinity},
		{Vertex: 4, Distance: domain.Finite(math.MaxInt64 - 1), Route: []int{0, 4}},
	}

	encoded := EncodeRoutes(routes)
	wantDistances := []string{"-4", "-INF", "INF", "9223372036854775806"}
	for i, want := range wantDistances {
		if encoded[i].Distance != want {
			t.Errorf("encoded[%d].Distance = %s, want %s", i, encoded[i].Distance, want)
		}
	}

	decoded, err := DecodeRoutes(encoded)
	if err != nil {
		t.Fatalf("DecodeRoutes() error = %v", err)
	}
	if !reflect.DeepEqual(decoded, routes) {
		t.Errorf("DecodeRoutes() = %+v, want %+v", decoded, routes)
	}
}

func TestDecodeRoutes_BadDistance(t *testing.T) {
	_, err := DecodeRoutes([]CachedRoute{{Vertex: 1, Distance: "far"}})
	if err == nil {
		t.Error("expected error for bad distance")
	}
}
