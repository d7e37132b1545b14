package domain

import (
	"reflect"
	"testing"
)

func TestReconstructRoutes(t *testing.T) {
	inf := Infinity
	tests := []struct {
		name      string
		distances []Distance
		preds     []int
		source    int
		maxLength int64
		expected  []RouteResult
	}{
		{
			name:      "chain",
			distances: []Distance{Finite(0), Finite(1), Finite(2)},
			preds:     []int{NoVertex, 0, 1},
			source:    0,
			maxLength: 10,
			expected: []RouteResult{
				{Vertex: 1, Distance: Finite(1), Route: []int{0, 1}},
				{Vertex: 2, Distance: Finite(2), Route: []int{0, 1, 2}},
			},
		},
		{
			name:      "unreachable skipped",
			distances: []Distance{inf, Finite(0), inf},
			preds:     []int{NoVertex, NoVertex, NoVertex},
			source:    1,
			maxLength: 10,
			expected:  []RouteResult{},
		},
		{
			name:      "max length inclusive",
			distances: []Distance{Finite(0), Finite(5), Finite(6)},
			preds:     []int{NoVertex, 0, 0},
			source:    0,
			maxLength: 5,
			expected: []RouteResult{
				{Vertex: 1, Distance: Finite(5), Route: []int{0, 1}},
			},
		},
		{
			name:      "poisoned vertex ignores max length",
			distances: []Distance{Finite(-1), NegativeInfinity},
			preds:     []int{1, 0},
			source:    0,
			maxLength: -100,
			expected: []RouteResult{
				{Vertex: 1, Distance: NegativeInfinity, Route: []int{1}},
			},
		},
		{
			name:      "poisoned source is reported",
			distances: []Distance{NegativeInfinity, Finite(3)},
			preds:     []int{1, 0},
			source:    0,
			maxLength: 10,
			expected: []RouteResult{
				{Vertex: 0, Distance: NegativeInfinity, Route: []int{0}},
				{Vertex: 1, Distance: Finite(3), Route: []int{0, 1}},
			},
		},
		{
			name:      "predecessor cycle truncates",
			distances: []Distance{Finite(0), Finite(-5), Finite(-6)},
			preds:     []int{NoVertex, 2, 1},
			source:    0,
			maxLength: 0,
			expected: []RouteResult{
				{Vertex: 1, Distance: Finite(-5), Route: []int{1}},
				{Vertex: 2, Distance: Finite(-6), Route: []int{2}},
			},
		},
		{
			name:      "broken chain truncates",
			distances: []Distance{Finite(0), Finite(2)},
			preds:     []int{NoVertex, NoVertex},
			source:    0,
			maxLength: 5,
			expected: []RouteResult{
				{Vertex: 1, Distance: Finite(2), Route: []int{1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconstructRoutes(tt.distances, tt.preds, tt.source, tt.maxLength)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ReconstructRoutes() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestRouteResult_Flags(t *testing.T) {
	poisoned := RouteResult{Vertex: 1, Distance: NegativeInfinity, Route: []int{1}}
	truncated := RouteResult{Vertex: 2, Distance: Finite(3), Route: []int{2}}
	full := RouteResult{Vertex: 2, Distance: Finite(3), Route: []int{0, 2}}

	if !poisoned.Poisoned() || poisoned.Truncated() {
		t.Error("poisoned flags wrong")
	}
	if truncated.Poisoned() || !truncated.Truncated() {
		t.Error("truncated flags wrong")
	}
	if full.Poisoned() || full.Truncated() {
		t.Error("full route flags wrong")
	}
}

func TestRouteCost(t *testing.T) {
	m := MustMatrix([][]int64{
		{0, 4, 0},
		{0, 0, -1},
		{0, 0, 0},
	})

	if cost, ok := RouteCost(m, []int{0, 1, 2}); !ok || cost != 3 {
		t.Errorf("RouteCost() = %d, %v, want 3, true", cost, ok)
	}
	if cost, ok := RouteCost(m, []int{0}); !ok || cost != 0 {
		t.Errorf("single vertex cost = %d, %v", cost, ok)
	}
	if _, ok := RouteCost(m, []int{0, 2}); ok {
		t.Error("missing edge should report false")
	}
}
