package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routefinder/pkg/domain"
)

func TestDijkstra_Fixture(t *testing.T) {
	m := domain.MustMatrix([][]int64{
		{0, 4, 0},
		{0, 0, 1},
		{0, 0, 0},
	})

	dist, parent := Dijkstra(m, 0)

	assert.Equal(t, distances(0, 4, 5), dist)
	assert.Equal(t, []int{domain.NoVertex, 0, 1}, parent)
}

func TestDijkstra_PrefersCheaperDetour(t *testing.T) {
	m := domain.MustMatrix([][]int64{
		{0, 1, 5},
		{0, 0, 2},
		{0, 0, 0},
	})

	dist, parent := Dijkstra(m, 0)

	assert.Equal(t, domain.Finite(3), dist[2])
	assert.Equal(t, 1, parent[2])
}

func TestDijkstra_StaleEntriesSkipped(t *testing.T) {
	// Vertex 3 is pushed first via 0 -> 3 (10), then improved via 0 -> 1 -> 2 -> 3.
	m := domain.MustMatrix([][]int64{
		{0, 2, 0, 10},
		{0, 0, 2, 0},
		{0, 0, 0, 2},
		{0, 0, 0, 0},
	})

	dist, parent := Dijkstra(m, 0)

	assert.Equal(t, distances(0, 2, 4, 6), dist)
	assert.Equal(t, []int{domain.NoVertex, 0, 1, 2}, parent)
}

func TestDijkstra_DiagonalIgnored(t *testing.T) {
	m := domain.MustMatrix([][]int64{
		{7, 3},
		{0, 9},
	})

	dist, _ := Dijkstra(m, 0)

	assert.Equal(t, distances(0, 3), dist)
}

func TestDijkstra_Unreachable(t *testing.T) {
	m := domain.MustMatrix([][]int64{
		{0, 2, 0},
		{0, 0, 0},
		{3, 0, 0},
	})

	dist, parent := Dijkstra(m, 0)

	require.Len(t, dist, 3)
	assert.True(t, dist[2].IsInfinite())
	assert.Equal(t, domain.NoVertex, parent[2])
}

func TestPriorityQueue_TieBreak(t *testing.T) {
	pq := priorityQueue{
		{vertex: 3, distance: domain.Finite(1)},
		{vertex: 1, distance: domain.Finite(1)},
		{vertex: 2, distance: domain.Finite(0)},
	}

	assert.True(t, pq.Less(2, 0))
	assert.True(t, pq.Less(1, 0))
	assert.False(t, pq.Less(0, 1))
}
