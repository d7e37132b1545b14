package algorithms

import (
	"container/heap"

	"routefinder/pkg/domain"
)

// =============================================================================
// Dijkstra's Algorithm
// =============================================================================
//
// Dijkstra's algorithm finds the shortest paths from a single source vertex to
// all other vertices when every edge weight is non-negative.
//
// Cost table:
//   - the diagonal is forced to 0, so self-loops never contribute
//   - an off-diagonal 0 means "no edge" (+inf)
//
// The heap has no decrease-key. A vertex may be pushed several times and
// entries whose distance is worse than the recorded best are skipped on pop
// (lazy deletion).
//
// Time Complexity: O(V^2 log V) on an adjacency matrix
// Space Complexity: O(V^2) heap entries in the worst case
//
// Precondition: all weights >= 0. The selector guarantees it; it is not
// re-checked here.
//
// References:
//   - Dijkstra, E. W. (1959). "A note on two problems in connexion with graphs"
// =============================================================================

// priorityQueueItem represents an element in the priority queue.
type priorityQueueItem struct {
	vertex   int
	distance domain.Distance
}

// priorityQueue implements heap.Interface.
// It is a min-heap on distance with ties broken by vertex index for determinism.
type priorityQueue []priorityQueueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if !pq[i].distance.Equal(pq[j].distance) {
		return pq[i].distance.Less(pq[j].distance)
	}
	return pq[i].vertex < pq[j].vertex
}

func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(priorityQueueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// Dijkstra computes shortest-cost distances and predecessors from source.
func Dijkstra(m *domain.Matrix, source int) ([]domain.Distance, []int) {
	n := m.Size()
	dist, parent := newVectors(n)
	dist[source] = domain.Finite(0)

	pq := make(priorityQueue, 0, n)
	heap.Push(&pq, priorityQueueItem{vertex: source, distance: dist[source]})

	for pq.Len() > 0 {
		current := heap.Pop(&pq).(priorityQueueItem)
		u := current.vertex

		// Skip stale entries
		if dist[u].Less(current.distance) {
			continue
		}

		for v := 0; v < n; v++ {
			w := m.At(u, v)
			if v == u || w == 0 {
				continue
			}

			candidate := dist[u].Add(w)
			if candidate.Less(dist[v]) {
				dist[v] = candidate
				parent[v] = u
				heap.Push(&pq, priorityQueueItem{vertex: v, distance: candidate})
			}
		}
	}

	return dist, parent
}
