package algorithms

import "routefinder/pkg/domain"

// =============================================================================
// Breadth-First Search (unweighted)
// =============================================================================
//
// Any non-zero off-diagonal entry (u, v) is an unweighted edge u -> v. The
// magnitude is ignored, and so are self-loops.
//
// Level-order traversal from the source gives minimal hop counts. A vertex is
// discovered at most once and the first discovery wins.
//
// Time Complexity: O(V^2) on an adjacency matrix
// Space Complexity: O(V)
// =============================================================================

// BFS computes hop-count distances and predecessors from source.
// Unreached vertices keep domain.Infinity and domain.NoVertex.
func BFS(m *domain.Matrix, source int) ([]domain.Distance, []int) {
	n := m.Size()
	dist, parent := newVectors(n)

	visited := make([]bool, n)
	visited[source] = true
	dist[source] = domain.Finite(0)

	queue := make([]int, 0, n)
	queue = append(queue, source)

	for head := 0; head < len(queue); head++ {
		u := queue[head]
		for v := 0; v < n; v++ {
			if v == u || visited[v] || m.At(u, v) == 0 {
				continue
			}
			visited[v] = true
			dist[v] = dist[u].Add(1)
			parent[v] = u
			queue = append(queue, v)
		}
	}

	return dist, parent
}

// newVectors allocates distance and predecessor vectors in their unreached state.
func newVectors(n int) ([]domain.Distance, []int) {
	dist := make([]domain.Distance, n)
	parent := make([]int, n)
	for i := range dist {
		dist[i] = domain.Infinity
		parent[i] = domain.NoVertex
	}
	return dist, parent
}
