package algorithms

import "routefinder/pkg/domain"

// =============================================================================
// Bellman-Ford Algorithm
// =============================================================================
//
// Bellman-Ford handles arbitrary-sign weights and flags vertices reachable
// through a negative cycle.
//
// Edges are every non-zero matrix entry, self-loops included.
//
// Algorithm:
//  1. dist[source] = 0, dist[v] = +inf for all v != source
//  2. Repeat V-1 times: relax all edges. An edge whose tail is +inf is
//     never relaxed, and sums saturate instead of wrapping.
//  3. Detection pass against the converged distances: the head of every
//     edge that can still be relaxed becomes -inf and takes the edge's tail
//     as its predecessor.
//
// Poisoning is one hop deep. Only heads of edges that are still relaxable
// after step 2 are marked; vertices further downstream of a poisoned vertex
// keep their finite distance. Their predecessor chains may then loop, which
// route reconstruction detects and truncates.
//
// Time Complexity: O(V * E)
// Space Complexity: O(V + E)
//
// References:
//   - Bellman, R. (1958). "On a routing problem"
//   - Ford, L.R. (1956). "Network Flow Theory"
// =============================================================================

// BellmanFordResult is the output of BellmanFord.
type BellmanFordResult struct {
	Distances    []domain.Distance
	Predecessors []int

	// Poisoned lists the vertices marked -inf by the detection pass, ascending.
	Poisoned []int
}

// HasNegativeCycle reports whether the detection pass poisoned any vertex.
func (r *BellmanFordResult) HasNegativeCycle() bool {
	return len(r.Poisoned) > 0
}

// BellmanFord computes distances and predecessors from source.
func BellmanFord(m *domain.Matrix, source int) *BellmanFordResult {
	n := m.Size()
	edges := m.Edges()
	dist, parent := newVectors(n)
	dist[source] = domain.Finite(0)

	for pass := 1; pass < n; pass++ {
		for _, e := range edges {
			if !dist[e.From].IsFinite() {
				continue
			}
			if candidate := dist[e.From].Add(e.Cost); candidate.Less(dist[e.To]) {
				dist[e.To] = candidate
				parent[e.To] = e.From
			}
		}
	}

	converged := make([]domain.Distance, n)
	copy(converged, dist)

	poisoned := make([]bool, n)
	for _, e := range edges {
		if !converged[e.From].IsFinite() {
			continue
		}
		if converged[e.From].Add(e.Cost).Less(converged[e.To]) {
			dist[e.To] = domain.NegativeInfinity
			parent[e.To] = e.From
			poisoned[e.To] = true
		}
	}

	result := &BellmanFordResult{Distances: dist, Predecessors: parent}
	for v, p := range poisoned {
		if p {
			result.Poisoned = append(result.Poisoned, v)
		}
	}
	return result
}
