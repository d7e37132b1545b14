// Package algorithms implements the adaptive single-source shortest-path
// solver: matrix classification, the three engines (BFS, Dijkstra,
// Bellman-Ford) and the selector that picks exactly one of them per query.
//
// # Thread Safety
//
// Every function is a pure function of its inputs. domain.Matrix is
// immutable and each call allocates its own buffers, so concurrent queries
// over the same matrix never interfere.
//
// # Determinism
//
// Edges are scanned in row-major order and heap ties are broken by vertex
// index. Running Solve twice on the same input yields identical vectors.
//
// # Example Usage
//
//	m, _ := domain.NewMatrix([][]int64{{0, 4, 0}, {0, 0, 1}, {0, 0, 0}})
//	sol, err := algorithms.Solve(m, 0)
//	if err != nil {
//	    log.Printf("Error: %v", err)
//	}
//	routes := domain.ReconstructRoutes(sol.Distances, sol.Predecessors, 0, 10)
package algorithms

import (
	"fmt"

	"routefinder/pkg/apperror"
	"routefinder/pkg/domain"
)

// Algorithm identifies a shortest-path engine.
type Algorithm int

const (
	AlgorithmUnspecified Algorithm = iota
	AlgorithmBFS
	AlgorithmDijkstra
	AlgorithmBellmanFord
)

// String returns the stable name used in logs, metrics and the wire format.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmBFS:
		return "bfs"
	case AlgorithmDijkstra:
		return "dijkstra"
	case AlgorithmBellmanFord:
		return "bellman_ford"
	default:
		return "unspecified"
	}
}

// ParseAlgorithm is the inverse of Algorithm.String.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "bfs":
		return AlgorithmBFS, nil
	case "dijkstra":
		return AlgorithmDijkstra, nil
	case "bellman_ford":
		return AlgorithmBellmanFord, nil
	default:
		return AlgorithmUnspecified, apperror.NewWithField(apperror.CodeInvalidAlgorithm,
			fmt.Sprintf("unknown algorithm %q", s), "algorithm")
	}
}

// Select applies the dispatch policy, in priority order:
//  1. only 0/1 off the diagonal -> BFS
//  2. no negative entry        -> Dijkstra
//  3. otherwise                -> Bellman-Ford
func Select(flags Flags) Algorithm {
	switch {
	case flags.OnlyZeroOrOneOffDiagonal:
		return AlgorithmBFS
	case !flags.HasNegative:
		return AlgorithmDijkstra
	default:
		return AlgorithmBellmanFord
	}
}

// Solution is the pair of vectors produced by one engine.
type Solution struct {
	Algorithm    Algorithm
	Flags        Flags
	Distances    []domain.Distance
	Predecessors []int

	// Poisoned lists vertices marked -inf. Only Bellman-Ford fills it.
	Poisoned []int
}

// Routes reconstructs routes up to maxRouteLength from this solution.
func (s *Solution) Routes(source int, maxRouteLength int64) []domain.RouteResult {
	return domain.ReconstructRoutes(s.Distances, s.Predecessors, source, maxRouteLength)
}

// Solve classifies the matrix and runs exactly one engine.
// The source must satisfy 0 <= source < n; otherwise an OUT_OF_RANGE_VERTEX
// error is returned and nothing is computed.
func Solve(m *domain.Matrix, source int) (*Solution, error) {
	if m == nil {
		return nil, apperror.ErrNilMatrix
	}
	if !m.Contains(source) {
		return nil, apperror.OutOfRangeVertex(source, 0, m.Size()-1)
	}

	flags := Classify(m)
	return run(Select(flags), flags, m, source)
}

// SolveWith runs a specific engine, bypassing the selector. Dijkstra is
// refused with INVALID_ALGORITHM when the matrix has a negative off-diagonal
// edge: the lazy-deletion queue would keep re-relaxing a negative cycle.
func SolveWith(algo Algorithm, m *domain.Matrix, source int) (*Solution, error) {
	if m == nil {
		return nil, apperror.ErrNilMatrix
	}
	if !m.Contains(source) {
		return nil, apperror.OutOfRangeVertex(source, 0, m.Size()-1)
	}
	if algo == AlgorithmUnspecified {
		return Solve(m, source)
	}
	if algo == AlgorithmDijkstra && hasNegativeEdge(m) {
		return nil, apperror.NewWithField(apperror.CodeInvalidAlgorithm,
			"dijkstra requires non-negative edge weights", "algorithm")
	}
	return run(algo, Classify(m), m, source)
}

func run(algo Algorithm, flags Flags, m *domain.Matrix, source int) (*Solution, error) {
	sol := &Solution{Algorithm: algo, Flags: flags}

	switch algo {
	case AlgorithmBFS:
		sol.Distances, sol.Predecessors = BFS(m, source)
	case AlgorithmDijkstra:
		sol.Distances, sol.Predecessors = Dijkstra(m, source)
	case AlgorithmBellmanFord:
		res := BellmanFord(m, source)
		sol.Distances, sol.Predecessors, sol.Poisoned = res.Distances, res.Predecessors, res.Poisoned
	default:
		return nil, apperror.NewWithField(apperror.CodeInvalidAlgorithm,
			fmt.Sprintf("unknown algorithm %d", algo), "algorithm")
	}

	return sol, nil
}
