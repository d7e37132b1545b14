package algorithms

import (
	"fmt"
	"testing"

	"routefinder/pkg/domain"
)

func BenchmarkBFS(b *testing.B) {
	for _, size := range []int{100, 500, 1000} {
		b.Run(fmt.Sprintf("vertices_%d", size), func(b *testing.B) {
			m := generateChainMatrix(size, 1)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				BFS(m, 0)
			}
		})
	}
}

func BenchmarkDijkstra(b *testing.B) {
	for _, size := range []int{100, 500, 1000} {
		b.Run(fmt.Sprintf("vertices_%d", size), func(b *testing.B) {
			m := generateDenseMatrix(size, false)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				Dijkstra(m, 0)
			}
		})
	}
}

func BenchmarkBellmanFord(b *testing.B) {
	for _, size := range []int{50, 100, 200} {
		b.Run(fmt.Sprintf("vertices_%d", size), func(b *testing.B) {
			m := generateDenseMatrix(size, true)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				BellmanFord(m, 0)
			}
		})
	}
}

func BenchmarkClassify(b *testing.B) {
	m := generateDenseMatrix(1000, true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Classify(m)
	}
}

func BenchmarkSolve(b *testing.B) {
	m := generateDenseMatrix(500, false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sol, _ := Solve(m, 0)
		sol.Routes(0, 100)
	}
}

// Helper functions

func generateChainMatrix(n int, weight int64) *domain.Matrix {
	rows := make([][]int64, n)
	for i := range rows {
		rows[i] = make([]int64, n)
		if i+1 < n {
			rows[i][i+1] = weight
		}
	}
	return domain.MustMatrix(rows)
}

// generateDenseMatrix связывает каждую вершину с десятью следующими.
// При negative часть рёбер отрицательна, но циклов нет: рёбра идут только вперёд.
func generateDenseMatrix(n int, negative bool) *domain.Matrix {
	rows := make([][]int64, n)
	for i := range rows {
		rows[i] = make([]int64, n)
		for j := i + 1; j < n && j <= i+10; j++ {
			w := int64((i*7+j*3)%20 + 2)
			if negative && (i+j)%5 == 0 {
				w = -w
			}
			rows[i][j] = w
		}
	}
	return domain.MustMatrix(rows)
}
