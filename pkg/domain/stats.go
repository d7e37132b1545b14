package domain

import "math"

// MatrixStats статистика матрицы смежности
type MatrixStats struct {
	VertexCount   int
	EdgeCount     int
	SelfLoopCount int
	NegativeCount int
	MinWeight     int64
	MaxWeight     int64
	Density       float64
	IsSymmetric   bool
}

// ComputeStats вычисляет статистику матрицы.
// Петли не учитываются в плотности.
func ComputeStats(m *Matrix) MatrixStats {
	n := m.Size()
	stats := MatrixStats{
		VertexCount: n,
		MinWeight:   math.MaxInt64,
		MaxWeight:   math.MinInt64,
		IsSymmetric: true,
	}

	offDiagonal := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			w := m.At(i, j)
			if w != m.At(j, i) {
				stats.IsSymmetric = false
			}
			if w == 0 {
				continue
			}

			stats.EdgeCount++
			if i == j {
				stats.SelfLoopCount++
			} else {
				offDiagonal++
			}
			if w < 0 {
				stats.NegativeCount++
			}
			stats.MinWeight = min(stats.MinWeight, w)
			stats.MaxWeight = max(stats.MaxWeight, w)
		}
	}

	if stats.EdgeCount == 0 {
		stats.MinWeight, stats.MaxWeight = 0, 0
	}
	if n > 1 {
		stats.Density = float64(offDiagonal) / float64(n*(n-1))
	}

	return stats
}
