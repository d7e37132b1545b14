package algorithms

import "routefinder/pkg/domain"

// =============================================================================
// Matrix Classification
// =============================================================================
//
// The classifier inspects edge weights once and reports the two facts the
// selector needs:
//
//	OnlyZeroOrOneOffDiagonal - every entry outside the diagonal is 0 or 1
//	HasNegative              - some entry (diagonal included) is negative
//
// Diagonal entries are self-loops. They can only set HasNegative; BFS ignores
// them, so a negative self-loop does not disqualify the unweighted path.
//
// An off-diagonal negative entry settles both flags, so the scan stops there.
// =============================================================================

// Flags is the result of Classify.
type Flags struct {
	OnlyZeroOrOneOffDiagonal bool
	HasNegative              bool
}

// Classify scans the matrix and returns its classification flags.
func Classify(m *domain.Matrix) Flags {
	n := m.Size()
	flags := Flags{OnlyZeroOrOneOffDiagonal: true}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			w := m.At(i, j)

			if i == j {
				if w < 0 {
					flags.HasNegative = true
				}
			} else {
				switch {
				case w < 0:
					return Flags{OnlyZeroOrOneOffDiagonal: false, HasNegative: true}
				case w > 1:
					flags.OnlyZeroOrOneOffDiagonal = false
				}
			}

			if !flags.OnlyZeroOrOneOffDiagonal && flags.HasNegative {
				return flags
			}
		}
	}

	return flags
}

// hasNegativeEdge reports a negative entry outside the diagonal. Unlike
// Flags.HasNegative it ignores self-loops, which Dijkstra zeroes anyway.
func hasNegativeEdge(m *domain.Matrix) bool {
	n := m.Size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && m.At(i, j) < 0 {
				return true
			}
		}
	}
	return false
}
