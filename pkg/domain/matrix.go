package domain

import (
	"fmt"

	"routefinder/pkg/apperror"
)

// NoVertex отсутствие предшественника
const NoVertex = -1

// Edge ориентированное ребро матрицы смежности
type Edge struct {
	From int
	To   int
	Cost int64
}

// String форматирует ребро
func (e Edge) String() string {
	return fmt.Sprintf("%d->%d(%d)", e.From, e.To, e.Cost)
}

// IsSelfLoop проверяет петлю
func (e Edge) IsSelfLoop() bool {
	return e.From == e.To
}

// Matrix неизменяемая квадратная матрица смежности n×n.
// Элемент (i,j), i≠j — вес ребра i→j, 0 — отсутствие ребра.
// Диагональ хранит веса петель.
type Matrix struct {
	n     int
	cells []int64
}

// NewMatrix создаёт матрицу из строк. Строки копируются.
func NewMatrix(rows [][]int64) (*Matrix, error) {
	n := len(rows)
	if n == 0 {
		return nil, apperror.New(apperror.CodeMatrixNotFound, "no numbers found")
	}

	cells := make([]int64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, apperror.New(apperror.CodeMalformedInput,
				fmt.Sprintf("row %d has %d values, matrix must be %dx%d", i+1, len(row), n, n))
		}
		cells = append(cells, row...)
	}

	return &Matrix{n: n, cells: cells}, nil
}

// MatrixFromValues создаёт матрицу из плоского списка значений.
// Количество значений должно быть полным квадратом.
func MatrixFromValues(values []int64) (*Matrix, error) {
	if len(values) == 0 {
		return nil, apperror.New(apperror.CodeMatrixNotFound, "no numbers found")
	}

	n := isqrt(len(values))
	if n*n != len(values) {
		return nil, apperror.New(apperror.CodeMalformedInput,
			"count of numbers must be a square of an integer").
			WithDetails("count", len(values))
	}

	cells := make([]int64, len(values))
	copy(cells, values)
	return &Matrix{n: n, cells: cells}, nil
}

// MustMatrix паникует при ошибке, используется в тестах и фикстурах
func MustMatrix(rows [][]int64) *Matrix {
	m, err := NewMatrix(rows)
	if err != nil {
		panic(err)
	}
	return m
}

// Size возвращает количество вершин
func (m *Matrix) Size() int {
	return m.n
}

// At возвращает элемент (i, j)
func (m *Matrix) At(i, j int) int64 {
	return m.cells[i*m.n+j]
}

// Contains проверяет, что v — вершина матрицы
func (m *Matrix) Contains(v int) bool {
	return v >= 0 && v < m.n
}

// Rows возвращает копию строк матрицы
func (m *Matrix) Rows() [][]int64 {
	rows := make([][]int64, m.n)
	for i := range rows {
		rows[i] = make([]int64, m.n)
		copy(rows[i], m.cells[i*m.n:(i+1)*m.n])
	}
	return rows
}

// Values возвращает копию элементов построчно
func (m *Matrix) Values() []int64 {
	values := make([]int64, len(m.cells))
	copy(values, m.cells)
	return values
}

// Edges возвращает все ненулевые элементы как рёбра, включая петли.
// Порядок — построчный.
func (m *Matrix) Edges() []Edge {
	edges := make([]Edge, 0, m.n)
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			if c := m.At(i, j); c != 0 {
				edges = append(edges, Edge{From: i, To: j, Cost: c})
			}
		}
	}
	return edges
}

// Equal сравнивает матрицы поэлементно
func (m *Matrix) Equal(other *Matrix) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.n != other.n {
		return false
	}
	for i := range m.cells {
		if m.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// isqrt целочисленный квадратный корень
func isqrt(x int) int {
	if x < 2 {
		return x
	}
	lo, hi := 1, x
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if mid <= x/mid {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
