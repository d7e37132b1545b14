package domain

import (
	"math"
	"strconv"
)

// distanceKind тег значения расстояния
type distanceKind uint8

const (
	kindFinite distanceKind = iota
	kindPosInf
	kindNegInf
)

// Distance расстояние до вершины: конечное число, +inf или -inf.
// Нулевое значение — конечный ноль.
type Distance struct {
	kind  distanceKind
	value int64
}

// Метки бесконечностей для вывода
const (
	InfinityLabel         = "INF"
	NegativeInfinityLabel = "-INF"
)

var (
	// Infinity недостижимая вершина
	Infinity = Distance{kind: kindPosInf}
	// NegativeInfinity вершина, отравленная отрицательным циклом
	NegativeInfinity = Distance{kind: kindNegInf}
)

// Finite создаёт конечное расстояние
func Finite(v int64) Distance {
	return Distance{kind: kindFinite, value: v}
}

// IsFinite проверяет, конечно ли расстояние
func (d Distance) IsFinite() bool { return d.kind == kindFinite }

// IsInfinite проверяет +inf
func (d Distance) IsInfinite() bool { return d.kind == kindPosInf }

// IsNegativeInfinite проверяет -inf
func (d Distance) IsNegativeInfinite() bool { return d.kind == kindNegInf }

// Value возвращает конечное значение. Для бесконечностей возвращает
// насыщенные границы int64.
func (d Distance) Value() int64 {
	switch d.kind {
	case kindPosInf:
		return math.MaxInt64
	case kindNegInf:
		return math.MinInt64
	default:
		return d.value
	}
}

// Add прибавляет конечную стоимость ребра.
// +inf + x = +inf, -inf + x = -inf, переполнение насыщается.
func (d Distance) Add(cost int64) Distance {
	if d.kind != kindFinite {
		return d
	}
	return Finite(saturatingAdd(d.value, cost))
}

// Less строгий порядок: -inf < конечные < +inf
func (d Distance) Less(other Distance) bool {
	if d.kind == other.kind {
		return d.kind == kindFinite && d.value < other.value
	}
	return d.rank() < other.rank()
}

// LessOrEqual нестрогий порядок
func (d Distance) LessOrEqual(other Distance) bool {
	return !other.Less(d)
}

// Equal сравнивает два расстояния
func (d Distance) Equal(other Distance) bool {
	return d == other
}

// Clamp переводит насыщенные конечные значения в бесконечности.
// Используется только для вывода.
func (d Distance) Clamp() Distance {
	if d.kind != kindFinite {
		return d
	}
	switch d.value {
	case math.MaxInt64:
		return Infinity
	case math.MinInt64:
		return NegativeInfinity
	}
	return d
}

// String форматирует расстояние: число, INF или -INF
func (d Distance) String() string {
	c := d.Clamp()
	switch c.kind {
	case kindPosInf:
		return InfinityLabel
	case kindNegInf:
		return NegativeInfinityLabel
	default:
		return strconv.FormatInt(c.value, 10)
	}
}

// ParseDistance разбирает результат String
func ParseDistance(s string) (Distance, error) {
	switch s {
	case InfinityLabel:
		return Infinity, nil
	case NegativeInfinityLabel:
		return NegativeInfinity, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Distance{}, err
	}
	return Finite(v), nil
}

func (d Distance) rank() int {
	switch d.kind {
	case kindNegInf:
		return 0
	case kindPosInf:
		return 2
	default:
		return 1
	}
}

func saturatingAdd(a, b int64) int64 {
	sum := a + b
	switch {
	case a > 0 && b > 0 && sum < 0:
		return math.MaxInt64
	case a < 0 && b < 0 && sum >= 0:
		return math.MinInt64
	}
	return sum
}
