package domain

// RouteResult маршрут до одной вершины.
// Route — последовательность от источника до Vertex включительно,
// либо [Vertex], если вершина отравлена или цепочка предшественников зациклена.
type RouteResult struct {
	Vertex   int
	Distance Distance
	Route    []int
}

// Poisoned проверяет, что вершина достижима через отрицательный цикл
func (r RouteResult) Poisoned() bool {
	return r.Distance.IsNegativeInfinite()
}

// Truncated проверяет, что маршрут не удалось восстановить полностью
func (r RouteResult) Truncated() bool {
	return !r.Poisoned() && len(r.Route) == 1
}

// ReconstructRoutes восстанавливает маршруты из векторов расстояний и предшественников.
//
// Вершины с -inf выдаются как (-inf, [i]) без обхода предшественников. Проверка на -inf
// идёт раньше проверки i ≠ source, поэтому отравленный источник тоже попадает в
// результат как (-inf, [source]). Отравление одношаговое: вершины за отравленной
// сохраняют конечное расстояние и восстанавливаются как обычные.
// Остальные вершины i ≠ source с конечным расстоянием не больше maxRouteLength
// разворачиваются по предшественникам. Результат упорядочен по номеру вершины.
func ReconstructRoutes(distances []Distance, predecessors []int, source int, maxRouteLength int64) []RouteResult {
	n := len(distances)
	limit := Finite(maxRouteLength)
	results := make([]RouteResult, 0)

	for i := 0; i < n; i++ {
		d := distances[i]
		switch {
		case d.IsNegativeInfinite():
			results = append(results, RouteResult{Vertex: i, Distance: d, Route: []int{i}})
		case i != source && d.IsFinite() && d.LessOrEqual(limit):
			results = append(results, RouteResult{
				Vertex:   i,
				Distance: d,
				Route:    walkBack(predecessors, source, i),
			})
		}
	}

	return results
}

// walkBack проходит по предшественникам от target к source.
// Если цепочка длиннее n вершин или обрывается, возвращает [target].
func walkBack(predecessors []int, source, target int) []int {
	n := len(predecessors)
	reversed := make([]int, 0, 4)

	for v := target; v != source; v = predecessors[v] {
		if v < 0 || v >= n {
			return []int{target}
		}
		reversed = append(reversed, v)
		if len(reversed) > n {
			return []int{target}
		}
	}
	reversed = append(reversed, source)

	route := make([]int, len(reversed))
	for i, v := range reversed {
		route[len(reversed)-1-i] = v
	}
	return route
}

// RouteCost суммирует веса рёбер маршрута.
// Возвращает false, если какого-то ребра нет в матрице.
func RouteCost(m *Matrix, route []int) (int64, bool) {
	var cost int64
	for i := 0; i+1 < len(route); i++ {
		w := m.At(route[i], route[i+1])
		if w == 0 {
			return 0, false
		}
		cost = saturatingAdd(cost, w)
	}
	return cost, true
}
