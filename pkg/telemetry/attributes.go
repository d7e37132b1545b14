package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Матрица
	AttrMatrixVertices = "matrix.vertices"
	AttrMatrixEdges    = "matrix.edges"
	AttrMatrixNegative = "matrix.negative_edges"

	// Запрос
	AttrSource         = "route.source"
	AttrMaxRouteLength = "route.max_length"
	AttrRoutesFound    = "route.routes_found"
	AttrPoisoned       = "route.poisoned_vertices"
	AttrCacheHit       = "route.cache_hit"

	// Алгоритм
	AttrAlgorithm   = "algorithm.name"
	AttrOnlyUnit    = "algorithm.only_zero_or_one"
	AttrHasNegative = "algorithm.has_negative"

	// Экспорт
	AttrExportFormat = "export.format"
)

// MatrixAttributes возвращает атрибуты матрицы
func MatrixAttributes(vertices, edges, negative int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrMatrixVertices, vertices),
		attribute.Int(AttrMatrixEdges, edges),
		attribute.Int(AttrMatrixNegative, negative),
	}
}

// QueryAttributes возвращает атрибуты запроса маршрутов
func QueryAttributes(source int, maxRouteLength int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrSource, source),
		attribute.Int64(AttrMaxRouteLength, maxRouteLength),
	}
}

// AlgorithmAttributes возвращает атрибуты выбранного алгоритма
func AlgorithmAttributes(name string, onlyUnit, hasNegative bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAlgorithm, name),
		attribute.Bool(AttrOnlyUnit, onlyUnit),
		attribute.Bool(AttrHasNegative, hasNegative),
	}
}

// ResultAttributes возвращает атрибуты результата
func ResultAttributes(routes, poisoned int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrRoutesFound, routes),
		attribute.Int(AttrPoisoned, poisoned),
	}
}
