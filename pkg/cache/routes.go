package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"routefinder/pkg/domain"
)

// RouteCache хранит результаты FindRoutes в JSON поверх Cache
type RouteCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedRoutes кэшированный результат запроса
type CachedRoutes struct {
	Algorithm                string             `json:"algorithm"`
	OnlyZeroOrOneOffDiagonal bool               `json:"only_zero_or_one_off_diagonal"`
	HasNegative              bool               `json:"has_negative"`
	Routes                   []CachedRoute      `json:"routes"`
	Poisoned                 []int              `json:"poisoned,omitempty"`
	Stats                    domain.MatrixStats `json:"stats"`
	ComputedAt               time.Time          `json:"computed_at"`
}

// CachedRoute маршрут до одной вершины. Distance - число, "INF" или "-INF".
type CachedRoute struct {
	Vertex   int    `json:"vertex"`
	Distance string `json:"distance"`
	Route    []int  `json:"route"`
}

// NewRouteCache создаёт кэш маршрутов
func NewRouteCache(c Cache, defaultTTL time.Duration) *RouteCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &RouteCache{cache: c, defaultTTL: defaultTTL}
}

// Get возвращает результат для (m, source, maxRouteLength), если он есть
func (rc *RouteCache) Get(ctx context.Context, m *domain.Matrix, source int, maxRouteLength int64) (*CachedRoutes, bool, error) {
	key := RouteKey(MatrixHash(m), source, maxRouteLength)

	data, err := rc.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedRoutes
	if err := json.Unmarshal(data, &result); err != nil {
		// повреждённая запись считается промахом
		_ = rc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}
	return &result, true, nil
}

// Set сохраняет результат с TTL по умолчанию
func (rc *RouteCache) Set(ctx context.Context, m *domain.Matrix, source int, maxRouteLength int64, result *CachedRoutes) error {
	result.ComputedAt = time.Now()

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return rc.cache.Set(ctx, RouteKey(MatrixHash(m), source, maxRouteLength), data, rc.defaultTTL)
}

// Invalidate удаляет один результат
func (rc *RouteCache) Invalidate(ctx context.Context, m *domain.Matrix, source int, maxRouteLength int64) error {
	return rc.cache.Delete(ctx, RouteKey(MatrixHash(m), source, maxRouteLength))
}

// Stats статистика нижележащего кэша
func (rc *RouteCache) Stats(ctx context.Context) (*Stats, error) {
	return rc.cache.Stats(ctx)
}

// Close закрывает нижележащий кэш
func (rc *RouteCache) Close() error {
	return rc.cache.Close()
}

// EncodeRoutes переводит маршруты в кэшируемый вид
func EncodeRoutes(routes []domain.RouteResult) []CachedRoute {
	out := make([]CachedRoute, len(routes))
	for i, r := range routes {
		out[i] = CachedRoute{Vertex: r.Vertex, Distance: encodeDistance(r.Distance), Route: r.Route}
	}
	return out
}

// DecodeRoutes обратное к EncodeRoutes
func DecodeRoutes(cached []CachedRoute) ([]domain.RouteResult, error) {
	out := make([]domain.RouteResult, len(cached))
	for i, c := range cached {
		d, err := domain.ParseDistance(c.Distance)
		if err != nil {
			return nil, fmt.Errorf("cached route to %d: bad distance %q: %w", c.Vertex, c.Distance, err)
		}
		out[i] = domain.RouteResult{Vertex: c.Vertex, Distance: d, Route: c.Route}
	}
	return out, nil
}

// encodeDistance не зажимает конечные значения, чтобы DecodeRoutes вернул то же расстояние
func encodeDistance(d domain.Distance) string {
	if d.IsFinite() {
		return strconv.FormatInt(d.Value(), 10)
	}
	return d.String()
}
