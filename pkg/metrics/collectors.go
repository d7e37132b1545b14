package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// cacheScrapeTimeout ограничивает запрос статистики кэша при scrape
const cacheScrapeTimeout = 2 * time.Second

// CacheSnapshot размер кэша маршрутов на момент scrape
type CacheSnapshot struct {
	Entries     int64
	MemoryBytes int64
}

// CacheStatsFunc читает размер кэша. Для Redis это сетевой вызов.
type CacheStatsFunc func(ctx context.Context) (CacheSnapshot, error)

// CacheCollector отдаёт размер кэша маршрутов при каждом scrape.
// Счётчики попаданий ведёт RecordCacheLookup.
type CacheCollector struct {
	stats   CacheStatsFunc
	entries *prometheus.Desc
	bytes   *prometheus.Desc
	up      *prometheus.Desc
}

// NewCacheCollector создаёт коллектор с метками backend
func NewCacheCollector(namespace, backend string, stats CacheStatsFunc) *CacheCollector {
	labels := prometheus.Labels{"backend": backend}
	return &CacheCollector{
		stats: stats,
		entries: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "routes_cache_entries"),
			"Number of cached FindRoutes results", nil, labels),
		bytes: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "routes_cache_memory_bytes"),
			"Approximate size of cached results (0 for redis)", nil, labels),
		up: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "routes_cache_up"),
			"1 if the last cache stats read succeeded", nil, labels),
	}
}

func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.bytes
	ch <- c.up
}

// Collect при ошибке чтения отдаёт только routes_cache_up=0
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheScrapeTimeout)
	defer cancel()

	snap, err := c.stats(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(snap.Entries))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(snap.MemoryBytes))
}

// TrackInFlight увеличивает gauge активных запросов; вызов результата уменьшает его
func (m *Metrics) TrackInFlight() (done func()) {
	m.GRPCRequestsInFlight.Inc()
	return m.GRPCRequestsInFlight.Dec
}
