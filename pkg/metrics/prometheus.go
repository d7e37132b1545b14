package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Статусы операций для меток
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics контейнер метрик сервиса маршрутов
type Metrics struct {
	// gRPC метрики
	GRPCRequestsTotal    *prometheus.CounterVec
	GRPCRequestDuration  *prometheus.HistogramVec
	GRPCRequestsInFlight prometheus.Gauge
	RateLimitedTotal     *prometheus.CounterVec

	// Бизнес-метрики
	QueriesTotal          *prometheus.CounterVec
	QueryDuration         *prometheus.HistogramVec
	MatrixVertices        *prometheus.HistogramVec
	PoisonedVerticesTotal *prometheus.CounterVec
	ExportsTotal          *prometheus.CounterVec
	CacheLookupsTotal     *prometheus.CounterVec

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var (
	defaultMu      sync.Mutex
	defaultMetrics *Metrics
)

var (
	rpcBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	solveBuckets  = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 30}
	vertexBuckets = []float64{1, 5, 10, 50, 100, 250, 500, 1000, 2000}
)

// builder регистрирует метрики с общими namespace/subsystem
type builder struct {
	f         promauto.Factory
	namespace string
	subsystem string
}

func (b builder) counter(name, help string, labels ...string) *prometheus.CounterVec {
	return b.f.NewCounterVec(prometheus.CounterOpts{
		Namespace: b.namespace, Subsystem: b.subsystem, Name: name, Help: help,
	}, labels)
}

func (b builder) histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return b.f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: b.namespace, Subsystem: b.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func (b builder) gauge(name, help string, labels ...string) *prometheus.GaugeVec {
	return b.f.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: b.namespace, Subsystem: b.subsystem, Name: name, Help: help,
	}, labels)
}

// New создаёт метрики и регистрирует их в reg
func New(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	b := builder{f: promauto.With(reg), namespace: namespace, subsystem: subsystem}

	return &Metrics{
		GRPCRequestsTotal:    b.counter("grpc_requests_total", "Total number of gRPC requests", "method", "status"),
		GRPCRequestDuration:  b.histogram("grpc_request_duration_seconds", "Duration of gRPC requests", rpcBuckets, "method"),
		GRPCRequestsInFlight: b.f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "grpc_requests_in_flight", Help: "Current number of gRPC requests being processed",
		}),
		RateLimitedTotal:     b.counter("rate_limited_total", "Requests rejected by the rate limiter", "method"),

		QueriesTotal:          b.counter("routes_queries_total", "Total number of route queries", "algorithm", "status"),
		QueryDuration:         b.histogram("routes_query_duration_seconds", "Duration of route queries", solveBuckets, "algorithm"),
		MatrixVertices:        b.histogram("routes_matrix_vertices", "Number of vertices in processed matrices", vertexBuckets, "operation"),
		PoisonedVerticesTotal: b.counter("routes_poisoned_vertices_total", "Vertices reported with distance -INF", "algorithm"),
		ExportsTotal:          b.counter("routes_exports_total", "Route reports exported to files", "format", "status"),
		CacheLookupsTotal:     b.counter("routes_cache_lookups_total", "Route cache lookups by result (hit, miss, error)", "result"),

		ServiceInfo: b.gauge("service_info", "Service information", "version", "environment"),
	}
}

// InitMetrics инициализирует глобальные метрики в default registry
func InitMetrics(namespace, subsystem string) *Metrics {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultMetrics = New(prometheus.DefaultRegisterer, namespace, subsystem)
	return defaultMetrics
}

// Get возвращает глобальные метрики. Без InitMetrics метрики
// создаются в отдельном registry, чтобы не конфликтовать с default.
func Get() *Metrics {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultMetrics == nil {
		defaultMetrics = New(prometheus.NewRegistry(), "routefinder", "")
	}
	return defaultMetrics
}

// RecordGRPCRequest записывает метрики gRPC запроса
func (m *Metrics) RecordGRPCRequest(method string, status string, duration time.Duration) {
	m.GRPCRequestsTotal.WithLabelValues(method, status).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRateLimited считает отклонённый запрос
func (m *Metrics) RecordRateLimited(method string) {
	m.RateLimitedTotal.WithLabelValues(method).Inc()
}

// RecordQuery записывает метрики поиска маршрутов
func (m *Metrics) RecordQuery(algorithm string, success bool, duration time.Duration, poisoned int) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}

	m.QueriesTotal.WithLabelValues(algorithm, status).Inc()
	m.QueryDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	if poisoned > 0 {
		m.PoisonedVerticesTotal.WithLabelValues(algorithm).Add(float64(poisoned))
	}
}

// RecordMatrixSize записывает размер матрицы
func (m *Metrics) RecordMatrixSize(operation string, vertices int) {
	m.MatrixVertices.WithLabelValues(operation).Observe(float64(vertices))
}

// RecordExport записывает экспорт отчёта
func (m *Metrics) RecordExport(format string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.ExportsTotal.WithLabelValues(format, status).Inc()
}

// RecordCacheLookup считает обращение к кэшу маршрутов
func (m *Metrics) RecordCacheLookup(result string) {
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// NewServer создаёт HTTP сервер для метрик
func NewServer(port int, path string, gatherer prometheus.Gatherer) *http.Server {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, ошибка записи не критична
	})

	return &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
