package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// gatheredValue возвращает значение counter/gauge или число наблюдений histogram
func gatheredValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metric
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func TestNew(t *testing.T) {
	m := New(prometheus.NewRegistry(), "test", "service")

	if m.GRPCRequestsTotal == nil {
		t.Error("GRPCRequestsTotal should not be nil")
	}
	if m.QueriesTotal == nil {
		t.Error("QueriesTotal should not be nil")
	}
	if m.PoisonedVerticesTotal == nil {
		t.Error("PoisonedVerticesTotal should not be nil")
	}
}

func TestInitMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	prevReg, prevGather := prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = prevReg
		prometheus.DefaultGatherer = prevGather
	})

	m := InitMetrics("test", "init")
	if Get() != m {
		t.Error("Get() should return initialized metrics")
	}
}

func TestGet(t *testing.T) {
	defaultMu.Lock()
	defaultMetrics = nil
	defaultMu.Unlock()

	m := Get()
	if m == nil {
		t.Fatal("Get() should not return nil")
	}
	if Get() != m {
		t.Error("Get() should return same instance")
	}
}

func TestRecordGRPCRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "test", "grpc")

	m.RecordGRPCRequest("/routefinder.route.v1.RouteService/FindRoutes", "OK", 100*time.Millisecond)
	m.RecordGRPCRequest("/routefinder.route.v1.RouteService/FindRoutes", "OK", 50*time.Millisecond)
	m.RecordGRPCRequest("/routefinder.route.v1.RouteService/FindRoutes", "InvalidArgument", time.Millisecond)

	got := gatheredValue(t, reg, "test_grpc_grpc_requests_total", map[string]string{"status": "OK"})
	if got != 2 {
		t.Errorf("requests_total{OK} = %v, want 2", got)
	}
}

func TestRecordQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "test", "")

	m.RecordQuery("bellman_ford", true, 5*time.Millisecond, 3)
	m.RecordQuery("bellman_ford", false, time.Millisecond, 0)
	m.RecordQuery("dijkstra", true, time.Millisecond, 0)

	if got := gatheredValue(t, reg, "test_routes_queries_total", map[string]string{"algorithm": "bellman_ford", "status": StatusSuccess}); got != 1 {
		t.Errorf("queries_total{bellman_ford,success} = %v, want 1", got)
	}
	if got := gatheredValue(t, reg, "test_routes_queries_total", map[string]string{"algorithm": "bellman_ford", "status": StatusError}); got != 1 {
		t.Errorf("queries_total{bellman_ford,error} = %v, want 1", got)
	}
	if got := gatheredValue(t, reg, "test_routes_poisoned_vertices_total", map[string]string{"algorithm": "bellman_ford"}); got != 3 {
		t.Errorf("poisoned_vertices_total = %v, want 3", got)
	}
	if got := gatheredValue(t, reg, "test_routes_query_duration_seconds", map[string]string{"algorithm": "dijkstra"}); got != 1 {
		t.Errorf("query_duration count = %v, want 1", got)
	}
}

func TestRecordMatrixSizeAndExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "test", "")

	m.RecordMatrixSize("solve", 4)
	m.RecordMatrixSize("solve", 100)
	m.RecordExport("xlsx", nil)
	m.RecordExport("pdf", errors.New("disk full"))
	m.RecordRateLimited("/x")

	if got := gatheredValue(t, reg, "test_routes_matrix_vertices", map[string]string{"operation": "solve"}); got != 2 {
		t.Errorf("matrix_vertices count = %v, want 2", got)
	}
	if got := gatheredValue(t, reg, "test_routes_exports_total", map[string]string{"format": "pdf", "status": StatusError}); got != 1 {
		t.Errorf("exports_total{pdf,error} = %v, want 1", got)
	}
	if got := gatheredValue(t, reg, "test_rate_limited_total", nil); got != 1 {
		t.Errorf("rate_limited_total = %v, want 1", got)
	}
}

func TestSetServiceInfo(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "test", "info")

	m.SetServiceInfo("1.0.0", "production")

	if got := gatheredValue(t, reg, "test_info_service_info", map[string]string{"version": "1.0.0"}); got != 1 {
		t.Errorf("service_info = %v, want 1", got)
	}
}

func TestCacheCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	snap := CacheSnapshot{Entries: 3, MemoryBytes: 512}
	var statsErr error

	reg.MustRegister(NewCacheCollector("test", "memory", func(context.Context) (CacheSnapshot, error) {
		return snap, statsErr
	}))

	labels := map[string]string{"backend": "memory"}
	if got := gatheredValue(t, reg, "test_routes_cache_entries", labels); got != 3 {
		t.Errorf("entries = %v, want 3", got)
	}
	if got := gatheredValue(t, reg, "test_routes_cache_memory_bytes", labels); got != 512 {
		t.Errorf("memory bytes = %v, want 512", got)
	}
	if got := gatheredValue(t, reg, "test_routes_cache_up", labels); got != 1 {
		t.Errorf("up = %v, want 1", got)
	}

	statsErr = errors.New("redis down")
	if got := gatheredValue(t, reg, "test_routes_cache_up", labels); got != 0 {
		t.Errorf("up = %v after error, want 0", got)
	}
}

func TestTrackInFlight(t *testing.T) {
	m := New(prometheus.NewRegistry(), "test", "")

	done1 := m.TrackInFlight()
	done2 := m.TrackInFlight()
	if got := testutil.ToFloat64(m.GRPCRequestsInFlight); got != 2 {
		t.Errorf("in flight = %v, want 2", got)
	}

	done1()
	done2()
	if got := testutil.ToFloat64(m.GRPCRequestsInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
}

func TestNewServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg, "test", "http").SetServiceInfo("1.0.0", "test")

	srv := NewServer(0, "", reg)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_http_service_info") {
		t.Error("metrics body should contain service_info")
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Body.String() != "OK" {
		t.Errorf("health body = %q", rec.Body.String())
	}
}
