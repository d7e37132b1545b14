package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"routefinder/pkg/apperror"
	"routefinder/pkg/audit"
	"routefinder/pkg/cache"
	"routefinder/pkg/config"
	"routefinder/pkg/domain"
	"routefinder/pkg/logger"
	"routefinder/pkg/metrics"
	"routefinder/pkg/telemetry"
	"routefinder/services/route-svc/internal/algorithms"
	"routefinder/services/route-svc/internal/matrixio"
)

// ServiceName имя сервиса в аудите и логах
const ServiceName = "route-svc"

// Query запрос на поиск маршрутов
type Query struct {
	Matrix         *domain.Matrix
	Source         int
	MaxRouteLength int64
}

// Report результат поиска маршрутов
type Report struct {
	Algorithm algorithms.Algorithm
	Flags     algorithms.Flags
	Routes    []domain.RouteResult
	Poisoned  []int
	Stats     domain.MatrixStats
	Duration  time.Duration
	Cached    bool
}

// Classification результат классификации матрицы
type Classification struct {
	Algorithm algorithms.Algorithm
	Flags     algorithms.Flags
}

// RouteService оборачивает решатель трассировкой, метриками, логами и аудитом.
// Состояние между запросами не хранится.
type RouteService struct {
	maxVertices int
	metrics     *metrics.Metrics
	cache       *cache.RouteCache
	service     string
}

// Option настраивает RouteService
type Option func(*RouteService)

// WithMetrics задаёт набор метрик вместо глобального
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *RouteService) { s.metrics = m }
}

// WithCache включает кэш результатов FindRoutes
func WithCache(c *cache.RouteCache) Option {
	return func(s *RouteService) { s.cache = c }
}

// WithServiceName задаёт имя сервиса для аудита
func WithServiceName(name string) Option {
	return func(s *RouteService) { s.service = name }
}

// NewRouteService создаёт сервис. MaxVertices = 0 снимает ограничение на размер матрицы.
func NewRouteService(cfg config.RoutingConfig, opts ...Option) *RouteService {
	s := &RouteService{
		maxVertices: cfg.MaxVertices,
		metrics:     metrics.Get(),
		service:     ServiceName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindRoutes классифицирует матрицу, запускает один алгоритм и восстанавливает маршруты
func (s *RouteService) FindRoutes(ctx context.Context, q Query) (*Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "route.FindRoutes",
		telemetry.WithAttributes(telemetry.QueryAttributes(q.Source, q.MaxRouteLength)...),
	)
	defer span.End()

	start := time.Now()
	entry := s.entry(start)

	report, err := s.findRoutes(ctx, q)
	duration := time.Since(start)

	algo := "unspecified"
	if report != nil {
		algo = report.Algorithm.String()
		report.Duration = duration
	}
	s.metrics.RecordQuery(algo, err == nil, duration, poisonedCount(report))

	log := logger.WithContext(ctx, "source", q.Source, "max_route_length", q.MaxRouteLength)
	meta := map[string]any{audit.MetaSource: q.Source}
	if q.Matrix != nil {
		meta[audit.MetaVertices] = q.Matrix.Size()
	}

	if err != nil {
		telemetry.SetError(ctx, err)
		log.Warn("Route query failed", "error", err, "code", apperror.Code(err))
		s.record(ctx, start, entry.Outcome(audit.OutcomeFailure).Error(string(apperror.Code(err)), err.Error()), audit.ActionSolve, meta)
		return nil, err
	}

	meta[audit.MetaAlgorithm] = algo
	meta[audit.MetaRoutes] = len(report.Routes)
	meta[audit.MetaPoisoned] = len(report.Poisoned)

	span.SetAttributes(telemetry.ResultAttributes(len(report.Routes), len(report.Poisoned))...)
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, report.Cached))
	log.Info("Route query completed",
		"vertices", report.Stats.VertexCount,
		"algorithm", algo,
		"routes", len(report.Routes),
		"poisoned", len(report.Poisoned),
		"cached", report.Cached,
		"duration_ms", duration.Milliseconds(),
	)
	s.record(ctx, start, entry.Outcome(audit.OutcomeSuccess), audit.ActionSolve, meta)

	return report, nil
}

func (s *RouteService) findRoutes(ctx context.Context, q Query) (*Report, error) {
	if err := s.validate(q.Matrix); err != nil {
		return nil, err
	}
	if !q.Matrix.Contains(q.Source) {
		return nil, apperror.OutOfRangeVertex(q.Source, 0, q.Matrix.Size()-1)
	}
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	if report := s.cached(ctx, q); report != nil {
		return report, nil
	}

	stats := domain.ComputeStats(q.Matrix)
	s.metrics.RecordMatrixSize("find_routes", stats.VertexCount)
	telemetry.SetAttributes(ctx, telemetry.MatrixAttributes(stats.VertexCount, stats.EdgeCount, stats.NegativeCount)...)

	sol, err := algorithms.Solve(q.Matrix, q.Source)
	if err != nil {
		return nil, err
	}

	telemetry.SetAttributes(ctx, telemetry.AlgorithmAttributes(
		sol.Algorithm.String(), sol.Flags.OnlyZeroOrOneOffDiagonal, sol.Flags.HasNegative)...)
	if len(sol.Poisoned) > 0 {
		telemetry.AddEvent(ctx, "negative_cycle", attribute.Int("poisoned", len(sol.Poisoned)))
	}

	report := &Report{
		Algorithm: sol.Algorithm,
		Flags:     sol.Flags,
		Routes:    sol.Routes(q.Source, q.MaxRouteLength),
		Poisoned:  sol.Poisoned,
		Stats:     stats,
	}
	s.store(ctx, q, report)
	return report, nil
}

// cached возвращает сохранённый отчёт или nil. Ошибки кэша не прерывают запрос.
func (s *RouteService) cached(ctx context.Context, q Query) *Report {
	if s.cache == nil {
		return nil
	}

	entry, ok, err := s.cache.Get(ctx, q.Matrix, q.Source, q.MaxRouteLength)
	if err != nil {
		s.metrics.RecordCacheLookup("error")
		logger.WithContext(ctx).Warn("Route cache lookup failed", "error", err)
		return nil
	}
	if !ok {
		s.metrics.RecordCacheLookup("miss")
		return nil
	}

	algo, err := algorithms.ParseAlgorithm(entry.Algorithm)
	if err != nil {
		s.metrics.RecordCacheLookup("error")
		return nil
	}
	routes, err := cache.DecodeRoutes(entry.Routes)
	if err != nil {
		s.metrics.RecordCacheLookup("error")
		return nil
	}

	s.metrics.RecordCacheLookup("hit")
	return &Report{
		Algorithm: algo,
		Flags: algorithms.Flags{
			OnlyZeroOrOneOffDiagonal: entry.OnlyZeroOrOneOffDiagonal,
			HasNegative:              entry.HasNegative,
		},
		Routes:   routes,
		Poisoned: entry.Poisoned,
		Stats:    entry.Stats,
		Cached:   true,
	}
}

func (s *RouteService) store(ctx context.Context, q Query, r *Report) {
	if s.cache == nil {
		return
	}

	err := s.cache.Set(ctx, q.Matrix, q.Source, q.MaxRouteLength, &cache.CachedRoutes{
		Algorithm:                r.Algorithm.String(),
		OnlyZeroOrOneOffDiagonal: r.Flags.OnlyZeroOrOneOffDiagonal,
		HasNegative:              r.Flags.HasNegative,
		Routes:                   cache.EncodeRoutes(r.Routes),
		Poisoned:                 r.Poisoned,
		Stats:                    r.Stats,
	})
	if err != nil {
		logger.WithContext(ctx).Warn("Failed to cache routes", "error", err)
	}
}

// Classify сообщает флаги классификации и алгоритм, который был бы выбран
func (s *RouteService) Classify(ctx context.Context, m *domain.Matrix) (*Classification, error) {
	ctx, span := telemetry.StartSpan(ctx, "route.Classify")
	defer span.End()

	start := time.Now()
	entry := s.entry(start)

	if err := s.validate(m); err != nil {
		telemetry.SetError(ctx, err)
		s.record(ctx, start, entry.Outcome(audit.OutcomeFailure).Error(string(apperror.Code(err)), err.Error()), audit.ActionClassify, nil)
		return nil, err
	}

	flags := algorithms.Classify(m)
	algo := algorithms.Select(flags)
	s.metrics.RecordMatrixSize("classify", m.Size())

	span.SetAttributes(telemetry.AlgorithmAttributes(algo.String(), flags.OnlyZeroOrOneOffDiagonal, flags.HasNegative)...)
	logger.WithContext(ctx).Debug("Matrix classified", "vertices", m.Size(), "algorithm", algo.String())

	s.record(ctx, start, entry.Outcome(audit.OutcomeSuccess), audit.ActionClassify, map[string]any{
		audit.MetaVertices:  m.Size(),
		audit.MetaAlgorithm: algo.String(),
	})

	return &Classification{Algorithm: algo, Flags: flags}, nil
}

// Stats вычисляет статистику матрицы
func (s *RouteService) Stats(ctx context.Context, m *domain.Matrix) (domain.MatrixStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "route.Stats")
	defer span.End()

	start := time.Now()
	entry := s.entry(start)

	if err := s.validate(m); err != nil {
		telemetry.SetError(ctx, err)
		s.record(ctx, start, entry.Outcome(audit.OutcomeFailure).Error(string(apperror.Code(err)), err.Error()), audit.ActionStats, nil)
		return domain.MatrixStats{}, err
	}

	stats := domain.ComputeStats(m)
	s.metrics.RecordMatrixSize("stats", stats.VertexCount)
	span.SetAttributes(telemetry.MatrixAttributes(stats.VertexCount, stats.EdgeCount, stats.NegativeCount)...)

	s.record(ctx, start, entry.Outcome(audit.OutcomeSuccess), audit.ActionStats, map[string]any{
		audit.MetaVertices: stats.VertexCount,
	})

	return stats, nil
}

// Export записывает отчёт о запросе в файл; формат определяется расширением,
// иначе используется def
func (s *RouteService) Export(ctx context.Context, path string, def matrixio.Format, q Query, r *Report) error {
	format := matrixio.FormatForPath(path, def)

	ctx, span := telemetry.StartSpan(ctx, "route.Export",
		telemetry.WithAttributes(attribute.String(telemetry.AttrExportFormat, string(format))),
	)
	defer span.End()

	start := time.Now()
	entry := s.entry(start)
	meta := map[string]any{audit.MetaPath: path, audit.MetaFormat: string(format)}

	err := s.export(path, format, q, r)
	s.metrics.RecordExport(string(format), err)

	if err != nil {
		telemetry.SetError(ctx, err)
		logger.WithContext(ctx).Warn("Export failed", "path", path, "error", err)
		s.record(ctx, start, entry.Outcome(audit.OutcomeFailure).Error(string(apperror.Code(err)), err.Error()), audit.ActionExport, meta)
		return err
	}

	logger.WithContext(ctx).Info("Routes exported", "path", path, "format", format)
	s.record(ctx, start, entry.Outcome(audit.OutcomeSuccess), audit.ActionExport, meta)
	return nil
}

func (s *RouteService) export(path string, format matrixio.Format, q Query, r *Report) error {
	if r == nil {
		return apperror.NewWithField(apperror.CodeInvalidArgument, "nothing to export: run a route query first", "report")
	}

	return matrixio.ExportFile(path, format, &matrixio.Report{
		Matrix:         q.Matrix,
		Source:         q.Source,
		MaxRouteLength: q.MaxRouteLength,
		Algorithm:      r.Algorithm.String(),
		Routes:         r.Routes,
		Stats:          r.Stats,
		Duration:       r.Duration,
	})
}

// ReadMatrix читает матрицу из файла
func (s *RouteService) ReadMatrix(ctx context.Context, path string) (*domain.Matrix, error) {
	ctx, span := telemetry.StartSpan(ctx, "route.ReadMatrix")
	defer span.End()

	start := time.Now()
	entry := s.entry(start)
	meta := map[string]any{audit.MetaPath: path}

	m, err := matrixio.ReadFile(path)
	if err != nil {
		telemetry.SetError(ctx, err)
		s.record(ctx, start, entry.Outcome(audit.OutcomeFailure).Error(string(apperror.Code(err)), err.Error()), audit.ActionReadMatrix, meta)
		return nil, err
	}

	s.metrics.RecordMatrixSize("read", m.Size())
	meta[audit.MetaVertices] = m.Size()
	logger.WithContext(ctx).Debug("Matrix read", "path", path, "vertices", m.Size())
	s.record(ctx, start, entry.Outcome(audit.OutcomeSuccess), audit.ActionReadMatrix, meta)
	return m, nil
}

// WriteMatrix записывает матрицу в файл выровненной таблицей
func (s *RouteService) WriteMatrix(ctx context.Context, path string, m *domain.Matrix) error {
	ctx, span := telemetry.StartSpan(ctx, "route.WriteMatrix")
	defer span.End()

	start := time.Now()
	entry := s.entry(start)
	meta := map[string]any{audit.MetaPath: path}

	var err error = apperror.ErrNilMatrix
	if m != nil {
		meta[audit.MetaVertices] = m.Size()
		err = matrixio.WriteFile(path, m)
	}
	if err != nil {
		telemetry.SetError(ctx, err)
		s.record(ctx, start, entry.Outcome(audit.OutcomeFailure).Error(string(apperror.Code(err)), err.Error()), audit.ActionWriteMatrix, meta)
		return err
	}

	s.record(ctx, start, entry.Outcome(audit.OutcomeSuccess), audit.ActionWriteMatrix, meta)
	return nil
}

// validate проверяет матрицу и ограничение размера
func (s *RouteService) validate(m *domain.Matrix) error {
	if m == nil {
		return apperror.ErrNilMatrix
	}

	switch n := m.Size(); {
	case n == 0:
		return apperror.NewWithField(apperror.CodeMatrixNotFound, "no numbers found", "matrix")
	case s.maxVertices > 0 && n > s.maxVertices:
		return apperror.NewWithField(apperror.CodeMatrixTooLarge,
			fmt.Sprintf("matrix has %d vertices, limit is %d", n, s.maxVertices), "matrix")
	}
	return nil
}

func (s *RouteService) entry(start time.Time) *audit.Builder {
	return audit.NewEntry().Service(s.service).StartedAt(start)
}

// record дописывает аудит в scope запроса или пишет отдельную запись
func (s *RouteService) record(ctx context.Context, start time.Time, b *audit.Builder, action audit.Action, meta map[string]any) {
	b.Duration(time.Since(start))
	if audit.ScopeFromContext(ctx) == nil {
		b.Method(string(action)).RequestID(logger.RequestIDFromContext(ctx))
	}
	if err := audit.Record(ctx, b, action, meta); err != nil {
		logger.WithContext(ctx).Warn("Failed to write audit log", "error", err)
	}
}

func poisonedCount(r *Report) int {
	if r == nil {
		return 0
	}
	return len(r.Poisoned)
}

func contextError(err error) error {
	if err == context.DeadlineExceeded {
		return apperror.Wrap(err, apperror.CodeTimeout, "query deadline exceeded")
	}
	return apperror.Wrap(err, apperror.CodeCanceled, "query canceled")
}
