// Package wire описывает сообщения RouteService поверх google.protobuf.Struct.
//
// Один и тот же кодек используется gRPC и Connect транспортом, а также клиентом.
// Расстояния кодируются числом либо строками "INF" / "-INF". Конечные значения,
// не представимые точно в JSON number, передаются десятичной строкой.
package wire

import (
	"fmt"
	"math"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"routefinder/pkg/apperror"
	"routefinder/pkg/domain"
)

// Имена сервиса и процедур
const (
	ServiceName = "routefinder.route.v1.RouteService"

	FindRoutesProcedure     = "/" + ServiceName + "/FindRoutes"
	ClassifyMatrixProcedure = "/" + ServiceName + "/ClassifyMatrix"
	GetMatrixStatsProcedure = "/" + ServiceName + "/GetMatrixStats"
)

// Поля сообщений
const (
	FieldMatrix         = "matrix"
	FieldSource         = "source"
	FieldMaxRouteLength = "max_route_length"
	FieldAlgorithm      = "algorithm"
	FieldFlags          = "flags"
	FieldRoutes         = "routes"
	FieldPoisoned       = "poisoned"
	FieldStats          = "stats"
	FieldDurationMs     = "duration_ms"
	FieldVertex         = "vertex"
	FieldDistance       = "distance"
	FieldRoute          = "route"
	FieldOnlyUnit       = "only_zero_or_one_off_diagonal"
	FieldHasNegative    = "has_negative"
)

// maxExactInteger наибольшее целое, точно представимое в JSON number
const maxExactInteger = 1 << 53

// Flags флаги классификации матрицы
type Flags struct {
	OnlyZeroOrOneOffDiagonal bool
	HasNegative              bool
}

// FindRoutesRequest запрос поиска маршрутов.
// MaxRouteLength = nil означает значение по умолчанию сервера.
type FindRoutesRequest struct {
	Matrix         *domain.Matrix
	Source         int
	MaxRouteLength *int64
}

// FindRoutesResponse ответ поиска маршрутов
type FindRoutesResponse struct {
	Algorithm  string
	Flags      Flags
	Routes     []domain.RouteResult
	Poisoned   []int
	Stats      domain.MatrixStats
	DurationMs int64
}

// MatrixRequest запрос ClassifyMatrix и GetMatrixStats
type MatrixRequest struct {
	Matrix *domain.Matrix
}

// ClassifyResponse ответ ClassifyMatrix
type ClassifyResponse struct {
	Algorithm string
	Flags     Flags
}

// ============================================================
// ENCODE
// ============================================================

// EncodeFindRoutesRequest кодирует запрос
func EncodeFindRoutesRequest(r *FindRoutesRequest) *structpb.Struct {
	fields := map[string]*structpb.Value{
		FieldMatrix: encodeMatrix(r.Matrix),
		FieldSource: structpb.NewNumberValue(float64(r.Source)),
	}
	if r.MaxRouteLength != nil {
		fields[FieldMaxRouteLength] = structpb.NewNumberValue(float64(*r.MaxRouteLength))
	}
	return &structpb.Struct{Fields: fields}
}

// EncodeMatrixRequest кодирует запрос с одной матрицей
func EncodeMatrixRequest(r *MatrixRequest) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldMatrix: encodeMatrix(r.Matrix),
	}}
}

// EncodeFindRoutesResponse кодирует ответ
func EncodeFindRoutesResponse(r *FindRoutesResponse) *structpb.Struct {
	routes := make([]*structpb.Value, len(r.Routes))
	for i, route := range r.Routes {
		routes[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			FieldVertex:   structpb.NewNumberValue(float64(route.Vertex)),
			FieldDistance: EncodeDistance(route.Distance),
			FieldRoute:    encodeInts(route.Route),
		}})
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldAlgorithm:  structpb.NewStringValue(r.Algorithm),
		FieldFlags:      encodeFlags(r.Flags),
		FieldRoutes:     structpb.NewListValue(&structpb.ListValue{Values: routes}),
		FieldPoisoned:   encodeInts(r.Poisoned),
		FieldStats:      structpb.NewStructValue(EncodeStats(r.Stats)),
		FieldDurationMs: structpb.NewNumberValue(float64(r.DurationMs)),
	}}
}

// EncodeClassifyResponse кодирует ответ классификации
func EncodeClassifyResponse(r *ClassifyResponse) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldAlgorithm: structpb.NewStringValue(r.Algorithm),
		FieldFlags:     encodeFlags(r.Flags),
	}}
}

// EncodeStats кодирует статистику матрицы
func EncodeStats(s domain.MatrixStats) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"vertex_count":    structpb.NewNumberValue(float64(s.VertexCount)),
		"edge_count":      structpb.NewNumberValue(float64(s.EdgeCount)),
		"self_loop_count": structpb.NewNumberValue(float64(s.SelfLoopCount)),
		"negative_count":  structpb.NewNumberValue(float64(s.NegativeCount)),
		"min_weight":      structpb.NewNumberValue(float64(s.MinWeight)),
		"max_weight":      structpb.NewNumberValue(float64(s.MaxWeight)),
		"density":         structpb.NewNumberValue(s.Density),
		"is_symmetric":    structpb.NewBoolValue(s.IsSymmetric),
	}}
}

// EncodeDistance кодирует расстояние: число, "INF" или "-INF".
// Насыщенные конечные значения приводятся к бесконечностям, а конечные
// значения за пределами ±2^53 передаются десятичной строкой.
func EncodeDistance(d domain.Distance) *structpb.Value {
	c := d.Clamp()
	if !c.IsFinite() {
		return structpb.NewStringValue(c.String())
	}
	v := c.Value()
	if v > maxExactInteger || v < -maxExactInteger {
		return structpb.NewStringValue(strconv.FormatInt(v, 10))
	}
	return structpb.NewNumberValue(float64(v))
}

func encodeMatrix(m *domain.Matrix) *structpb.Value {
	if m == nil {
		return structpb.NewNullValue()
	}

	rows := m.Rows()
	values := make([]*structpb.Value, len(rows))
	for i, row := range rows {
		cells := make([]*structpb.Value, len(row))
		for j, v := range row {
			cells[j] = structpb.NewNumberValue(float64(v))
		}
		values[i] = structpb.NewListValue(&structpb.ListValue{Values: cells})
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func encodeInts(xs []int) *structpb.Value {
	values := make([]*structpb.Value, len(xs))
	for i, x := range xs {
		values[i] = structpb.NewNumberValue(float64(x))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func encodeFlags(f Flags) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		FieldOnlyUnit:    structpb.NewBoolValue(f.OnlyZeroOrOneOffDiagonal),
		FieldHasNegative: structpb.NewBoolValue(f.HasNegative),
	}})
}

// ============================================================
// DECODE
// ============================================================

// DecodeFindRoutesRequest разбирает запрос поиска маршрутов
func DecodeFindRoutesRequest(s *structpb.Struct) (*FindRoutesRequest, error) {
	if s == nil {
		return nil, apperror.New(apperror.CodeNilInput, "request is nil")
	}

	m, err := decodeMatrix(s.GetFields()[FieldMatrix])
	if err != nil {
		return nil, err
	}

	req := &FindRoutesRequest{Matrix: m}

	source, ok := s.GetFields()[FieldSource]
	if !ok {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "source is required", FieldSource)
	}
	v, err := decodeInt(source, FieldSource)
	if err != nil {
		return nil, err
	}
	req.Source = int(v)

	if raw, ok := s.GetFields()[FieldMaxRouteLength]; ok && !isNull(raw) {
		maxLen, err := decodeInt(raw, FieldMaxRouteLength)
		if err != nil {
			return nil, err
		}
		req.MaxRouteLength = &maxLen
	}

	return req, nil
}

// DecodeMatrixRequest разбирает запрос с одной матрицей
func DecodeMatrixRequest(s *structpb.Struct) (*MatrixRequest, error) {
	if s == nil {
		return nil, apperror.New(apperror.CodeNilInput, "request is nil")
	}

	m, err := decodeMatrix(s.GetFields()[FieldMatrix])
	if err != nil {
		return nil, err
	}
	return &MatrixRequest{Matrix: m}, nil
}

// DecodeFindRoutesResponse разбирает ответ поиска маршрутов
func DecodeFindRoutesResponse(s *structpb.Struct) (*FindRoutesResponse, error) {
	if s == nil {
		return nil, apperror.New(apperror.CodeNilInput, "response is nil")
	}
	fields := s.GetFields()

	resp := &FindRoutesResponse{
		Algorithm: fields[FieldAlgorithm].GetStringValue(),
		Flags:     decodeFlags(fields[FieldFlags]),
		Stats:     DecodeStats(fields[FieldStats].GetStructValue()),
	}

	var err error
	if raw, ok := fields[FieldDurationMs]; ok {
		if resp.DurationMs, err = decodeInt(raw, FieldDurationMs); err != nil {
			return nil, err
		}
	}

	if resp.Poisoned, err = decodeInts(fields[FieldPoisoned], FieldPoisoned); err != nil {
		return nil, err
	}

	for i, raw := range fields[FieldRoutes].GetListValue().GetValues() {
		field := fmt.Sprintf("%s[%d]", FieldRoutes, i)
		rf := raw.GetStructValue().GetFields()

		vertex, err := decodeInt(rf[FieldVertex], field+"."+FieldVertex)
		if err != nil {
			return nil, err
		}
		dist, err := DecodeDistance(rf[FieldDistance])
		if err != nil {
			return nil, err
		}
		route, err := decodeInts(rf[FieldRoute], field+"."+FieldRoute)
		if err != nil {
			return nil, err
		}

		resp.Routes = append(resp.Routes, domain.RouteResult{Vertex: int(vertex), Distance: dist, Route: route})
	}

	return resp, nil
}

// DecodeClassifyResponse разбирает ответ классификации
func DecodeClassifyResponse(s *structpb.Struct) *ClassifyResponse {
	return &ClassifyResponse{
		Algorithm: s.GetFields()[FieldAlgorithm].GetStringValue(),
		Flags:     decodeFlags(s.GetFields()[FieldFlags]),
	}
}

// DecodeStats разбирает статистику. Отсутствующие поля остаются нулевыми.
func DecodeStats(s *structpb.Struct) domain.MatrixStats {
	f := s.GetFields()
	return domain.MatrixStats{
		VertexCount:   int(f["vertex_count"].GetNumberValue()),
		EdgeCount:     int(f["edge_count"].GetNumberValue()),
		SelfLoopCount: int(f["self_loop_count"].GetNumberValue()),
		NegativeCount: int(f["negative_count"].GetNumberValue()),
		MinWeight:     int64(f["min_weight"].GetNumberValue()),
		MaxWeight:     int64(f["max_weight"].GetNumberValue()),
		Density:       f["density"].GetNumberValue(),
		IsSymmetric:   f["is_symmetric"].GetBoolValue(),
	}
}

// DecodeDistance разбирает расстояние из числа или "INF" / "-INF"
func DecodeDistance(v *structpb.Value) (domain.Distance, error) {
	if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
		d, err := domain.ParseDistance(s.StringValue)
		if err != nil {
			return domain.Distance{}, apperror.NewWithField(apperror.CodeMalformedInput,
				fmt.Sprintf("invalid distance %q", s.StringValue), FieldDistance)
		}
		return d, nil
	}

	n, err := decodeInt(v, FieldDistance)
	if err != nil {
		return domain.Distance{}, err
	}
	return domain.Finite(n), nil
}

func decodeMatrix(v *structpb.Value) (*domain.Matrix, error) {
	if v == nil || isNull(v) {
		return nil, apperror.NewWithField(apperror.CodeMatrixNotFound, "no numbers found", FieldMatrix)
	}

	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, apperror.NewWithField(apperror.CodeMalformedInput, "matrix must be a list of rows", FieldMatrix)
	}

	rows := make([][]int64, len(list.ListValue.GetValues()))
	for i, raw := range list.ListValue.GetValues() {
		cells, ok := raw.GetKind().(*structpb.Value_ListValue)
		if !ok {
			return nil, apperror.NewWithField(apperror.CodeMalformedInput,
				fmt.Sprintf("matrix row %d must be a list", i), FieldMatrix)
		}

		row := make([]int64, len(cells.ListValue.GetValues()))
		for j, cell := range cells.ListValue.GetValues() {
			x, err := decodeInt(cell, FieldMatrix)
			if err != nil {
				return nil, apperror.NewWithField(apperror.CodeMalformedInput,
					fmt.Sprintf("matrix[%d][%d] is not an integer", i, j), FieldMatrix)
			}
			row[j] = x
		}
		rows[i] = row
	}

	if len(rows) == 0 {
		return nil, apperror.NewWithField(apperror.CodeMatrixNotFound, "no numbers found", FieldMatrix)
	}
	return domain.NewMatrix(rows)
}

func decodeInts(v *structpb.Value, field string) ([]int, error) {
	if v == nil || isNull(v) {
		return nil, nil
	}

	values := v.GetListValue().GetValues()
	out := make([]int, len(values))
	for i, raw := range values {
		x, err := decodeInt(raw, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out[i] = int(x)
	}
	return out, nil
}

// decodeInt требует целое число, точно представимое в float64
func decodeInt(v *structpb.Value, field string) (int64, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("%s must be an integer", field), field)
	}

	f := n.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > maxExactInteger {
		return 0, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("%s must be an integer, got %v", field, f), field)
	}
	return int64(f), nil
}

func decodeFlags(v *structpb.Value) Flags {
	f := v.GetStructValue().GetFields()
	return Flags{
		OnlyZeroOrOneOffDiagonal: f[FieldOnlyUnit].GetBoolValue(),
		HasNegative:              f[FieldHasNegative].GetBoolValue(),
	}
}

func isNull(v *structpb.Value) bool {
	_, ok := v.GetKind().(*structpb.Value_NullValue)
	return ok
}
