package matrixio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"routefinder/pkg/apperror"
	"routefinder/pkg/domain"
)

func testReport() *Report {
	m := domain.MustMatrix([][]int64{{0, 4, 0}, {0, 0, 1}, {0, 0, 0}})
	return &Report{
		Matrix:         m,
		Source:         0,
		MaxRouteLength: 10,
		Algorithm:      "dijkstra",
		Routes: []domain.RouteResult{
			{Vertex: 1, Distance: domain.Finite(4), Route: []int{0, 1}},
			{Vertex: 2, Distance: domain.Finite(5), Route: []int{0, 1, 2}},
		},
		Stats:       domain.ComputeStats(m),
		Duration:    1500 * time.Microsecond,
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in       string
		expected Format
		wantErr  bool
	}{
		{"txt", FormatText, false},
		{".XLSX", FormatXLSX, false},
		{"excel", FormatXLSX, false},
		{"pdf", FormatPDF, false},
		{"docx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	assert.Equal(t, FormatPDF, FormatForPath("/tmp/report.pdf", FormatText))
	assert.Equal(t, FormatText, FormatForPath("/tmp/report", FormatText))
}

func TestExport_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatText, testReport()))

	out := buf.String()
	assert.Contains(t, out, "Source vertex: 1")
	assert.Contains(t, out, "Algorithm: dijkstra")
	assert.Contains(t, out, "0 4 0\n0 0 1\n0 0 0")
	assert.Contains(t, out, "Final vertex: 3, route length: 5, route: 1 -> 2 -> 3")
}

func TestExport_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatXLSX, testReport()))

	// XLSX files start with PK (zip signature)
	require.Greater(t, buf.Len(), 2)
	assert.Equal(t, "PK", buf.String()[:2])

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetMatrix, SheetRoutes}, f.GetSheetList())

	v, err := f.GetCellValue(SheetMatrix, "C2")
	require.NoError(t, err)
	assert.Equal(t, "4", v)

	v, err = f.GetCellValue(SheetRoutes, "C3")
	require.NoError(t, err)
	assert.Equal(t, "1 -> 2 -> 3", v)

	v, err = f.GetCellValue(SheetSummary, "B5")
	require.NoError(t, err)
	assert.Equal(t, "dijkstra", v)
}

func TestExport_XLSX_PoisonedAndEmpty(t *testing.T) {
	r := testReport()
	r.Routes = []domain.RouteResult{{Vertex: 1, Distance: domain.NegativeInfinity, Route: []int{1}}}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, r))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	v, _ := f.GetCellValue(SheetRoutes, "B2")
	assert.Equal(t, "-INF", v)
	v, _ = f.GetCellValue(SheetRoutes, "C2")
	assert.Empty(t, v)

	r.Routes = nil
	buf.Reset()
	require.NoError(t, WriteXLSX(&buf, r))
	f2, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f2.Close()
	v, _ = f2.GetCellValue(SheetRoutes, "A2")
	assert.Equal(t, NoRoutesMessage, v)
}

func TestExport_PDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatPDF, testReport()))

	// PDF signature: %PDF-
	require.Greater(t, buf.Len(), 5)
	assert.Equal(t, "%PDF-", buf.String()[:5])
}

func TestExport_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, apperror.Is(Export(&buf, FormatText, nil), apperror.CodeNilInput))
	assert.True(t, apperror.Is(Export(&buf, Format("docx"), testReport()), apperror.CodeInvalidArgument))
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"report.txt", "report.xlsx", "report.pdf"} {
		path := filepath.Join(dir, name)
		require.NoError(t, ExportFile(path, FormatForPath(path, FormatText), testReport()), name)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}
