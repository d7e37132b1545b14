package matrixio

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetSummary = "Summary"
	SheetMatrix  = "Matrix"
	SheetRoutes  = "Routes"
)

// WriteXLSX writes a workbook with three sheets: summary, matrix and routes.
// Vertex numbers are 1-based, as on the console.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	f.NewSheet(SheetSummary)
	f.NewSheet(SheetMatrix)
	f.NewSheet(SheetRoutes)
	f.DeleteSheet("Sheet1")

	writeSummarySheet(f, r, headerStyle)
	writeMatrixSheet(f, r, headerStyle)
	writeRoutesSheet(f, r, headerStyle)

	return f.Write(w)
}

func writeSummarySheet(f *excelize.File, r *Report, headerStyle int) {
	sheet := SheetSummary

	f.SetCellValue(sheet, "A1", r.title())
	f.MergeCell(sheet, "A1", "B1")
	f.SetCellStyle(sheet, "A1", "B1", headerStyle)

	rows := []struct {
		key   string
		value any
	}{
		{"Source vertex", r.Source + 1},
		{"Maximal route length", r.MaxRouteLength},
		{"Algorithm", r.Algorithm},
		{"Vertices", r.Stats.VertexCount},
		{"Edges", r.Stats.EdgeCount},
		{"Negative edges", r.Stats.NegativeCount},
		{"Density", r.Stats.Density},
		{"Routes found", len(r.Routes)},
		{"Computation time (ms)", float64(r.Duration.Microseconds()) / 1000},
		{"Generated", r.generatedAt().Format("2006-01-02 15:04:05")},
	}

	for i, row := range rows {
		line := i + 3
		f.SetCellValue(sheet, cellAddr("A", line), row.key)
		f.SetCellValue(sheet, cellAddr("B", line), row.value)
	}
	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "B", 22)
}

func writeMatrixSheet(f *excelize.File, r *Report, headerStyle int) {
	sheet := SheetMatrix
	n := r.Matrix.Size()

	for j := 0; j < n; j++ {
		cell, _ := excelize.CoordinatesToCellName(j+2, 1)
		f.SetCellValue(sheet, cell, j+1)
		rowHeader, _ := excelize.CoordinatesToCellName(1, j+2)
		f.SetCellValue(sheet, rowHeader, j+1)
	}
	if n > 0 {
		last, _ := excelize.CoordinatesToCellName(n+1, 1)
		f.SetCellStyle(sheet, "A1", last, headerStyle)
		lastRow, _ := excelize.CoordinatesToCellName(1, n+1)
		f.SetCellStyle(sheet, "A1", lastRow, headerStyle)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cell, _ := excelize.CoordinatesToCellName(j+2, i+2)
			f.SetCellValue(sheet, cell, r.Matrix.At(i, j))
		}
	}
}

func writeRoutesSheet(f *excelize.File, r *Report, headerStyle int) {
	sheet := SheetRoutes

	headers := []string{"Final vertex", "Route length", "Route"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)

	if len(r.Routes) == 0 {
		f.SetCellValue(sheet, "A2", NoRoutesMessage)
		return
	}

	for i, route := range r.Routes {
		line := i + 2
		f.SetCellValue(sheet, cellAddr("A", line), route.Vertex+1)
		if d := route.Distance.Clamp(); d.IsFinite() {
			f.SetCellValue(sheet, cellAddr("B", line), d.Value())
		} else {
			f.SetCellValue(sheet, cellAddr("B", line), d.String())
		}
		if !route.Poisoned() {
			f.SetCellValue(sheet, cellAddr("C", line), FormatRoute(route.Route))
		}
	}
	f.SetColWidth(sheet, "A", "B", 14)
	f.SetColWidth(sheet, "C", "C", 40)
}

func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
