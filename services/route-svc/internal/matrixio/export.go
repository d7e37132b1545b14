package matrixio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"routefinder/pkg/apperror"
	"routefinder/pkg/domain"
)

// Format is an export format.
type Format string

const (
	FormatText Format = "txt"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(s), ".")) {
	case FormatText, "text":
		return FormatText, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("unsupported export format %q", s), "format")
	}
}

// FormatForPath picks the format from the file extension, falling back to def.
func FormatForPath(path string, def Format) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return def
}

// Report is everything an export needs about one query.
type Report struct {
	Title          string
	Matrix         *domain.Matrix
	Source         int
	MaxRouteLength int64
	Algorithm      string
	Routes         []domain.RouteResult
	Stats          domain.MatrixStats
	Duration       time.Duration
	GeneratedAt    time.Time
}

func (r *Report) title() string {
	if r.Title != "" {
		return r.Title
	}
	return "Shortest Routes Report"
}

func (r *Report) generatedAt() time.Time {
	if r.GeneratedAt.IsZero() {
		return time.Now()
	}
	return r.GeneratedAt
}

// Export writes the report to w in the given format.
func Export(w io.Writer, format Format, r *Report) error {
	if r == nil || r.Matrix == nil {
		return apperror.ErrNilMatrix
	}

	switch format {
	case FormatText:
		return writeText(w, r)
	case FormatXLSX:
		return WriteXLSX(w, r)
	case FormatPDF:
		return WritePDF(w, r)
	default:
		return apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("unsupported export format %q", format), "format")
	}
}

// ExportFile writes the report to path in the given format.
func ExportFile(path string, format Format, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return apperror.FileNotFound(path, err)
	}
	if err := Export(f, format, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeText(w io.Writer, r *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.title())
	fmt.Fprintf(&b, "Source vertex: %d\n", r.Source+1)
	fmt.Fprintf(&b, "Maximal route length: %d\n", r.MaxRouteLength)
	fmt.Fprintf(&b, "Algorithm: %s\n", r.Algorithm)
	fmt.Fprintf(&b, "Matrix:\n%s\n", FormatMatrix(r.Matrix))
	b.WriteString(FormatRoutes(r.Routes))

	_, err := io.WriteString(w, b.String())
	return err
}
