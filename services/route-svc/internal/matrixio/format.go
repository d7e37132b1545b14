package matrixio

import (
	"io"
	"os"
	"strconv"
	"strings"

	"routefinder/pkg/apperror"
	"routefinder/pkg/domain"
)

// NoRoutesMessage is printed when a query yields no results.
const NoRoutesMessage = "Routes not founded"

// FormatMatrix renders the matrix as an aligned grid. Each column is
// right-aligned to its widest value; cells are separated by one space and
// there is no trailing newline.
func FormatMatrix(m *domain.Matrix) string {
	n := m.Size()
	widths := make([]int, n)
	cells := make([]string, n*n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := strconv.FormatInt(m.At(i, j), 10)
			cells[i*n+j] = s
			widths[j] = max(widths[j], len(s))
		}
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j := 0; j < n; j++ {
			if j > 0 {
				b.WriteByte(' ')
			}
			s := cells[i*n+j]
			b.WriteString(strings.Repeat(" ", widths[j]-len(s)))
			b.WriteString(s)
		}
	}
	return b.String()
}

// WriteMatrix writes the aligned grid followed by a newline.
func WriteMatrix(w io.Writer, m *domain.Matrix) error {
	_, err := io.WriteString(w, FormatMatrix(m)+"\n")
	return err
}

// WriteFile creates (or truncates) path and writes the matrix grid into it.
// Parse reads the file back into an equal matrix.
func WriteFile(path string, m *domain.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return apperror.FileNotFound(path, err)
	}
	if err := WriteMatrix(f, m); err != nil {
		f.Close()
		return apperror.Wrap(err, apperror.CodeInternal, "failed to write matrix").
			WithDetails("path", path)
	}
	return f.Close()
}

// FormatRoute renders a 0-based route with 1-based vertex numbers: "1 -> 2 -> 3".
func FormatRoute(route []int) string {
	parts := make([]string, len(route))
	for i, v := range route {
		parts[i] = strconv.Itoa(v + 1)
	}
	return strings.Join(parts, " -> ")
}

// FormatRouteLine renders one result the way the console prints it.
// Poisoned vertices have no route.
func FormatRouteLine(r domain.RouteResult) string {
	line := "Final vertex: " + strconv.Itoa(r.Vertex+1) + ", route length: " + r.Distance.String()
	if r.Poisoned() {
		return line
	}
	return line + ", route: " + FormatRoute(r.Route)
}

// FormatRoutes renders a result set, one line per destination.
func FormatRoutes(routes []domain.RouteResult) string {
	if len(routes) == 0 {
		return NoRoutesMessage + "\n"
	}

	var b strings.Builder
	b.WriteString("Routes:\n")
	for _, r := range routes {
		b.WriteString(FormatRouteLine(r))
		b.WriteByte('\n')
	}
	return b.String()
}
