// Package matrixio reads and writes adjacency matrices and renders route
// results as text, XLSX workbooks and PDF reports.
package matrixio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"routefinder/pkg/apperror"
	"routefinder/pkg/domain"
)

// Parse reads whitespace-separated integers from r and builds a square matrix.
// Line breaks carry no meaning: n is the integer square root of the count.
//
// Errors:
//   - MATRIX_NOT_FOUND when r holds no integers
//   - MALFORMED_INPUT when a token is not an integer or the count is not a perfect square
func Parse(r io.Reader) (*domain.Matrix, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)

	values := make([]int64, 0, 16)
	for scanner.Scan() {
		token := scanner.Text()
		v, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeMalformedInput,
				fmt.Sprintf("value #%d %q is not an integer", len(values)+1, token)).
				WithDetails("token", token)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMalformedInput, "failed to read matrix")
	}

	return domain.MatrixFromValues(values)
}

// ReadFile opens path and parses a matrix from it.
func ReadFile(path string) (*domain.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.FileNotFound(path, err)
	}
	defer f.Close()

	return Parse(f)
}
