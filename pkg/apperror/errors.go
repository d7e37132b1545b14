// Package apperror defines the coded errors shared by the route service,
// its transports and clients. Every error carries an ErrorCode that survives
// a gRPC round trip through google.rpc.ErrorInfo.
package apperror

import (
	"errors"
	"fmt"
)

// ErrorCode identifies an error class independently of the transport.
type ErrorCode string

const (
	// Input
	CodeMalformedInput   ErrorCode = "MALFORMED_INPUT"
	CodeMatrixNotFound   ErrorCode = "MATRIX_NOT_FOUND"
	CodeFileNotFound     ErrorCode = "FILE_NOT_FOUND"
	CodeOutOfRangeVertex ErrorCode = "OUT_OF_RANGE_VERTEX"
	CodeMatrixTooLarge   ErrorCode = "MATRIX_TOO_LARGE"
	CodeNilInput         ErrorCode = "NIL_INPUT"
	CodeInvalidAlgorithm ErrorCode = "INVALID_ALGORITHM"

	// General
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeRateLimited     ErrorCode = "RATE_LIMITED"
	CodeTimeout         ErrorCode = "TIMEOUT"
	CodeUnavailable     ErrorCode = "UNAVAILABLE"
	CodeCanceled        ErrorCode = "CANCELED"
	CodeUnimplemented   ErrorCode = "UNIMPLEMENTED"
)

// Error is an application error. Field names the offending input, if any.
type Error struct {
	Code    ErrorCode
	Message string
	Field   string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error without field or cause.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewWithField returns an error attributed to an input field.
func NewWithField(code ErrorCode, message, field string) *Error {
	return &Error{Code: code, Message: message, Field: field}
}

// Wrap keeps cause reachable through errors.Is and errors.As.
func Wrap(cause error, code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithDetails sets one detail and returns e for chaining.
func (e *Error) WithDetails(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// ErrNilMatrix is shared; build a fresh error with New to attach details.
var ErrNilMatrix = New(CodeNilInput, "matrix is nil")

// OutOfRangeVertex reports a vertex outside [low, high]. Both bounds are
// inclusive, so 0-based and 1-based callers share the message.
func OutOfRangeVertex(vertex, low, high int) *Error {
	msg := fmt.Sprintf("received '%d', but must be in range from '%d' to '%d'", vertex, low, high)
	return NewWithField(CodeOutOfRangeVertex, msg, "source").
		WithDetails("vertex", vertex).
		WithDetails("low", low).
		WithDetails("high", high)
}

// FileNotFound reports a file that can be neither read nor written.
func FileNotFound(path string, cause error) *Error {
	msg := fmt.Sprintf("file '%s' not found: can't be read or written", path)
	return Wrap(cause, CodeFileNotFound, msg).WithDetails("path", path)
}

// Is reports whether any *Error in err's chain has the given code.
func Is(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// Code returns the code of the first *Error in err's chain, or CodeInternal.
func Code(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
