package apperror

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TestError_Error verifies that the Error() method returns the correct string format.
func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without field",
			err:      New(CodeMalformedInput, "count of numbers must be a square of an integer"),
			expected: "[MALFORMED_INPUT] count of numbers must be a square of an integer",
		},
		{
			name:     "with field",
			err:      NewWithField(CodeInvalidArgument, "must not be empty", "matrix"),
			expected: "[INVALID_ARGUMENT] must not be empty (field: matrix)",
		},
		{
			name:     "out of range vertex",
			err:      OutOfRangeVertex(5, 1, 3),
			expected: "[OUT_OF_RANGE_VERTEX] received '5', but must be in range from '1' to '3' (field: source)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestError_Unwrap verifies that the Unwrap() method correctly returns the underlying cause.
func TestError_Unwrap(t *testing.T) {
	cause := errors.New("open input.txt: no such file or directory")
	err := FileNotFound("input.txt", cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if err.Details["path"] != "input.txt" {
		t.Errorf("Details[path] = %v, want input.txt", err.Details["path"])
	}
}

// TestError_GRPCStatus verifies that the GRPCStatus() method maps ErrorCodes to correct gRPC codes.
func TestError_GRPCStatus(t *testing.T) {
	tests := []struct {
		name         string
		code         ErrorCode
		expectedCode codes.Code
	}{
		{"malformed input", CodeMalformedInput, codes.InvalidArgument},
		{"matrix not found", CodeMatrixNotFound, codes.InvalidArgument},
		{"out of range vertex", CodeOutOfRangeVertex, codes.OutOfRange},
		{"file not found", CodeFileNotFound, codes.NotFound},
		{"too large", CodeMatrixTooLarge, codes.ResourceExhausted},
		{"rate limited", CodeRateLimited, codes.ResourceExhausted},
		{"timeout", CodeTimeout, codes.DeadlineExceeded},
		{"canceled", CodeCanceled, codes.Canceled},
		{"internal", CodeInternal, codes.Internal},
		{"unknown", ErrorCode("SOMETHING_ELSE"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "test message")
			st := err.GRPCStatus()
			if st.Code() != tt.expectedCode {
				t.Errorf("GRPCStatus().Code() = %v, want %v", st.Code(), tt.expectedCode)
			}
			if st.Message() != "test message" {
				t.Errorf("GRPCStatus().Message() = %q", st.Message())
			}
		})
	}
}

func TestIs(t *testing.T) {
	base := New(CodeOutOfRangeVertex, "bad vertex")
	wrapped := fmt.Errorf("solve: %w", base)

	if !Is(wrapped, CodeOutOfRangeVertex) {
		t.Error("Is() should see through fmt wrapping")
	}
	if Is(wrapped, CodeMalformedInput) {
		t.Error("Is() matched the wrong code")
	}
	if Is(errors.New("plain"), CodeInternal) {
		t.Error("Is() matched a non-application error")
	}
}

func TestCode(t *testing.T) {
	if got := Code(New(CodeMatrixNotFound, "x")); got != CodeMatrixNotFound {
		t.Errorf("Code() = %v", got)
	}
	if got := Code(errors.New("plain")); got != CodeInternal {
		t.Errorf("Code() for plain error = %v, want %v", got, CodeInternal)
	}
}

func TestToGRPC(t *testing.T) {
	if ToGRPC(nil) != nil {
		t.Error("ToGRPC(nil) should be nil")
	}

	err := ToGRPC(New(CodeOutOfRangeVertex, "bad vertex"))
	if st, _ := status.FromError(err); st.Code() != codes.OutOfRange {
		t.Errorf("code = %v, want OutOfRange", st.Code())
	}

	already := status.Error(codes.Unavailable, "down")
	if got := ToGRPC(already); got != already {
		t.Error("gRPC errors should pass through unchanged")
	}

	if st, _ := status.FromError(ToGRPC(errors.New("boom"))); st.Code() != codes.Internal {
		t.Errorf("plain error code = %v, want Internal", st.Code())
	}
}

// TestFromGRPC_RoundTrip checks that the ErrorInfo detail restores the exact code,
// which is how MalformedInput and MatrixNotFound stay distinct across the wire.
func TestFromGRPC_RoundTrip(t *testing.T) {
	for _, code := range []ErrorCode{CodeMalformedInput, CodeMatrixNotFound, CodeOutOfRangeVertex} {
		t.Run(string(code), func(t *testing.T) {
			orig := NewWithField(code, "message", "matrix")
			got := FromGRPC(ToGRPC(orig))
			if got.Code != code {
				t.Errorf("Code = %v, want %v", got.Code, code)
			}
			if got.Field != "matrix" {
				t.Errorf("Field = %q, want matrix", got.Field)
			}
			if got.Message != "message" {
				t.Errorf("Message = %q", got.Message)
			}
		})
	}
}

func TestFromGRPC_PlainStatus(t *testing.T) {
	tests := []struct {
		code     codes.Code
		expected ErrorCode
	}{
		{codes.InvalidArgument, CodeInvalidArgument},
		{codes.OutOfRange, CodeOutOfRangeVertex},
		{codes.NotFound, CodeNotFound},
		{codes.ResourceExhausted, CodeRateLimited},
		{codes.Unavailable, CodeUnavailable},
		{codes.DataLoss, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			got := FromGRPC(status.Error(tt.code, "msg"))
			if got.Code != tt.expected {
				t.Errorf("FromGRPC() code = %v, want %v", got.Code, tt.expected)
			}
		})
	}

	if FromGRPC(nil) != nil {
		t.Error("FromGRPC(nil) should be nil")
	}
	if got := FromGRPC(errors.New("plain")); got.Code != CodeInternal {
		t.Errorf("plain error = %v", got.Code)
	}
}

func TestFromGRPC_Details(t *testing.T) {
	got := FromGRPC(ToGRPC(OutOfRangeVertex(9, 0, 2)))

	if got.Field != "source" {
		t.Errorf("Field = %q, want source", got.Field)
	}
	if got.Details["vertex"] != "9" || got.Details["high"] != "2" {
		t.Errorf("Details = %v", got.Details)
	}
	if _, ok := got.Details[fieldKey]; ok {
		t.Error("field must not leak into details")
	}
}

func TestGRPCCode_Table(t *testing.T) {
	// каждый код, известный FromGRPC, должен отображаться обратно в тот же gRPC код
	for grpcCode, appCode := range fromGRPCCode {
		if got := GRPCCode(appCode); got != grpcCode {
			t.Errorf("GRPCCode(%s) = %v, want %v", appCode, got, grpcCode)
		}
	}
}
