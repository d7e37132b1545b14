package apperror

import (
	"errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain is the google.rpc.ErrorInfo domain of routefinder errors.
const ErrorDomain = "routefinder"

const fieldKey = "field"

var toGRPCCode = map[ErrorCode]codes.Code{
	CodeMalformedInput:   codes.InvalidArgument,
	CodeMatrixNotFound:   codes.InvalidArgument,
	CodeInvalidArgument:  codes.InvalidArgument,
	CodeNilInput:         codes.InvalidArgument,
	CodeInvalidAlgorithm: codes.InvalidArgument,
	CodeOutOfRangeVertex: codes.OutOfRange,
	CodeFileNotFound:     codes.NotFound,
	CodeNotFound:         codes.NotFound,
	CodeMatrixTooLarge:   codes.ResourceExhausted,
	CodeRateLimited:      codes.ResourceExhausted,
	CodeTimeout:          codes.DeadlineExceeded,
	CodeCanceled:         codes.Canceled,
	CodeUnavailable:      codes.Unavailable,
	CodeUnimplemented:    codes.Unimplemented,
}

// fromGRPCCode is used for statuses that carry no ErrorInfo.
var fromGRPCCode = map[codes.Code]ErrorCode{
	codes.InvalidArgument:   CodeInvalidArgument,
	codes.OutOfRange:        CodeOutOfRangeVertex,
	codes.NotFound:          CodeNotFound,
	codes.DeadlineExceeded:  CodeTimeout,
	codes.ResourceExhausted: CodeRateLimited,
	codes.Unavailable:       CodeUnavailable,
	codes.Canceled:          CodeCanceled,
	codes.Unimplemented:     CodeUnimplemented,
}

// GRPCCode maps an ErrorCode to a gRPC code; unknown codes become Internal.
func GRPCCode(code ErrorCode) codes.Code {
	if c, ok := toGRPCCode[code]; ok {
		return c
	}
	return codes.Internal
}

// GRPCStatus lets status.FromError recognise *Error. The code, field and
// details travel as google.rpc.ErrorInfo so FromGRPC can restore them.
func (e *Error) GRPCStatus() *status.Status {
	st := status.New(GRPCCode(e.Code), e.Message)

	meta := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		meta[k] = fmt.Sprint(v)
	}
	if e.Field != "" {
		meta[fieldKey] = e.Field
	}

	info := &errdetails.ErrorInfo{Reason: string(e.Code), Domain: ErrorDomain}
	if len(meta) > 0 {
		info.Metadata = meta
	}
	if withInfo, err := st.WithDetails(info); err == nil {
		return withInfo
	}
	return st
}

// ToGRPC converts err to a status error. Status errors pass through,
// anything else becomes Internal.
func ToGRPC(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e.GRPCStatus().Err()
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Internal, err.Error())
}

// FromGRPC restores an *Error from a status error. Details come back as strings.
func FromGRPC(err error) *Error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return New(CodeInternal, err.Error())
	}

	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		e := New(ErrorCode(info.GetReason()), st.Message())
		for k, v := range info.GetMetadata() {
			if k == fieldKey {
				e.Field = v
			} else {
				e.WithDetails(k, v)
			}
		}
		return e
	}

	code, ok := fromGRPCCode[st.Code()]
	if !ok {
		code = CodeInternal
	}
	return New(code, st.Message())
}
