package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorType represents the class of a failure reported for one identifier
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeNotPending  ErrorType = "not_pending"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeInternal    ErrorType = "internal"
	ErrorTypeCanceled    ErrorType = "canceled"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a typed failure. Code carries the HTTP status when there was one.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same type, so the Reason* values below work
// with errors.Is regardless of message or code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// Reasons recorded against failed identifiers
var (
	ReasonNotFound   = &Error{Type: ErrorTypeNotFound, Message: "user not found"}
	ReasonNotPending = &Error{Type: ErrorTypeNotPending, Message: "no pending follow request"}
	ReasonRateLimit  = &Error{Type: ErrorTypeRateLimit, Message: "rate limited"}
	ReasonAuth       = &Error{Type: ErrorTypeAuth, Message: "session rejected"}
	ReasonNetwork    = &Error{Type: ErrorTypeNetwork, Message: "network failure"}
	ReasonServer     = &Error{Type: ErrorTypeServerError, Message: "server error"}
	ReasonParsing    = &Error{Type: ErrorTypeParsing, Message: "unexpected response"}
	ReasonInternal   = &Error{Type: ErrorTypeInternal, Message: "internal error"}
	ReasonCanceled   = &Error{Type: ErrorTypeCanceled, Message: "canceled"}
	ReasonUnknown    = &Error{Type: ErrorTypeUnknown, Message: "unknown failure"}
)

// New creates a typed error
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates a typed error around err
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// Internal converts a recovered panic value into a typed error
func Internal(recovered interface{}) *Error {
	if err, ok := recovered.(error); ok {
		return &Error{Type: ErrorTypeInternal, Message: fmt.Sprintf("panic: %v", err), Err: err}
	}
	return &Error{Type: ErrorTypeInternal, Message: fmt.Sprintf("panic: %v", recovered)}
}

// FromStatusCode maps an HTTP status to a typed error
func FromStatusCode(statusCode int, message string) *Error {
	var t ErrorType
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		t = ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		t = ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		t = ErrorTypeRateLimit
	case statusCode >= 500:
		t = ErrorTypeServerError
	default:
		t = ErrorTypeUnknown
	}
	return &Error{Type: t, Message: message, Code: statusCode}
}

// TypeOf classifies an arbitrary error. Plain network and context errors
// are recognised even when they were never wrapped in *Error.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}

	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeCanceled
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return ErrorTypeNetwork
	}
	return ErrorTypeUnknown
}

// IsFatalForRun reports whether a failure of this type means later items will
// fail the same way. The caller may use it to stop early; the runner does not.
func IsFatalForRun(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeAuth, ErrorTypeCanceled:
		return true
	default:
		return false
	}
}
