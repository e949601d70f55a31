// Package domainerrors provides code-tagged errors for domain and service
// layers. Services return these instead of raw infrastructure errors so
// transport code can translate failures into HTTP statuses without string
// matching. For infrastructure facts (not found, expired), stores return
// pkg/platform/sentinel errors and services wrap them here.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error. The set is closed; adding a code requires
// a corresponding entry in ToHTTPStatus.
type Code string

const (
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeUnavailable        Code = "unavailable"
	CodeInternal           Code = "internal_error"
)

// DomainError carries a classification code alongside a human-readable
// message and an optional wrapped cause.
type DomainError struct {
	Code    Code
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is makes errors.Is match any DomainError with the same code, so sentinel
// style comparisons like errors.Is(err, identity.ErrAccountLocked) work even
// when the error was re-wrapped with extra context.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New constructs a DomainError with the given code and message.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Newf constructs a DomainError with a formatted message.
func Newf(code Code, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause chain for errors.Is/As.
func Wrap(err error, code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) is a DomainError with
// the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// CodeOf extracts the code from err, or CodeInternal when err is not a
// DomainError. Unclassified failures must never leak a softer status.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain error code to its transport status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
