// Package domainerrors provides coded domain errors shared across services
// and transports. Services create or wrap errors with a Code; handlers
// translate codes into HTTP statuses without inspecting error strings.
// Conventionally imported as dErrors.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and retry decisions.
type Code string

const (
	// CodeValidation marks caller input that fails a business rule. Surfaced
	// to the UI for correction, never defaulted.
	CodeValidation Code = "validation"

	// CodeBadRequest marks a malformed request (unparseable body, bad id).
	CodeBadRequest Code = "bad_request"

	// CodeInvalidInput marks a field-level parse failure at a trust boundary.
	CodeInvalidInput Code = "invalid_input"

	// CodeNotFound marks operations referencing records that do not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict marks optimistic-concurrency rejections that remain after
	// retries, and uniqueness violations.
	CodeConflict Code = "conflict"

	// CodeInvalidTransition marks a status-changing event that is not legal
	// from the participant's current status. Always logged with full context.
	CodeInvalidTransition Code = "invalid_transition"

	// CodeInvariantViolation marks a broken aggregate invariant. These are
	// programming or data-integrity errors.
	CodeInvariantViolation Code = "invariant_violation"

	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"

	// CodeUnavailable marks an unreachable or timed-out persistence store.
	CodeUnavailable Code = "unavailable"

	CodeTimeout  Code = "timeout"
	CodeInternal Code = "internal"
)

// Error is the concrete coded error. Services usually handle it through
// HasCode rather than type assertions.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err, or anything it wraps, carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			return false
		}
	}
	return false
}

// Is is shorthand for HasCode, reading naturally at call sites:
// dErrors.Is(err, dErrors.CodeNotFound).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto its transport status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidTransition, CodeInvariantViolation:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
