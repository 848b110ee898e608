package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so clones compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrSessionNotFound    = New("SESSION_NOT_FOUND", http.StatusNotFound, "planning session not found")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrSubmission         = New("SUBMISSION_ERROR", http.StatusUnprocessableEntity, "generation request rejected")
	ErrTransientFetch     = New("TRANSIENT_FETCH_ERROR", http.StatusBadGateway, "optimizer backend unreachable")
	ErrGenerationFailed   = New("GENERATION_FAILED", http.StatusUnprocessableEntity, "schedule generation failed")
	ErrInvalidConfig      = New("INVALID_CONFIG", http.StatusBadRequest, "constraint config invalid")
	ErrInvalidTransition  = New("INVALID_TRANSITION", http.StatusConflict, "pattern status transition not allowed")
	ErrInvalidState       = New("INVALID_STATE", http.StatusConflict, "pattern is finalized")
	ErrValidationRejected = New("VALIDATION_REJECTED", http.StatusUnprocessableEntity, "edit violates hard constraints")
	ErrEditInFlight       = New("EDIT_IN_FLIGHT", http.StatusConflict, "an edit for this entry is already in progress")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// InvalidConfig reports a constraint config failure for a specific field.
func InvalidConfig(field, message string) *Error {
	clone := Clone(ErrInvalidConfig, message)
	clone.Field = field
	return clone
}

// Transient wraps a transport-level failure.
func Transient(err error, message string) *Error {
	return Wrap(err, ErrTransientFetch.Code, ErrTransientFetch.Status, message)
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
