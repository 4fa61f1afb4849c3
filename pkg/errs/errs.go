// Package errs defines the business error type shared across handlers.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a coded business error with an HTTP mapping.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Cause      error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessagef returns a copy with a formatted message.
func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// WithCause returns a copy wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	c := *e
	c.Cause = cause
	return &c
}

// New creates an error defaulting to HTTP 500.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: http.StatusInternalServerError}
}

// NewWithStatus creates an error with an explicit HTTP status.
func NewWithStatus(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: status}
}

// AsError extracts an *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
