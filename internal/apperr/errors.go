// Package apperr defines the single error taxonomy shared by the service and
// HTTP layers. Every error carries the HTTP status it maps to, a client-safe
// message and an optional cause that is only ever logged.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const msgInternal = "Internal server error"

type Error struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%d %s: %v", e.StatusCode, e.Message, e.Cause)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(statusCode int, message string, cause error) *Error {
	return &Error{StatusCode: statusCode, Message: message, Cause: cause}
}

// Validation reports missing or malformed input (400).
func Validation(message string, cause error) *Error {
	return New(http.StatusBadRequest, message, cause)
}

// Conflict reports a duplicate username or email (400, as the API has always answered).
func Conflict(message string, cause error) *Error {
	return New(http.StatusBadRequest, message, cause)
}

// Unauthorized reports a missing/invalid token or a bad password (401).
func Unauthorized(message string, cause error) *Error {
	return New(http.StatusUnauthorized, message, cause)
}

// NotFound reports a missing user (404).
func NotFound(message string, cause error) *Error {
	return New(http.StatusNotFound, message, cause)
}

// Internal reports storage or other unexpected failures (500).
func Internal(cause error) *Error {
	return New(http.StatusInternalServerError, msgInternal, cause)
}

// From returns err as an *Error, wrapping anything unknown as Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// StatusCode returns the HTTP status err maps to.
func StatusCode(err error) int {
	if e := From(err); e != nil {
		return e.StatusCode
	}
	return http.StatusOK
}
