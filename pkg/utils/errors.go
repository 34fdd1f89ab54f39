package utils

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// CustomError represents a custom application error
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Common error constructors
func NewBadRequestError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

func NewInternalServerError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: message,
	}
}

func NewTimeoutError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusRequestTimeout,
		Message: message,
	}
}

// ValidationError marks a malformed SearchRequest, rejected before any
// network call.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Detail
}

func NewValidationError(detail string) *ValidationError {
	return &ValidationError{Detail: detail}
}

// HandshakeError marks a failed CSRF/session bootstrap. It is fatal to the
// session; the caller must reopen before issuing further requests.
type HandshakeError struct {
	Cause error
}

func (e *HandshakeError) Error() string {
	if e.Cause != nil {
		return "session handshake failed: " + e.Cause.Error()
	}
	return "session handshake failed"
}

func (e *HandshakeError) Unwrap() error { return e.Cause }

// RequestFailedError marks a single exchange that failed after retries.
// It is fatal to that page but not to the session.
type RequestFailedError struct {
	Status int
	Cause  error
}

func (e *RequestFailedError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed: %v", e.Cause)
}

func (e *RequestFailedError) Unwrap() error { return e.Cause }

// RateLimitedError is the distinguished 429 signal. It is never retried
// silently; pagination surfaces it as a stop reason.
type RateLimitedError struct {
	RetryAfter time.Duration // zero when the provider sent no hint
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// NotFoundError marks a detail fetch for an unknown provider id
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no listing found for id %q", e.ID)
}

func NewNotFoundError(id string) *NotFoundError {
	return &NotFoundError{ID: id}
}

// UnresolvedLocationError marks a forward resolution miss: the query
// matched no municipality. Non-fatal; callers decide whether to
// proceed with an unfiltered location.
type UnresolvedLocationError struct {
	Query string
}

func (e *UnresolvedLocationError) Error() string {
	return fmt.Sprintf("location %q did not resolve to a municipality", e.Query)
}

func NewUnresolvedLocationError(query string) *UnresolvedLocationError {
	return &UnresolvedLocationError{Query: query}
}

// IsUnresolvedLocation reports whether err is a forward resolution miss
func IsUnresolvedLocation(err error) bool {
	var u *UnresolvedLocationError
	return errors.As(err, &u)
}

// UnknownCodeError marks a reverse lookup of an unrecognized BFS code.
// It must never silently default to a canton.
type UnknownCodeError struct {
	Code string
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown municipal code %q", e.Code)
}

func NewUnknownCodeError(code string) *UnknownCodeError {
	return &UnknownCodeError{Code: code}
}

// IsRateLimited reports whether err carries the rate-limit signal
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}
