package errors

import (
	"errors"
	"fmt"
)

// Domain errors surfaced by the agent.
var (
	// Upstream API
	ErrProjectNotFound   = errors.New("project not found")
	ErrWorkOrderNotFound = errors.New("work order not found")
	ErrUnauthorized      = errors.New("upstream rejected credentials")
	ErrUpstream          = errors.New("upstream request failed")

	// Local API validation
	ErrInvalidProjectID   = errors.New("project ID must be a positive integer")
	ErrInvalidWorkOrderID = errors.New("work order ID must be a positive integer")

	// Cache store
	ErrCacheClosed = errors.New("cache store is closed")

	// Generic
	ErrBadRequest = errors.New("bad request")
	ErrInternal   = errors.New("internal error")
)

// AppError wraps errors with the context the HTTP layer needs to build a
// response.
type AppError struct {
	Err        error
	Message    string
	Code       string
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}

func NewUpstreamError(err error) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %w", ErrUpstream, err),
		Message:    "The work-order server could not be reached",
		Code:       "UPSTREAM_UNAVAILABLE",
		StatusCode: 502,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: 500,
	}
}
