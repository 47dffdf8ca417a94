package service

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("service client is closed")

// DecodeError is returned when a response body does not match the requested
// decode strategy.
type DecodeError struct {
	Strategy DecodeStrategy
	Cause    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response as %s: %v", e.Strategy, e.Cause)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}
