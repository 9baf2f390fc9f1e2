package client

import (
	"context"
	"errors"
	"fmt"
)

// APIError is a failed call. Status is 0 when the API could not be reached.
type APIError struct {
	Status  int
	Code    string
	Name    string
	Message string
	Method  string
	Path    string
	Body    []byte
	Err     error

	friendly string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status, 0 for transport failures.
func (e *APIError) StatusCode() int { return e.Status }

// ErrorCode returns the backend error code, if any.
func (e *APIError) ErrorCode() string { return e.Code }

// Friendly returns the operator-facing text chosen by failure classification,
// or the mapped backend message when the error was not classified.
func (e *APIError) Friendly() string {
	if e.friendly != "" {
		return e.friendly
	}
	return FriendlyMessage(e.Code, e.Message)
}

// IsTransport reports whether the call never produced an HTTP response.
func (e *APIError) IsTransport() bool { return e.Status == 0 }

// IsCanceled reports whether the call was abandoned by its caller.
func (e *APIError) IsCanceled() bool { return errors.Is(e.Err, context.Canceled) }

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Status
	}
	return 0
}
