package kv

import (
	"errors"
	"fmt"
)

// Sentinel errors for the common store responses.
var (
	// ErrKeyNotFound is returned for 404 responses on key operations.
	ErrKeyNotFound = errors.New("kv: key not found")

	// ErrNotAuthorized is returned for 401/403 responses, typically an
	// expired or missing session.
	ErrNotAuthorized = errors.New("kv: not authorized")
)

// ServerError is returned for 5xx responses. Message carries the server's
// JSON "error" field when the body provides one.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("kv: server error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("kv: server error (status %d): %s", e.StatusCode, e.Message)
}
