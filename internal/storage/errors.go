package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the key has never been written.
	ErrNotFound = errors.New("storage: key not found")

	// ErrUnavailable marks every backend failure.
	ErrUnavailable = errors.New("storage: unavailable")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("storage: closed")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("storage: unknown backend")
)

// OpError records a failed backend operation.
type OpError struct {
	Op  string
	Key string
	Err error
}

func (e *OpError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap exposes both ErrUnavailable and the backend error.
func (e *OpError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

func opError(op, key string, err error) error {
	return &OpError{Op: op, Key: key, Err: err}
}
