package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event bus.
var (
	// ErrInvalidTopic is returned when a topic or pattern is empty or malformed.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrHandlerPanic is wrapped by PanicError.
	ErrHandlerPanic = errors.New("handler panicked")
)

// PanicError describes a recovered handler panic.
type PanicError struct {
	Topic string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler for %s panicked: %v", e.Topic, e.Value)
}

// Is reports ErrHandlerPanic as the sentinel for every PanicError.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
