package annotation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPolicy is returned by ParsePolicy for an unsupported name.
	ErrUnknownPolicy = errors.New("unknown reconcile policy")

	// ErrNotesDeferred is reported for the notes entry when it was not
	// written because the content write failed.
	ErrNotesDeferred = errors.New("held until content is saved")
)

// PersistError reports which session entries failed to persist.
// The engine state is already mutated when it is returned.
type PersistError struct {
	Content error
	Notes   error
}

func (e *PersistError) Error() string {
	var parts []string
	if e.Content != nil {
		parts = append(parts, fmt.Sprintf("content: %v", e.Content))
	}
	if e.Notes != nil {
		parts = append(parts, fmt.Sprintf("notes: %v", e.Notes))
	}
	return "persist " + strings.Join(parts, "; ")
}

// Unwrap returns the underlying failures.
func (e *PersistError) Unwrap() []error {
	var errs []error
	if e.Content != nil {
		errs = append(errs, e.Content)
	}
	if e.Notes != nil {
		errs = append(errs, e.Notes)
	}
	return errs
}
