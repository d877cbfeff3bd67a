package interaction

import "errors"

var (
	// ErrNoAffordance is returned by Activate when no affordance is shown.
	ErrNoAffordance = errors.New("interaction: no affordance to activate")

	// ErrNoOpenNote is returned by note actions when neither a preview nor
	// an editor is open.
	ErrNoOpenNote = errors.New("interaction: no open note")

	// ErrStateClosed is returned after Close.
	ErrStateClosed = errors.New("interaction: controller closed")
)
