package interaction

import (
	"github.com/dshills/glossa/internal/selection"
)

// Kind identifies the active variant of the interaction state.
type Kind uint8

const (
	// KindNone means nothing is shown.
	KindNone Kind = iota
	// KindAffordance means the add-note affordance is visible.
	KindAffordance
	// KindPreview means a note preview is visible.
	KindPreview
	// KindEditor means the note editor is open.
	KindEditor
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAffordance:
		return "affordance"
	case KindPreview:
		return "preview"
	case KindEditor:
		return "editor"
	default:
		return "unknown"
	}
}

// State is the visible interaction state. Only the fields relevant to Kind
// are set.
type State struct {
	Kind Kind

	// At is where the affordance or preview is drawn.
	At selection.Position

	// ID is the note shown by a preview or editor.
	ID string

	// Range is the selection an affordance offers to annotate.
	Range selection.Range
}

// None is the empty state.
var None = State{}

// Is reports whether the state shows note id in a preview or editor.
func (s State) Is(kind Kind, id string) bool {
	return s.Kind == kind && s.ID == id
}
