package selection

import (
	"fmt"

	"github.com/dshills/glossa/internal/document"
)

// Rect is a bounding rectangle in the document's coordinate space.
type Rect struct {
	Top    int
	Left   int
	Bottom int
	Right  int
}

// Empty reports whether the rectangle has no area and no origin.
func (r Rect) Empty() bool {
	return r == Rect{}
}

// Position is a point in the document's coordinate space.
type Position struct {
	Top  int
	Left int
}

// Range is a selection with its ends in document order.
type Range struct {
	// Start and End are the ends of the selection, Start first.
	Start document.Boundary
	End   document.Boundary

	// StartOffset and EndOffset are the text offsets of Start and End.
	StartOffset document.ByteOffset
	EndOffset   document.ByteOffset

	// Backward is set when the user selected from End towards Start.
	Backward bool

	// Collapsed is set when both ends sit at the same text offset.
	Collapsed bool

	// Rect bounds the selected text; zero when the host has no geometry.
	Rect Rect
}

// Anchor returns the end where the selection began.
func (r Range) Anchor() document.Boundary {
	if r.Backward {
		return r.End
	}
	return r.Start
}

// Focus returns the end where the selection currently stops.
func (r Range) Focus() document.Boundary {
	if r.Backward {
		return r.Start
	}
	return r.End
}

// Len returns the byte length of the selected text.
func (r Range) Len() document.ByteOffset {
	return r.EndOffset - r.StartOffset
}

// Text returns the selected text of d.
func (r Range) Text(d *document.Document) string {
	s, err := d.Slice(r.StartOffset, r.EndOffset)
	if err != nil {
		return ""
	}
	return s
}

// TrailingEdge returns where the add-affordance for this range belongs: the
// top right corner of its bounding rectangle.
func (r Range) TrailingEdge() Position {
	return Position{Top: r.Rect.Top, Left: r.Rect.Right}
}

// Normalize orders anchor and focus in d and builds a Range from them.
func Normalize(d *document.Document, anchor, focus document.Boundary, rect Rect) (Range, error) {
	a, err := d.OffsetOf(anchor)
	if err != nil {
		return Range{}, fmt.Errorf("resolve anchor: %w", err)
	}
	f, err := d.OffsetOf(focus)
	if err != nil {
		return Range{}, fmt.Errorf("resolve focus: %w", err)
	}

	r := Range{
		Start:       anchor,
		End:         focus,
		StartOffset: a,
		EndOffset:   f,
		Collapsed:   a == f,
		Rect:        rect,
	}
	if f < a {
		r.Start, r.End = focus, anchor
		r.StartOffset, r.EndOffset = f, a
		r.Backward = true
	}
	return r, nil
}

// FromOffsets builds a Range covering the text between two byte offsets.
// The ends are resolved so that they hug the selected text: start binds to
// the following text node, end to the preceding one.
func FromOffsets(d *document.Document, start, end document.ByteOffset) (Range, error) {
	backward := end < start
	if backward {
		start, end = end, start
	}
	sb, err := d.BoundaryAt(start, document.AffinityForward)
	if err != nil {
		return Range{}, fmt.Errorf("resolve start: %w", err)
	}
	eb, err := d.BoundaryAt(end, document.AffinityBackward)
	if err != nil {
		return Range{}, fmt.Errorf("resolve end: %w", err)
	}
	return Range{
		Start:       sb,
		End:         eb,
		StartOffset: start,
		EndOffset:   end,
		Backward:    backward,
		Collapsed:   start == end,
	}, nil
}
