package document

import (
	"unicode/utf8"

	"golang.org/x/net/html"
)

// InsertText inserts text at b and returns the boundary just past it.
// Inserting at an element boundary creates a new text node there.
func (d *Document) InsertText(b Boundary, text string) (Boundary, error) {
	if b.Node == nil || !d.Contains(b.Node) {
		return Boundary{}, ErrNodeNotInDocument
	}
	if text == "" {
		return b, nil
	}

	if IsText(b.Node) {
		t := b.Node
		if b.Offset < 0 || b.Offset > len(t.Data) {
			return Boundary{}, ErrOffsetOutOfRange
		}
		if b.Offset < len(t.Data) && !utf8.RuneStart(t.Data[b.Offset]) {
			return Boundary{}, ErrSplitsRune
		}
		t.Data = t.Data[:b.Offset] + text + t.Data[b.Offset:]
		return Boundary{Node: t, Offset: b.Offset + len(text)}, nil
	}

	if b.Offset < 0 || b.Offset > ChildCount(b.Node) {
		return Boundary{}, ErrOffsetOutOfRange
	}
	t := NewText(text)
	if ref := ChildAt(b.Node, b.Offset); ref != nil {
		b.Node.InsertBefore(t, ref)
	} else {
		b.Node.AppendChild(t)
	}
	return Boundary{Node: t, Offset: len(text)}, nil
}

// DeleteBefore removes the character preceding b and returns the boundary
// where it used to start. Text nodes left empty are removed; elements,
// including emptied ones, are kept.
func (d *Document) DeleteBefore(b Boundary) (Boundary, error) {
	off, err := d.OffsetOf(b)
	if err != nil {
		return Boundary{}, err
	}
	if off == 0 {
		return b, nil
	}

	prev, err := d.BoundaryAt(off, AffinityBackward)
	if err != nil {
		return Boundary{}, err
	}
	t := prev.Node
	if !IsText(t) || prev.Offset == 0 {
		return b, nil
	}

	_, size := utf8.DecodeLastRuneInString(t.Data[:prev.Offset])
	t.Data = t.Data[:prev.Offset-size] + t.Data[prev.Offset:]
	if t.Data != "" {
		return Boundary{Node: t, Offset: prev.Offset - size}, nil
	}

	parent := t.Parent
	index := ChildIndex(t)
	parent.RemoveChild(t)
	if d.Len() == 0 {
		return Boundary{Node: parent, Offset: index}, nil
	}
	return d.BoundaryAt(off-ByteOffset(size), AffinityBackward)
}

// Children returns the children of n as a slice.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}
