package document

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ByteOffset is a byte position in the document's text content.
type ByteOffset int

// Affinity picks a side when an offset sits on the seam between two text nodes.
type Affinity uint8

const (
	// AffinityForward resolves to the start of the following text node.
	AffinityForward Affinity = iota
	// AffinityBackward resolves to the end of the preceding text node.
	AffinityBackward
)

// Boundary is a point in the document tree.
// For text nodes Offset is a byte offset into Data; for elements it is a child index.
type Boundary struct {
	Node   *html.Node
	Offset int
}

// IsZero reports whether the boundary is unset.
func (b Boundary) IsZero() bool {
	return b.Node == nil
}

// InText reports whether the boundary points into a text node.
func (b Boundary) InText() bool {
	return IsText(b.Node)
}

// Document is the editable region: a synthetic root element and its subtree.
type Document struct {
	root *html.Node
}

func newRoot() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
}

// New creates an empty document.
func New() *Document {
	return &Document{root: newRoot()}
}

// Parse builds a document from markup as found inside the editable region.
func Parse(markup string) (*Document, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), newRoot())
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	root := newRoot()
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return &Document{root: root}, nil
}

// Root returns the element standing for the editable region.
func (d *Document) Root() *html.Node {
	return d.root
}

// Render serializes the contents of the editable region.
func (d *Document) Render() (string, error) {
	var b strings.Builder
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", fmt.Errorf("render document: %w", err)
		}
	}
	return b.String(), nil
}

// TextContent returns the concatenation of every text node in tree order.
func (d *Document) TextContent() string {
	return TextOf(d.root)
}

// Len returns the byte length of the text content.
func (d *Document) Len() ByteOffset {
	return TextLen(d.root)
}

// Contains reports whether n belongs to the document (the root included).
func (d *Document) Contains(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == d.root {
			return true
		}
	}
	return false
}

// TextNodes returns the non-empty text nodes in tree order.
func (d *Document) TextNodes() []*html.Node {
	var nodes []*html.Node
	Walk(d.root, func(n *html.Node) bool {
		if n.Type == html.TextNode && n.Data != "" {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}

// Find returns every element in the document matching pred, in tree order.
func (d *Document) Find(pred func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	Walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n != d.root && pred(n) {
			found = append(found, n)
		}
		return true
	})
	return found
}

// BoundaryAt converts a text offset into a boundary inside a text node.
// An empty document resolves to the start of the root.
func (d *Document) BoundaryAt(off ByteOffset, aff Affinity) (Boundary, error) {
	if off < 0 {
		return Boundary{}, ErrOffsetOutOfRange
	}
	var (
		pos  ByteOffset
		last *html.Node
	)
	for _, t := range d.TextNodes() {
		n := ByteOffset(len(t.Data))
		if off < pos+n || (off == pos+n && aff == AffinityBackward) {
			local := int(off - pos)
			if local < len(t.Data) && !utf8.RuneStart(t.Data[local]) {
				return Boundary{}, ErrSplitsRune
			}
			return Boundary{Node: t, Offset: local}, nil
		}
		pos += n
		last = t
	}
	if off > pos {
		return Boundary{}, ErrOffsetOutOfRange
	}
	if last != nil {
		return Boundary{Node: last, Offset: len(last.Data)}, nil
	}
	return Boundary{Node: d.root, Offset: ChildCount(d.root)}, nil
}

// OffsetOf converts a boundary into a text offset.
func (d *Document) OffsetOf(b Boundary) (ByteOffset, error) {
	if b.Node == nil || !d.Contains(b.Node) {
		return 0, ErrNodeNotInDocument
	}
	if IsText(b.Node) {
		if b.Offset < 0 || b.Offset > len(b.Node.Data) {
			return 0, ErrOffsetOutOfRange
		}
		return d.textBefore(b.Node) + ByteOffset(b.Offset), nil
	}
	if b.Offset < 0 || b.Offset > ChildCount(b.Node) {
		return 0, ErrOffsetOutOfRange
	}
	if c := ChildAt(b.Node, b.Offset); c != nil {
		return d.textBefore(c), nil
	}
	return d.textBefore(b.Node) + TextLen(b.Node), nil
}

// textBefore sums the text of every text node that precedes target in tree
// order, excluding target's own subtree.
func (d *Document) textBefore(target *html.Node) ByteOffset {
	var (
		total ByteOffset
		found bool
	)
	Walk(d.root, func(n *html.Node) bool {
		if found {
			return false
		}
		if n == target {
			found = true
			return false
		}
		if n.Type == html.TextNode {
			total += ByteOffset(len(n.Data))
		}
		return true
	})
	return total
}

// TextNodeAt returns the text node holding the character that starts at off
// and the local offset of that character.
func (d *Document) TextNodeAt(off ByteOffset) (*html.Node, int, bool) {
	if off < 0 || off >= d.Len() {
		return nil, 0, false
	}
	b, err := d.BoundaryAt(off, AffinityForward)
	if err != nil || !b.InText() || b.Offset >= len(b.Node.Data) {
		return nil, 0, false
	}
	return b.Node, b.Offset, true
}

// Slice returns the text content between two offsets.
func (d *Document) Slice(start, end ByteOffset) (string, error) {
	text := d.TextContent()
	if start < 0 || end > ByteOffset(len(text)) || start > end {
		return "", ErrOffsetOutOfRange
	}
	return text[start:end], nil
}
