package annotation

import (
	"golang.org/x/net/html"

	"github.com/dshills/glossa/internal/document"
	"github.com/dshills/glossa/internal/selection"
)

// Span attributes.
const (
	IDAttr                = "data-note-id"
	DefaultHighlightClass = "note-highlight"
)

// RejectReason says why a range could not be wrapped.
type RejectReason uint8

const (
	// RejectNone means the range was wrapped.
	RejectNone RejectReason = iota
	// RejectCollapsed means the range selects no text.
	RejectCollapsed
	// RejectCrossesBoundary means no single inline parent holds the range.
	RejectCrossesBoundary
	// RejectOverlaps means the range intersects an existing span.
	RejectOverlaps
	// RejectStale means an end of the range is not in the document.
	RejectStale
)

// String returns the reason's name.
func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectCollapsed:
		return "collapsed"
	case RejectCrossesBoundary:
		return "crosses-boundary"
	case RejectOverlaps:
		return "overlaps"
	case RejectStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Rejected reports whether r is an actual rejection.
func (r RejectReason) Rejected() bool {
	return r != RejectNone
}

// IsSpan reports whether n is an annotation span.
func IsSpan(n *html.Node) bool {
	if !document.IsElement(n) {
		return false
	}
	_, ok := document.Attr(n, IDAttr)
	return ok
}

// SpanID returns the annotation id of a span.
func SpanID(n *html.Node) string {
	id, _ := document.Attr(n, IDAttr)
	return id
}

// TryWrapRange wraps the text selected by rng in a new span tagged with id.
// On rejection the document is left unmodified.
func TryWrapRange(doc *document.Document, rng selection.Range, id string) (*html.Node, RejectReason) {
	return wrapRange(doc, rng, id, DefaultHighlightClass)
}

// edge is one end of a range expressed against a parent element. When split
// is set the end falls inside that text node, at byte offset at.
type edge struct {
	parent *html.Node
	index  int
	split  *html.Node
	at     int
}

func wrapRange(doc *document.Document, rng selection.Range, id, class string) (*html.Node, RejectReason) {
	start, end := rng.Start, rng.End
	if start.IsZero() || end.IsZero() || !doc.Contains(start.Node) || !doc.Contains(end.Node) {
		return nil, RejectStale
	}
	so, err := doc.OffsetOf(start)
	if err != nil {
		return nil, RejectStale
	}
	eo, err := doc.OffsetOf(end)
	if err != nil {
		return nil, RejectStale
	}
	if so == eo {
		return nil, RejectCollapsed
	}
	if eo < so {
		start, end = end, start
	}

	root := doc.Root()
	s, e, ok := commonEdges(liftChain(root, edgeOf(start)), liftChain(root, edgeOf(end)))
	if !ok {
		if insideSpan(start.Node) || insideSpan(end.Node) {
			return nil, RejectOverlaps
		}
		return nil, RejectCrossesBoundary
	}
	if insideSpan(s.parent) {
		return nil, RejectOverlaps
	}

	first := s.split
	if first == nil {
		first = document.ChildAt(s.parent, s.index)
	}
	last := e.split
	if last == nil {
		last = document.ChildAt(e.parent, e.index-1)
	}
	if first == nil || last == nil || document.ChildIndex(first) > document.ChildIndex(last) {
		return nil, RejectCollapsed
	}

	reason := RejectNone
	for n := first; ; n = n.NextSibling {
		switch {
		case containsMatch(n, IsSpan):
			return nil, RejectOverlaps
		case containsMatch(n, document.IsBlock):
			reason = RejectCrossesBoundary
		}
		if n == last {
			break
		}
	}
	if reason.Rejected() {
		return nil, reason
	}

	// Validation is complete; mutate. The end is split first so the start
	// offset stays valid when both ends share a text node.
	if e.split != nil {
		if _, err := document.SplitText(e.split, e.at); err != nil {
			return nil, RejectStale
		}
	}
	if s.split != nil {
		rest, err := document.SplitText(s.split, s.at)
		if err != nil {
			return nil, RejectStale
		}
		if last == s.split {
			last = rest
		}
		first = rest
	}

	span := document.NewElement("span", "class", class, IDAttr, id)
	s.parent.InsertBefore(span, first)
	for n := first; n != nil; {
		next := n.NextSibling
		s.parent.RemoveChild(n)
		span.AppendChild(n)
		if n == last {
			break
		}
		n = next
	}
	return span, RejectNone
}

// edgeOf converts a boundary into an edge relative to a parent element.
func edgeOf(b document.Boundary) edge {
	if !b.InText() {
		return edge{parent: b.Node, index: b.Offset}
	}
	t := b.Node
	i := document.ChildIndex(t)
	switch {
	case b.Offset <= 0:
		return edge{parent: t.Parent, index: i}
	case b.Offset >= len(t.Data):
		return edge{parent: t.Parent, index: i + 1}
	default:
		return edge{parent: t.Parent, index: i + 1, split: t, at: b.Offset}
	}
}

// liftChain lists the positions equivalent to e, innermost first. A position
// at the very start of an element is equivalent to the position just before
// it, and one at the very end to the position just after it.
func liftChain(root *html.Node, e edge) []edge {
	chain := []edge{e}
	for e.split == nil && e.parent != root && e.parent.Parent != nil {
		p := e.parent
		switch e.index {
		case 0:
			e = edge{parent: p.Parent, index: document.ChildIndex(p)}
		case document.ChildCount(p):
			e = edge{parent: p.Parent, index: document.ChildIndex(p) + 1}
		default:
			return chain
		}
		chain = append(chain, e)
	}
	return chain
}

// commonEdges picks the innermost pair of positions sharing a parent.
func commonEdges(starts, ends []edge) (edge, edge, bool) {
	for _, s := range starts {
		for _, e := range ends {
			if s.parent == e.parent {
				return s, e, true
			}
		}
	}
	return edge{}, edge{}, false
}

func insideSpan(n *html.Node) bool {
	return document.Closest(n, IsSpan) != nil
}

func containsMatch(n *html.Node, pred func(*html.Node) bool) bool {
	found := false
	document.Walk(n, func(c *html.Node) bool {
		if found {
			return false
		}
		if pred(c) {
			found = true
			return false
		}
		return true
	})
	return found
}
