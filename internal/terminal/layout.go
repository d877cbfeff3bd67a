package terminal

import (
	"sort"

	"github.com/rivo/uniseg"
	"golang.org/x/net/html"

	"github.com/dshills/glossa/internal/document"
	"github.com/dshills/glossa/internal/selection"
)

// Glyph is one grapheme cluster placed on the screen.
type Glyph struct {
	// X and Y are the cell column and layout line.
	X, Y int
	// Width is the number of cells the cluster occupies; zero-width
	// clusters are kept for offset mapping but not drawn.
	Width int
	// Str is the cluster text.
	Str string
	// Node is the text node holding the cluster.
	Node *html.Node
	// Start and End are the cluster's byte offsets in the text content.
	Start, End document.ByteOffset
}

// lineEnd records where a layout line stops.
type lineEnd struct {
	x   int
	off document.ByteOffset
}

// Layout places a document's text on a grid of the given width. Block
// elements start a new line and long lines wrap at the width.
type Layout struct {
	width  int
	glyphs []Glyph
	ends   []lineEnd
}

// NewLayout lays out doc for a screen width cells wide.
func NewLayout(doc *document.Document, width int) *Layout {
	if width < 1 {
		width = 1
	}
	l := &Layout{width: width, ends: []lineEnd{{}}}

	var (
		x, y int
		pos  document.ByteOffset
	)
	newline := func() {
		l.ends[y] = lineEnd{x: x, off: pos}
		y++
		x = 0
		l.ends = append(l.ends, lineEnd{off: pos})
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case document.IsText(n):
			base := pos
			g := uniseg.NewGraphemes(n.Data)
			for g.Next() {
				from, to := g.Positions()
				w, str := g.Width(), g.Str()
				switch str {
				case "\n", "\r\n", "\t":
					str, w = " ", 1
				}
				if x > 0 && x+w > width {
					newline()
				}
				l.glyphs = append(l.glyphs, Glyph{
					X: x, Y: y, Width: w, Str: str, Node: n,
					Start: base + document.ByteOffset(from),
					End:   base + document.ByteOffset(to),
				})
				x += w
				pos = base + document.ByteOffset(to)
			}
			pos = base + document.ByteOffset(len(n.Data))
			return
		case n.Type == html.ElementNode && n.Data == "br":
			newline()
			return
		}

		block := n.Parent != nil && document.IsBlock(n)
		if block && x > 0 {
			newline()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block && x > 0 {
			newline()
		}
	}
	walk(doc.Root())
	l.ends[y] = lineEnd{x: x, off: pos}

	// A closing block leaves an empty last line behind.
	if y > 0 && x == 0 && !l.lineHasGlyphs(y) {
		l.ends = l.ends[:y]
	}
	return l
}

func (l *Layout) lineHasGlyphs(y int) bool {
	i := l.firstOnLine(y)
	return i < len(l.glyphs) && l.glyphs[i].Y == y
}

// Width returns the layout width in cells.
func (l *Layout) Width() int {
	return l.width
}

// Lines returns the number of layout lines.
func (l *Layout) Lines() int {
	return len(l.ends)
}

// Glyphs returns the placed clusters in document order.
func (l *Layout) Glyphs() []Glyph {
	return l.glyphs
}

// firstOnLine returns the index of the first glyph on line y or later.
func (l *Layout) firstOnLine(y int) int {
	return sort.Search(len(l.glyphs), func(i int) bool {
		return l.glyphs[i].Y >= y
	})
}

// At returns the glyph covering cell (x, y).
func (l *Layout) At(x, y int) (Glyph, bool) {
	for i := l.firstOnLine(y); i < len(l.glyphs) && l.glyphs[i].Y == y; i++ {
		g := l.glyphs[i]
		if g.Width > 0 && x >= g.X && x < g.X+g.Width {
			return g, true
		}
	}
	return Glyph{}, false
}

// OffsetAt maps a cell to the text offset a click there puts the caret
// at: the start of the cluster under the cell, or the end of the line when
// the cell is past it.
func (l *Layout) OffsetAt(x, y int) document.ByteOffset {
	if len(l.ends) == 0 {
		return 0
	}
	if y < 0 {
		return 0
	}
	if y >= len(l.ends) {
		return l.ends[len(l.ends)-1].off
	}
	if g, ok := l.At(x, y); ok {
		return g.Start
	}
	if x < 0 {
		if i := l.firstOnLine(y); i < len(l.glyphs) && l.glyphs[i].Y == y {
			return l.glyphs[i].Start
		}
	}
	return l.ends[y].off
}

// Position returns the cell where a caret at off is drawn. Where a line
// break falls at off, a backward caret is drawn at the end of the earlier
// line and a forward caret at the start of the later one.
func (l *Layout) Position(off document.ByteOffset, aff document.Affinity) (x, y int) {
	i := sort.Search(len(l.glyphs), func(i int) bool {
		return l.glyphs[i].Start >= off
	})
	after := func(g Glyph) (int, int) {
		return min(g.X+g.Width, l.width-1), g.Y
	}
	if aff == document.AffinityBackward && i > 0 && l.glyphs[i-1].End == off {
		return after(l.glyphs[i-1])
	}
	if i < len(l.glyphs) && l.glyphs[i].Start == off {
		return l.glyphs[i].X, l.glyphs[i].Y
	}
	if i > 0 && l.glyphs[i-1].End <= off {
		return after(l.glyphs[i-1])
	}
	return 0, 0
}

// LineStart and LineEnd return the offsets at the ends of line y.
func (l *Layout) LineStart(y int) document.ByteOffset {
	if i := l.firstOnLine(y); i < len(l.glyphs) && l.glyphs[i].Y == y {
		return l.glyphs[i].Start
	}
	return l.LineEnd(y)
}

func (l *Layout) LineEnd(y int) document.ByteOffset {
	if y < 0 || y >= len(l.ends) {
		return 0
	}
	return l.ends[y].off
}

// Next and Prev step a caret by one cluster.
func (l *Layout) Next(off document.ByteOffset) document.ByteOffset {
	i := sort.Search(len(l.glyphs), func(i int) bool {
		return l.glyphs[i].Start >= off
	})
	if i < len(l.glyphs) {
		return l.glyphs[i].End
	}
	return off
}

func (l *Layout) Prev(off document.ByteOffset) document.ByteOffset {
	i := sort.Search(len(l.glyphs), func(i int) bool {
		return l.glyphs[i].End >= off
	})
	if i < len(l.glyphs) && l.glyphs[i].End == off {
		return l.glyphs[i].Start
	}
	if i > 0 {
		return l.glyphs[i-1].Start
	}
	return 0
}

// Rect returns the cells covered by the text between start and end.
func (l *Layout) Rect(start, end document.ByteOffset) selection.Rect {
	var r selection.Rect
	found := false
	for _, g := range l.glyphs {
		if g.End <= start || g.Start >= end {
			continue
		}
		if !found {
			r = selection.Rect{Top: g.Y, Left: g.X, Bottom: g.Y + 1, Right: g.X + g.Width}
			found = true
			continue
		}
		r.Top = min(r.Top, g.Y)
		r.Bottom = max(r.Bottom, g.Y+1)
		r.Left = min(r.Left, g.X)
		r.Right = max(r.Right, g.X+g.Width)
	}
	return r
}
