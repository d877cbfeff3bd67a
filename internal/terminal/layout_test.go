package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/glossa/internal/document"
	"github.com/dshills/glossa/internal/selection"
)

func parse(t *testing.T, markup string) *document.Document {
	t.Helper()
	doc, err := document.Parse(markup)
	require.NoError(t, err)
	return doc
}

func glyphText(l *Layout) []string {
	var out []string
	for _, g := range l.Glyphs() {
		out = append(out, g.Str)
	}
	return out
}

func TestLayout_BlocksStartLines(t *testing.T) {
	l := NewLayout(parse(t, "<p>ab</p><p>cd</p>"), 10)

	assert.Equal(t, 2, l.Lines())
	g, ok := l.At(0, 1)
	require.True(t, ok)
	assert.Equal(t, "c", g.Str)
	assert.Equal(t, document.ByteOffset(2), g.Start)

	assert.Equal(t, document.ByteOffset(2), l.OffsetAt(7, 0), "past the end of a line")
	assert.Equal(t, document.ByteOffset(4), l.OffsetAt(0, 9), "below the last line")
}

func TestLayout_BreakElement(t *testing.T) {
	l := NewLayout(parse(t, "<p>a<br>b</p>"), 10)
	assert.Equal(t, 2, l.Lines())
	g, ok := l.At(0, 1)
	require.True(t, ok)
	assert.Equal(t, "b", g.Str)
}

func TestLayout_SoftWrap(t *testing.T) {
	l := NewLayout(parse(t, "<p>abcdef</p>"), 4)

	assert.Equal(t, 2, l.Lines())
	g, ok := l.At(0, 1)
	require.True(t, ok)
	assert.Equal(t, "e", g.Str)
	assert.Equal(t, selection.Rect{Top: 0, Left: 0, Bottom: 2, Right: 4}, l.Rect(2, 6))
	assert.Equal(t, selection.Rect{Top: 0, Left: 1, Bottom: 1, Right: 3}, l.Rect(1, 3))
}

func TestLayout_WideClusters(t *testing.T) {
	l := NewLayout(parse(t, "<p>日本</p>"), 3)

	first, ok := l.At(1, 0)
	require.True(t, ok, "second cell of a wide cluster")
	assert.Equal(t, "日", first.Str)
	assert.Equal(t, 2, first.Width)

	second, ok := l.At(0, 1)
	require.True(t, ok)
	assert.Equal(t, "本", second.Str)
	assert.Equal(t, document.ByteOffset(3), second.Start)
}

func TestLayout_ArabicOffsets(t *testing.T) {
	l := NewLayout(parse(t, "<p>ابدأ الكتابة</p>"), 40)

	assert.Equal(t, []string{"ا", "ب", "د", "أ"}, glyphText(l)[:4])
	for i, g := range l.Glyphs()[:4] {
		assert.Equal(t, i, g.X)
		assert.Equal(t, document.ByteOffset(2*i), g.Start)
	}
	assert.Equal(t, document.ByteOffset(8), l.OffsetAt(4, 0))
}

func TestLayout_CombiningMarksStayTogether(t *testing.T) {
	l := NewLayout(parse(t, "<p>e\u0301x</p>"), 10)
	assert.Equal(t, []string{"e\u0301", "x"}, glyphText(l))
	assert.Equal(t, document.ByteOffset(3), l.Next(0))
	assert.Equal(t, document.ByteOffset(0), l.Prev(3))
}

func TestLayout_PositionAffinity(t *testing.T) {
	l := NewLayout(parse(t, "<p>ab</p><p>cd</p>"), 10)

	x, y := l.Position(2, document.AffinityBackward)
	assert.Equal(t, [2]int{2, 0}, [2]int{x, y})
	x, y = l.Position(2, document.AffinityForward)
	assert.Equal(t, [2]int{0, 1}, [2]int{x, y})
	x, y = l.Position(4, document.AffinityForward)
	assert.Equal(t, [2]int{2, 1}, [2]int{x, y})
	x, y = l.Position(0, document.AffinityBackward)
	assert.Equal(t, [2]int{0, 0}, [2]int{x, y})
}

func TestLayout_LineBounds(t *testing.T) {
	l := NewLayout(parse(t, "<p>ab</p><p>cd</p>"), 10)
	assert.Equal(t, document.ByteOffset(2), l.LineStart(1))
	assert.Equal(t, document.ByteOffset(4), l.LineEnd(1))
	assert.Equal(t, document.ByteOffset(0), l.LineStart(0))
}

func TestLayout_Empty(t *testing.T) {
	l := NewLayout(parse(t, ""), 10)
	assert.Equal(t, 1, l.Lines())
	assert.Empty(t, l.Glyphs())
	assert.Equal(t, document.ByteOffset(0), l.OffsetAt(3, 0))
	x, y := l.Position(0, document.AffinityBackward)
	assert.Equal(t, [2]int{0, 0}, [2]int{x, y})
}
