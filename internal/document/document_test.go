package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func mustParse(t *testing.T, markup string) *Document {
	t.Helper()
	d, err := Parse(markup)
	require.NoError(t, err)
	return d
}

func mustRender(t *testing.T, d *Document) string {
	t.Helper()
	out, err := d.Render()
	require.NoError(t, err)
	return out
}

func TestParse_RenderRoundTrip(t *testing.T) {
	markup := `<p>hello <b>bold</b> world</p><p>second <span class="note-highlight" data-note-id="note-1">marked</span></p>`
	d := mustParse(t, markup)

	assert.Equal(t, markup, mustRender(t, d))
	assert.Equal(t, "hello bold worldsecond marked", d.TextContent())
	assert.Equal(t, ByteOffset(len("hello bold worldsecond marked")), d.Len())
}

func TestParse_PlainText(t *testing.T) {
	d := mustParse(t, "just text")
	require.NotNil(t, d.Root().FirstChild)
	assert.True(t, IsText(d.Root().FirstChild))
	assert.Equal(t, "just text", mustRender(t, d))
}

func TestNew_Empty(t *testing.T) {
	d := New()
	assert.Equal(t, "", mustRender(t, d))
	assert.Equal(t, ByteOffset(0), d.Len())

	b, err := d.BoundaryAt(0, AffinityForward)
	require.NoError(t, err)
	assert.Equal(t, d.Root(), b.Node)
	assert.Equal(t, 0, b.Offset)
}

func TestBoundaryAt_Affinity(t *testing.T) {
	d := mustParse(t, "<p>abc<b>def</b></p>")
	p := d.Root().FirstChild
	abc := p.FirstChild
	def := p.LastChild.FirstChild

	fwd, err := d.BoundaryAt(3, AffinityForward)
	require.NoError(t, err)
	assert.Equal(t, def, fwd.Node)
	assert.Equal(t, 0, fwd.Offset)

	back, err := d.BoundaryAt(3, AffinityBackward)
	require.NoError(t, err)
	assert.Equal(t, abc, back.Node)
	assert.Equal(t, 3, back.Offset)

	end, err := d.BoundaryAt(6, AffinityForward)
	require.NoError(t, err)
	assert.Equal(t, def, end.Node)
	assert.Equal(t, 3, end.Offset)

	_, err = d.BoundaryAt(7, AffinityForward)
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)
	_, err = d.BoundaryAt(-1, AffinityForward)
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)
}

func TestBoundaryAt_RejectsSplitRune(t *testing.T) {
	d := mustParse(t, "<p>نص</p>")
	_, err := d.BoundaryAt(1, AffinityForward)
	assert.ErrorIs(t, err, ErrSplitsRune)

	b, err := d.BoundaryAt(2, AffinityForward)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Offset)
}

func TestOffsetOf(t *testing.T) {
	d := mustParse(t, "<p>abc<b>def</b>gh</p>")
	p := d.Root().FirstChild
	bold := ChildAt(p, 1)

	tests := []struct {
		name string
		b    Boundary
		want ByteOffset
	}{
		{"start of text", Boundary{Node: p.FirstChild, Offset: 0}, 0},
		{"inside text", Boundary{Node: bold.FirstChild, Offset: 2}, 5},
		{"before element", Boundary{Node: p, Offset: 1}, 3},
		{"after element", Boundary{Node: p, Offset: 2}, 6},
		{"end of paragraph", Boundary{Node: p, Offset: 3}, 8},
		{"root end", Boundary{Node: d.Root(), Offset: 1}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.OffsetOf(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := d.OffsetOf(Boundary{Node: NewText("detached"), Offset: 0})
	assert.ErrorIs(t, err, ErrNodeNotInDocument)
	_, err = d.OffsetOf(Boundary{Node: p, Offset: 9})
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)
}

func TestSplitText(t *testing.T) {
	d := mustParse(t, "<p>abcdef</p>")
	text := d.Root().FirstChild.FirstChild

	rest, err := SplitText(text, 2)
	require.NoError(t, err)
	assert.Equal(t, "ab", text.Data)
	assert.Equal(t, "cdef", rest.Data)
	assert.Equal(t, rest, text.NextSibling)
	assert.Equal(t, "abcdef", d.TextContent())

	_, err = SplitText(d.Root().FirstChild, 0)
	assert.ErrorIs(t, err, ErrNotText)
	_, err = SplitText(text, 10)
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)
}

func TestUnwrapAndNormalize(t *testing.T) {
	d := mustParse(t, `<p>one <span data-note-id="x">two</span> three</p>`)
	p := d.Root().FirstChild
	span := ChildAt(p, 1)

	first, last := Unwrap(span)
	require.NotNil(t, first)
	assert.Equal(t, first, last)
	assert.Equal(t, 3, ChildCount(p))

	Normalize(p)
	assert.Equal(t, 1, ChildCount(p))
	assert.Equal(t, "one two three", p.FirstChild.Data)
	assert.Equal(t, "<p>one two three</p>", mustRender(t, d))
}

func TestNormalize_DropsEmptyText(t *testing.T) {
	d := mustParse(t, "<p>a</p>")
	p := d.Root().FirstChild
	p.AppendChild(NewText(""))
	p.AppendChild(NewElement("b"))
	p.LastChild.AppendChild(NewText("x"))
	p.LastChild.AppendChild(NewText("y"))

	Normalize(d.Root())
	assert.Equal(t, 2, ChildCount(p))
	assert.Equal(t, "xy", p.LastChild.FirstChild.Data)
	assert.Nil(t, p.LastChild.FirstChild.NextSibling)
}

func TestInsertText(t *testing.T) {
	d := mustParse(t, "<p>ac</p>")
	text := d.Root().FirstChild.FirstChild

	b, err := d.InsertText(Boundary{Node: text, Offset: 1}, "b")
	require.NoError(t, err)
	assert.Equal(t, "abc", d.TextContent())
	assert.Equal(t, Boundary{Node: text, Offset: 2}, b)

	b, err = d.InsertText(Boundary{Node: d.Root(), Offset: 1}, "!")
	require.NoError(t, err)
	assert.Equal(t, "abc!", d.TextContent())
	assert.True(t, b.InText())

	_, err = d.InsertText(Boundary{Node: NewText("x")}, "y")
	assert.ErrorIs(t, err, ErrNodeNotInDocument)
}

func TestDeleteBefore(t *testing.T) {
	d := mustParse(t, "<p>a<b>ب</b>c</p>")
	p := d.Root().FirstChild
	c := p.LastChild

	b, err := d.DeleteBefore(Boundary{Node: c, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, "ac", d.TextContent())
	// The emptied <b> survives; only its text node goes.
	assert.Equal(t, 3, ChildCount(p))
	off, err := d.OffsetOf(b)
	require.NoError(t, err)
	assert.Equal(t, ByteOffset(1), off)

	b, err = d.DeleteBefore(b)
	require.NoError(t, err)
	assert.Equal(t, "c", d.TextContent())

	same, err := d.DeleteBefore(Boundary{Node: c, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, "c", d.TextContent())
	assert.Equal(t, c, same.Node)
}

func TestTextNodeAt(t *testing.T) {
	d := mustParse(t, "<p>ab<i>cd</i></p>")
	n, local, ok := d.TextNodeAt(2)
	require.True(t, ok)
	assert.Equal(t, "cd", n.Data)
	assert.Equal(t, 0, local)

	_, _, ok = d.TextNodeAt(4)
	assert.False(t, ok)
}

func TestFindAndClosest(t *testing.T) {
	d := mustParse(t, `<p>x<span class="note-highlight a" data-note-id="n1"><b>y</b></span></p>`)
	spans := d.Find(func(n *html.Node) bool { return HasClass(n, "note-highlight") })
	require.Len(t, spans, 1)

	y := spans[0].FirstChild.FirstChild
	found := Closest(y, func(n *html.Node) bool {
		_, ok := Attr(n, "data-note-id")
		return ok
	})
	assert.Equal(t, spans[0], found)
	assert.True(t, IsAncestor(spans[0], y))
	assert.False(t, IsAncestor(y, spans[0]))
}

func TestIsBlock(t *testing.T) {
	assert.True(t, IsBlock(NewElement("p")))
	assert.True(t, IsBlock(NewElement("br")))
	assert.False(t, IsBlock(NewElement("span")))
	assert.False(t, IsBlock(NewText("p")))
}

func TestSanitize(t *testing.T) {
	in := `<p onclick="x()">hi <span class="note-highlight" data-note-id="note-1-ab">there</span><script>alert(1)</script>` +
		"\u200b</p>"
	out := Sanitize(in)

	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, `data-note-id="note-1-ab"`)
	assert.Contains(t, out, `class="note-highlight"`)
	assert.True(t, strings.Contains(out, "\u200b"))

	d := mustParse(t, out)
	assert.Equal(t, "hi there\u200b", d.TextContent())
}

func TestSanitize_DropsHostileNoteID(t *testing.T) {
	out := Sanitize(`<span data-note-id="&quot;><img src=x>">t</span>`)
	assert.NotContains(t, out, "data-note-id")
	assert.Contains(t, out, "t")
}
