package annotation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/glossa/internal/document"
	"github.com/dshills/glossa/internal/event"
)

func TestGuardTrailingEdge(t *testing.T) {
	f := newFixture(t, "<p>abcd</p>")
	e := f.engine
	ctx := context.Background()

	c, err := e.CreateAnnotation(ctx, selectText(t, e, "bc"))
	require.NoError(t, err)
	inner := c.Span.FirstChild
	puts := f.kv.Puts()
	f.events = nil

	caret, guarded, err := e.GuardTrailingEdge(ctx, document.Boundary{Node: inner, Offset: len(inner.Data)})
	require.NoError(t, err)
	require.True(t, guarded)
	assert.Equal(t, len(ZeroWidthSpace), caret.Offset)
	assert.Same(t, c.Span.NextSibling, caret.Node)
	assert.Greater(t, f.kv.Puts(), puts, "the marker is persisted")
	assert.Contains(t, f.topics(), event.TopicDocumentEdited.String(), "the marker is an edit")

	_, err = e.InsertText(ctx, caret, "X")
	require.NoError(t, err)
	assert.Equal(t, "bc", document.TextOf(c.Span), "typed text lands outside the span")
	assert.Equal(t,
		`<p>a<span class="note-highlight" data-note-id="`+c.ID+`">bc</span>`+ZeroWidthSpace+`Xd</p>`,
		markup(t, e))

	x := document.ByteOffset(1 + 2 + len(ZeroWidthSpace))
	_, inSpan := e.AnnotationAtOffset(x)
	assert.False(t, inSpan)
}

func TestGuardTrailingEdge_ReusesMarker(t *testing.T) {
	f := newFixture(t, `<p>a<span data-note-id="s">b</span>`+ZeroWidthSpace+`c</p>`)
	e := f.engine
	e.Notes().Put("s", "")
	span, ok := e.Span("s")
	require.True(t, ok)
	before := markup(t, e)

	caret, guarded, err := e.GuardTrailingEdge(context.Background(), document.Boundary{Node: span, Offset: document.ChildCount(span)})
	require.NoError(t, err)
	require.True(t, guarded)
	assert.Same(t, span.NextSibling, caret.Node)
	assert.Equal(t, len(ZeroWidthSpace), caret.Offset)
	assert.Equal(t, before, markup(t, e), "no second marker")
	assert.Equal(t, 0, f.kv.Puts())
}

func TestGuardTrailingEdge_NotAtEdge(t *testing.T) {
	f := newFixture(t, `<p>a<span data-note-id="s">bcd</span>e</p>`)
	e := f.engine
	span, _ := e.Span("s")
	inner := span.FirstChild
	after := span.NextSibling
	before := markup(t, e)

	for name, b := range map[string]document.Boundary{
		"middle of span":    {Node: inner, Offset: 1},
		"start of span":     {Node: inner, Offset: 0},
		"after the span":    {Node: after, Offset: 0},
		"outside any span":  {Node: after, Offset: 1},
		"zero boundary":     {},
		"detached node":     {Node: document.NewText("zz"), Offset: 2},
		"paragraph element": {Node: span.Parent, Offset: 2},
	} {
		t.Run(name, func(t *testing.T) {
			got, guarded, err := e.GuardTrailingEdge(context.Background(), b)
			require.NoError(t, err)
			assert.False(t, guarded)
			assert.Equal(t, b, got)
		})
	}
	assert.Equal(t, before, markup(t, e))
}
