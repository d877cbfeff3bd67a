package annotation

import (
	"context"
	"strings"

	"github.com/dshills/glossa/internal/document"
)

// ZeroWidthSpace is the neutral marker placed after a span so that text
// typed at its trailing edge lands outside it.
const ZeroWidthSpace = "\u200b"

// GuardTrailingEdge checks whether caret sits exactly at the end of a span's
// text. If it does, a zero-width marker is placed right after the span (an
// existing one is reused) and the returned caret points just past the
// marker, outside the span. guarded is false, and caret is returned as is,
// when the caret is anywhere else.
func (e *Engine) GuardTrailingEdge(ctx context.Context, caret document.Boundary) (next document.Boundary, guarded bool, err error) {
	if caret.IsZero() || !e.doc.Contains(caret.Node) {
		return caret, false, nil
	}
	span := document.Closest(caret.Node, IsSpan)
	if span == nil {
		return caret, false, nil
	}

	off, err := e.doc.OffsetOf(caret)
	if err != nil {
		return caret, false, nil
	}
	spanEnd, err := e.doc.OffsetOf(document.Boundary{Node: span, Offset: document.ChildCount(span)})
	if err != nil || off != spanEnd {
		return caret, false, nil
	}

	if next := span.NextSibling; document.IsText(next) && strings.HasPrefix(next.Data, ZeroWidthSpace) {
		return document.Boundary{Node: next, Offset: len(ZeroWidthSpace)}, true, nil
	}

	marker := document.NewText(ZeroWidthSpace)
	document.InsertAfter(span, marker)
	e.logger.Debug("trailing edge guarded", "id", SpanID(span))

	persistErr := e.edited(ctx)
	return document.Boundary{Node: marker, Offset: len(ZeroWidthSpace)}, true, persistErr
}
