package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/glossa/internal/annotation"
	"github.com/dshills/glossa/internal/document"
	"github.com/dshills/glossa/internal/notes"
	"github.com/dshills/glossa/internal/selection"
	"github.com/dshills/glossa/internal/storage"
)

const arabic = "<p>من فضلك حدد نصًا لإضافة ملاحظة</p>"

func newTestSession(t *testing.T, markup string) (*Session, *annotation.Engine) {
	t.Helper()
	doc, err := document.Parse(markup)
	require.NoError(t, err)

	n := 0
	ids := annotation.IDFunc(func() string {
		n++
		return fmt.Sprintf("note-%d", n)
	})
	repo := storage.NewRepository(storage.NewMemory(), "test")
	e := annotation.New(doc, notes.NewStore(), annotation.WithRepository(repo), annotation.WithIDs(ids))
	return NewSession(e), e
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decode(t *testing.T, r *mcp.CallToolResult, v any) {
	t.Helper()
	require.False(t, r.IsError, resultText(r))
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), v))
}

// runes returns the rune offset of sub in s.
func runes(s, sub string) int {
	return len([]rune(s[:strings.Index(s, sub)]))
}

func TestByteOffset(t *testing.T) {
	text := "من ab"
	off, err := byteOffset(text, 2)
	require.NoError(t, err)
	assert.Equal(t, document.ByteOffset(4), off)

	off, err = byteOffset(text, 5)
	require.NoError(t, err)
	assert.Equal(t, document.ByteOffset(len(text)), off)

	_, err = byteOffset(text, 6)
	assert.Error(t, err)
	_, err = byteOffset(text, -1)
	assert.Error(t, err)

	assert.Equal(t, 2, runeOffset(text, 4))
	assert.Equal(t, 5, runeOffset(text, 100))
}

func TestDocumentText(t *testing.T) {
	sess, _ := newTestSession(t, arabic)
	res, err := NewDocumentTextTool(sess).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)

	var out struct {
		Text   string `json:"text"`
		Runes  int    `json:"runes"`
		Markup string `json:"markup"`
	}
	decode(t, res, &out)
	assert.Equal(t, "من فضلك حدد نصًا لإضافة ملاحظة", out.Text)
	assert.Equal(t, len([]rune(out.Text)), out.Runes)
	assert.Equal(t, arabic, out.Markup)
}

func TestAnnotationCreate_ArabicScenario(t *testing.T) {
	sess, e := newTestSession(t, arabic)
	ctx := context.Background()
	text := e.Document().TextContent()
	start := runes(text, "حدد نصًا")
	end := start + len([]rune("حدد نصًا"))

	res, err := NewAnnotationCreateTool(sess).Handle(ctx, makeReq(map[string]any{
		"start": float64(start), "end": float64(end),
	}))
	require.NoError(t, err)
	var created map[string]string
	decode(t, res, &created)
	assert.Equal(t, "note-1", created["id"])
	assert.Equal(t, "حدد نصًا", created["text"])

	res, err = NewNoteUpdateTool(sess).Handle(ctx, makeReq(map[string]any{"id": "note-1", "content": "تعليق مهم"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Note note-1 updated", resultText(res))

	res, err = NewAnnotationAtTool(sess).Handle(ctx, makeReq(map[string]any{"offset": float64(start + 1)}))
	require.NoError(t, err)
	var at map[string]string
	decode(t, res, &at)
	assert.Equal(t, map[string]string{"id": "note-1", "note": "تعليق مهم"}, at)

	res, err = NewNotesListTool(sess).Handle(ctx, makeReq(nil))
	require.NoError(t, err)
	var list []Entry
	decode(t, res, &list)
	require.Len(t, list, 1)
	assert.Equal(t, Entry{ID: "note-1", Text: "حدد نصًا", Start: start, End: end, Note: "تعليق مهم"}, list[0])

	res, err = NewAnnotationRemoveTool(sess).Handle(ctx, makeReq(map[string]any{"id": "note-1"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	markup, err := e.Markup()
	require.NoError(t, err)
	assert.Equal(t, arabic, markup)
	assert.Equal(t, 0, e.Notes().Len())
}

func TestAnnotationCreate_Rejected(t *testing.T) {
	sess, e := newTestSession(t, "<p>abc</p><p>def</p>")
	tool := NewAnnotationCreateTool(sess)

	tests := []struct {
		name       string
		start, end int
		reason     string
	}{
		{"collapsed", 1, 1, "collapsed"},
		{"crosses blocks", 1, 4, "crosses-boundary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tool.Handle(context.Background(), makeReq(map[string]any{
				"start": float64(tt.start), "end": float64(tt.end),
			}))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(res), tt.reason)
		})
	}

	markup, err := e.Markup()
	require.NoError(t, err)
	assert.Equal(t, "<p>abc</p><p>def</p>", markup)
}

func TestAnnotationCreate_Overlap(t *testing.T) {
	sess, _ := newTestSession(t, "<p>abcdefg</p>")
	tool := NewAnnotationCreateTool(sess)
	ctx := context.Background()

	res, err := tool.Handle(ctx, makeReq(map[string]any{"start": float64(1), "end": float64(4)}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	res, err = tool.Handle(ctx, makeReq(map[string]any{"start": float64(3), "end": float64(6)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "overlaps")
}

func TestAnnotationCreate_BadArguments(t *testing.T) {
	sess, _ := newTestSession(t, "<p>abc</p>")
	tool := NewAnnotationCreateTool(sess)
	ctx := context.Background()

	for _, args := range []map[string]any{
		{"end": float64(1)},
		{"start": float64(0)},
		{"start": "0", "end": float64(1)},
		{"start": float64(0.5), "end": float64(1)},
		{"start": float64(0), "end": float64(99)},
	} {
		res, err := tool.Handle(ctx, makeReq(args))
		require.NoError(t, err)
		assert.True(t, res.IsError, "args %v", args)
	}
}

func TestAnnotationCreate_PersistFailure(t *testing.T) {
	doc, err := document.Parse("<p>abc</p>")
	require.NoError(t, err)
	kv := storage.NewMemory()
	kv.Fail(storage.ErrUnavailable)
	e := annotation.New(doc, notes.NewStore(),
		annotation.WithRepository(storage.NewRepository(kv, "test")),
		annotation.WithIDs(annotation.IDFunc(func() string { return "only" })))
	sess := NewSession(e)

	res, err := NewAnnotationCreateTool(sess).Handle(context.Background(), makeReq(map[string]any{
		"start": float64(0), "end": float64(2),
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "annotation only created but not saved")
	assert.Equal(t, []string{"only"}, e.IDs())
}

func TestNoteUpdate(t *testing.T) {
	sess, _ := newTestSession(t, "<p>abc</p>")
	tool := NewNoteUpdateTool(sess)
	ctx := context.Background()

	res, err := tool.Handle(ctx, makeReq(map[string]any{"id": "ghost", "content": "x"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(res), "nothing updated")

	res, err = tool.Handle(ctx, makeReq(map[string]any{"id": "ghost"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = tool.Handle(ctx, makeReq(map[string]any{"content": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAnnotationRemove_Unknown(t *testing.T) {
	sess, _ := newTestSession(t, "<p>abc</p>")
	res, err := NewAnnotationRemoveTool(sess).Handle(context.Background(), makeReq(map[string]any{"id": "ghost"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = NewAnnotationRemoveTool(sess).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAnnotationAt_None(t *testing.T) {
	sess, _ := newTestSession(t, "<p>abc</p>")
	res, err := NewAnnotationAtTool(sess).Handle(context.Background(), makeReq(map[string]any{"offset": float64(1)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "No annotation at offset 1", resultText(res))
}

func TestNotesList_Empty(t *testing.T) {
	sess, _ := newTestSession(t, "<p>abc</p>")
	res, err := NewNotesListTool(sess).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", resultText(res))
}

func TestNotesList_Query(t *testing.T) {
	sess, e := newTestSession(t, arabic)
	ctx := context.Background()
	text := e.Document().TextContent()
	for _, word := range []string{"فضلك", "ملاحظة"} {
		i := strings.Index(text, word)
		rng, err := selection.FromOffsets(e.Document(), document.ByteOffset(i), document.ByteOffset(i+len(word)))
		require.NoError(t, err)
		_, err = e.CreateAnnotation(ctx, rng)
		require.NoError(t, err)
	}
	// Shadda then fatha, as typed.
	written := "مهم جد\u0651\u064eا"
	require.NoError(t, e.UpdateNoteContent(ctx, "note-1", written))

	list := func(query string) []Entry {
		res, err := NewNotesListTool(sess).Handle(ctx, makeReq(map[string]any{"query": query}))
		require.NoError(t, err)
		var out []Entry
		decode(t, res, &out)
		return out
	}

	got := list("د\u064e\u0651")
	require.Len(t, got, 1)
	assert.Equal(t, "note-1", got[0].ID)
	assert.Equal(t, written, got[0].Note, "stored note keeps the typed mark order")

	got = list("ملاحظة")
	require.Len(t, got, 1)
	assert.Equal(t, "note-2", got[0].ID, "marked text matches too")

	assert.Len(t, list(""), 2)
	assert.Empty(t, list("غائب"))
}

func TestCaretGuard(t *testing.T) {
	sess, e := newTestSession(t, "<p>abcd</p>")
	ctx := context.Background()

	res, err := NewAnnotationCreateTool(sess).Handle(ctx, makeReq(map[string]any{"start": float64(1), "end": float64(3)}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	guard := NewCaretGuardTool(sess)
	res, err = guard.Handle(ctx, makeReq(map[string]any{"offset": float64(3)}))
	require.NoError(t, err)
	var out struct {
		Guarded bool `json:"guarded"`
		Offset  int  `json:"offset"`
	}
	decode(t, res, &out)
	assert.True(t, out.Guarded)
	assert.Equal(t, 4, out.Offset)
	assert.Equal(t, "abc\u200bd", e.Document().TextContent())

	res, err = guard.Handle(ctx, makeReq(map[string]any{"offset": float64(1)}))
	require.NoError(t, err)
	decode(t, res, &out)
	assert.False(t, out.Guarded)
	assert.Equal(t, 1, out.Offset)
}

func TestNewServer_ListsTools(t *testing.T) {
	sess, _ := newTestSession(t, "<p>abc</p>")
	s := NewServer(sess, "test")

	msg := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	for _, name := range []string{
		"document_text", "annotation_create", "annotation_remove", "note_update",
		"annotation_at", "notes_list", "caret_guard",
	} {
		assert.Contains(t, string(data), `"name":"`+name+`"`)
	}
}
