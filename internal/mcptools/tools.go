package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/glossa/internal/annotation"
	"github.com/dshills/glossa/internal/document"
	"github.com/dshills/glossa/internal/notes"
	"github.com/dshills/glossa/internal/selection"
)

// errRejected marks a selection the engine refused.
var errRejected = errors.New("selection rejected")

// ─── DocumentTextTool ───────────────────────────────────────────────────────

// DocumentTextTool handles the document_text tool.
type DocumentTextTool struct {
	sess *Session
}

// NewDocumentTextTool creates a DocumentTextTool.
func NewDocumentTextTool(sess *Session) *DocumentTextTool {
	return &DocumentTextTool{sess: sess}
}

// Definition returns the MCP tool definition for document_text.
func (t *DocumentTextTool) Definition() mcp.Tool {
	return mcp.NewTool("document_text",
		mcp.WithDescription("Return the document's text content and markup. Offsets used by the other tools count runes of this text."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle processes the document_text tool call.
func (t *DocumentTextTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out struct {
		Text   string `json:"text"`
		Runes  int    `json:"runes"`
		Markup string `json:"markup"`
	}
	err := t.sess.Do(func(e *annotation.Engine) error {
		out.Text = e.Document().TextContent()
		out.Runes = runeOffset(out.Text, document.ByteOffset(len(out.Text)))
		m, err := e.Markup()
		out.Markup = m
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render document: %v", err)), nil
	}
	return jsonResult(out)
}

// ─── AnnotationCreateTool ───────────────────────────────────────────────────

// AnnotationCreateTool handles the annotation_create tool.
type AnnotationCreateTool struct {
	sess *Session
}

// NewAnnotationCreateTool creates an AnnotationCreateTool.
func NewAnnotationCreateTool(sess *Session) *AnnotationCreateTool {
	return &AnnotationCreateTool{sess: sess}
}

// Definition returns the MCP tool definition for annotation_create.
func (t *AnnotationCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("annotation_create",
		mcp.WithDescription("Annotate the text between two rune offsets with a new, empty note. Fails when the range is empty, crosses a block boundary or overlaps an existing annotation."),
		mcp.WithNumber("start", mcp.Required(), mcp.Description("Rune offset where the selection starts")),
		mcp.WithNumber("end", mcp.Required(), mcp.Description("Rune offset where the selection ends")),
	)
}

// Handle processes the annotation_create tool call.
func (t *AnnotationCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, ok := intArg(req, "start")
	if !ok {
		return mcp.NewToolResultError("'start' is required"), nil
	}
	end, ok := intArg(req, "end")
	if !ok {
		return mcp.NewToolResultError("'end' is required"), nil
	}

	var created annotation.Creation
	err := t.sess.Do(func(e *annotation.Engine) error {
		text := e.Document().TextContent()
		s, err := byteOffset(text, start)
		if err != nil {
			return err
		}
		en, err := byteOffset(text, end)
		if err != nil {
			return err
		}
		rng, err := selection.FromOffsets(e.Document(), s, en)
		if err != nil {
			return err
		}
		created, err = e.CreateAnnotation(ctx, rng)
		if created.Rejected.Rejected() {
			return fmt.Errorf("%w: %s", errRejected, created.Rejected)
		}
		return err
	})

	switch {
	case errors.Is(err, errRejected):
		return mcp.NewToolResultError(err.Error()), nil
	case err != nil && created.ID != "":
		return mcp.NewToolResultError(fmt.Sprintf("annotation %s created but not saved: %v", created.ID, err)), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to create annotation: %v", err)), nil
	}
	return jsonResult(map[string]string{"id": created.ID, "text": created.Text})
}

// ─── AnnotationRemoveTool ───────────────────────────────────────────────────

// AnnotationRemoveTool handles the annotation_remove tool.
type AnnotationRemoveTool struct {
	sess *Session
}

// NewAnnotationRemoveTool creates an AnnotationRemoveTool.
func NewAnnotationRemoveTool(sess *Session) *AnnotationRemoveTool {
	return &AnnotationRemoveTool{sess: sess}
}

// Definition returns the MCP tool definition for annotation_remove.
func (t *AnnotationRemoveTool) Definition() mcp.Tool {
	return mcp.NewTool("annotation_remove",
		mcp.WithDescription("Remove an annotation and its note, restoring the plain text. Removing an unknown id does nothing."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Annotation id")),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

// Handle processes the annotation_remove tool call.
func (t *AnnotationRemoveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	err := t.sess.Do(func(e *annotation.Engine) error {
		return e.RemoveAnnotation(ctx, id)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to remove annotation: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Annotation %s removed", id)), nil
}

// ─── NoteUpdateTool ─────────────────────────────────────────────────────────

// NoteUpdateTool handles the note_update tool.
type NoteUpdateTool struct {
	sess *Session
}

// NewNoteUpdateTool creates a NoteUpdateTool.
func NewNoteUpdateTool(sess *Session) *NoteUpdateTool {
	return &NoteUpdateTool{sess: sess}
}

// Definition returns the MCP tool definition for note_update.
func (t *NoteUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("note_update",
		mcp.WithDescription("Replace the content of an annotation's note. Updating an unknown id does nothing."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Annotation id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New note content; may be empty")),
	)
}

// Handle processes the note_update tool call.
func (t *NoteUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	content, ok := stringArg(req, "content")
	if !ok {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	found := false
	err := t.sess.Do(func(e *annotation.Engine) error {
		_, found = e.Note(id)
		return e.UpdateNoteContent(ctx, id, content)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update note: %v", err)), nil
	}
	if !found {
		return mcp.NewToolResultText(fmt.Sprintf("No note %s; nothing updated", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Note %s updated", id)), nil
}

// ─── AnnotationAtTool ───────────────────────────────────────────────────────

// AnnotationAtTool handles the annotation_at tool.
type AnnotationAtTool struct {
	sess *Session
}

// NewAnnotationAtTool creates an AnnotationAtTool.
func NewAnnotationAtTool(sess *Session) *AnnotationAtTool {
	return &AnnotationAtTool{sess: sess}
}

// Definition returns the MCP tool definition for annotation_at.
func (t *AnnotationAtTool) Definition() mcp.Tool {
	return mcp.NewTool("annotation_at",
		mcp.WithDescription("Return the annotation and note covering the character at a rune offset, if any."),
		mcp.WithNumber("offset", mcp.Required(), mcp.Description("Rune offset of the character")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle processes the annotation_at tool call.
func (t *AnnotationAtTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	offset, ok := intArg(req, "offset")
	if !ok {
		return mcp.NewToolResultError("'offset' is required"), nil
	}

	var id, note string
	var found bool
	err := t.sess.Do(func(e *annotation.Engine) error {
		off, err := byteOffset(e.Document().TextContent(), offset)
		if err != nil {
			return err
		}
		if id, found = e.AnnotationAtOffset(off); found {
			if n, ok := e.Note(id); ok {
				note = n.Content
			}
		}
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultText(fmt.Sprintf("No annotation at offset %d", offset)), nil
	}
	return jsonResult(map[string]string{"id": id, "note": note})
}

// ─── NotesListTool ──────────────────────────────────────────────────────────

// NotesListTool handles the notes_list tool.
type NotesListTool struct {
	sess *Session
}

// NewNotesListTool creates a NotesListTool.
func NewNotesListTool(sess *Session) *NotesListTool {
	return &NotesListTool{sess: sess}
}

// Definition returns the MCP tool definition for notes_list.
func (t *NotesListTool) Definition() mcp.Tool {
	return mcp.NewTool("notes_list",
		mcp.WithDescription("List every annotation in document order with its text, rune offsets and note."),
		mcp.WithString("query",
			mcp.Description("Only list annotations whose note or marked text contains this string"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Entry is one notes_list item.
type Entry struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Note  string `json:"note"`
}

// Handle processes the notes_list tool call.
func (t *NotesListTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, _ := stringArg(req, "query")
	entries := []Entry{}
	_ = t.sess.Do(func(e *annotation.Engine) error {
		text := e.Document().TextContent()
		for _, a := range e.Annotations() {
			if !notes.Matches(a.Note, query) && !notes.Matches(a.Text, query) {
				continue
			}
			entries = append(entries, Entry{
				ID:    a.ID,
				Text:  a.Text,
				Start: runeOffset(text, a.Start),
				End:   runeOffset(text, a.End),
				Note:  a.Note,
			})
		}
		return nil
	})
	return jsonResult(entries)
}

// ─── CaretGuardTool ─────────────────────────────────────────────────────────

// CaretGuardTool handles the caret_guard tool.
type CaretGuardTool struct {
	sess *Session
}

// NewCaretGuardTool creates a CaretGuardTool.
func NewCaretGuardTool(sess *Session) *CaretGuardTool {
	return &CaretGuardTool{sess: sess}
}

// Definition returns the MCP tool definition for caret_guard.
func (t *CaretGuardTool) Definition() mcp.Tool {
	return mcp.NewTool("caret_guard",
		mcp.WithDescription("Move a caret sitting at the trailing edge of an annotation just outside it, so that text typed next is not annotated. Returns the caret's new rune offset."),
		mcp.WithNumber("offset", mcp.Required(), mcp.Description("Rune offset of the caret")),
	)
}

// Handle processes the caret_guard tool call.
func (t *CaretGuardTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	offset, ok := intArg(req, "offset")
	if !ok {
		return mcp.NewToolResultError("'offset' is required"), nil
	}

	var out struct {
		Guarded bool `json:"guarded"`
		Offset  int  `json:"offset"`
	}
	err := t.sess.Do(func(e *annotation.Engine) error {
		doc := e.Document()
		off, err := byteOffset(doc.TextContent(), offset)
		if err != nil {
			return err
		}
		caret, err := doc.BoundaryAt(off, document.AffinityBackward)
		if err != nil {
			return err
		}
		next, guarded, guardErr := e.GuardTrailingEdge(ctx, caret)
		out.Guarded = guarded
		out.Offset = offset
		if nextOff, err := doc.OffsetOf(next); err == nil {
			out.Offset = runeOffset(doc.TextContent(), nextOff)
		}
		return guardErr
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("caret guard failed: %v", err)), nil
	}
	return jsonResult(out)
}
