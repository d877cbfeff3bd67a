package mcptools

import (
	"github.com/mark3labs/mcp-go/server"
)

const instructions = `glossa annotates spans of a rich-text document with notes.
Call document_text first: every offset on this server counts runes of that text.
annotation_create wraps a range; the range must stay inside one block and must not
touch an existing annotation. Use notes_list to see what is annotated.`

// NewServer creates an MCP server exposing every tool over sess.
func NewServer(sess *Session, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"glossa",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	Register(s, sess)
	return s
}

// Register adds every tool over sess to s.
func Register(s *server.MCPServer, sess *Session) {
	documentText := NewDocumentTextTool(sess)
	s.AddTool(documentText.Definition(), documentText.Handle)

	create := NewAnnotationCreateTool(sess)
	s.AddTool(create.Definition(), create.Handle)

	remove := NewAnnotationRemoveTool(sess)
	s.AddTool(remove.Definition(), remove.Handle)

	update := NewNoteUpdateTool(sess)
	s.AddTool(update.Definition(), update.Handle)

	at := NewAnnotationAtTool(sess)
	s.AddTool(at.Definition(), at.Handle)

	list := NewNotesListTool(sess)
	s.AddTool(list.Definition(), list.Handle)

	guard := NewCaretGuardTool(sess)
	s.AddTool(guard.Definition(), guard.Handle)
}
