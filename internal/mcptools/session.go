// Package mcptools exposes an annotation session as MCP tools.
//
// Each tool follows the same shape: a struct holding the shared Session,
// Definition() returning the mcp.Tool schema and Handle() serving a call.
// Offsets on this surface count runes of the document's text content.
package mcptools

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/dshills/glossa/internal/annotation"
	"github.com/dshills/glossa/internal/document"
)

// Session serializes tool calls onto one annotation engine. The MCP server
// may run handlers concurrently; the engine is single-threaded.
type Session struct {
	mu     sync.Mutex
	engine *annotation.Engine
}

// NewSession creates a session over e.
func NewSession(e *annotation.Engine) *Session {
	return &Session{engine: e}
}

// Do runs fn with exclusive access to the engine.
func (s *Session) Do(fn func(e *annotation.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

// byteOffset converts a rune offset into text to a byte offset.
func byteOffset(text string, runes int) (document.ByteOffset, error) {
	if runes < 0 {
		return 0, fmt.Errorf("offset %d is negative", runes)
	}
	i := 0
	for pos := range text {
		if i == runes {
			return document.ByteOffset(pos), nil
		}
		i++
	}
	if i == runes {
		return document.ByteOffset(len(text)), nil
	}
	return 0, fmt.Errorf("offset %d is past the end of the text (%d runes)", runes, i)
}

// runeOffset converts a byte offset into text to a rune offset.
func runeOffset(text string, off document.ByteOffset) int {
	if int(off) > len(text) {
		off = document.ByteOffset(len(text))
	}
	return utf8.RuneCountInString(text[:off])
}
