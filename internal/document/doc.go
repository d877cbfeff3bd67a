// Package document provides the editable markup buffer that annotations are
// embedded in.
//
// A Document is a tree of golang.org/x/net/html nodes hanging off a synthetic
// root element that stands for the editable region. Hosts address text in two
// ways:
//
//   - Boundary: a (node, offset) pair in the style of a DOM range boundary.
//     For text nodes Offset is a byte offset into the node's data; for element
//     nodes it is a child index.
//   - ByteOffset: a byte offset into the document's text content, the
//     concatenation of every text node in tree order.
//
// BoundaryAt and OffsetOf convert between the two. When an offset falls on
// the seam between two text nodes, the Affinity argument picks the end of the
// preceding node or the start of the following one.
//
// # Mutation Primitives
//
// The package exposes the small set of tree edits the annotation layer needs:
//
//	rest, _ := document.SplitText(textNode, 4) // split a text node in two
//	document.InsertAfter(span, marker)         // insert a sibling
//	first, last := document.Unwrap(span)       // splice children into the parent
//	document.Normalize(parent)                 // merge adjacent text nodes
//
// Content edits made by hosts go through InsertText and DeleteBefore, which
// keep text nodes non-empty but never remove elements.
//
// # Persistence Format
//
// Render produces the inner markup of the root; Parse reverses it. Markup read
// back from storage should be passed through Sanitize first, which strips
// everything except the inline and block elements an editable region may hold
// and the span attributes annotations rely on.
//
// A Document is not safe for concurrent use.
package document
