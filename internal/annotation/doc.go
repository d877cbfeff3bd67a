// Package annotation implements the annotation engine: it turns selections
// into highlighted spans, keeps the note store in step with those spans,
// and reverses the process on removal.
//
// # Spans
//
// An annotation is an inline element embedded in the document markup:
//
//	<span class="note-highlight" data-note-id="note-1700000000000-1a2b3c4d">selected text</span>
//
// The data-note-id attribute is what makes an element a span; the class only
// drives styling. Spans never nest and never overlap, and every span id has
// exactly one note in the store and vice versa.
//
// # Wrapping
//
// TryWrapRange is the pure wrapping step. It validates a range against the
// document first and only then mutates it, so a rejection always leaves the
// document untouched. The reasons are enumerated:
//
//   - RejectCollapsed: the range selects no text
//   - RejectOverlaps: the range intersects, contains or sits inside a span
//   - RejectCrossesBoundary: the text is not contained by one inline parent,
//     for example because it runs across a paragraph break
//   - RejectStale: the range no longer points into the document
//
// # Persistence
//
// Every mutating operation persists what it changed through the session
// repository before returning. A failed write is returned as a *PersistError
// but the in-memory state stays mutated; the failed part is marked dirty
// and written again on the next mutation or Flush.
//
// # Loading
//
// Load reads a session and reconciles it: nested and duplicate spans are
// unwrapped, spans without a note are stripped or given an empty note
// according to the ReconcilePolicy, and notes without a span are dropped.
// Each correction is logged at WARN and published as a consistency fault.
//
// # Concurrency
//
// An Engine is not safe for concurrent use. Hosts that receive requests on
// several goroutines serialize them.
package annotation
