package annotation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/dshills/glossa/internal/document"
	"github.com/dshills/glossa/internal/event"
	"github.com/dshills/glossa/internal/event/topic"
	"github.com/dshills/glossa/internal/notes"
	"github.com/dshills/glossa/internal/selection"
	"github.com/dshills/glossa/internal/storage"
)

const maxIDAttempts = 64

// Creation is the outcome of CreateAnnotation. Rejected is RejectNone on
// success.
type Creation struct {
	ID       string
	Span     *html.Node
	Text     string
	Rejected RejectReason
}

// Annotation describes one live span.
type Annotation struct {
	ID    string              `json:"id"`
	Text  string              `json:"text"`
	Note  string              `json:"note"`
	Start document.ByteOffset `json:"start"`
	End   document.ByteOffset `json:"end"`
}

// Engine owns a document and its note store and keeps them consistent.
type Engine struct {
	doc   *document.Document
	notes *notes.Store

	repo   *storage.Repository
	bus    *event.Bus
	logger *slog.Logger
	ids    IDGenerator

	class          string
	policy         ReconcilePolicy
	defaultContent string

	issued     map[string]struct{}
	docDirty   bool
	notesDirty bool
}

// New creates an engine over doc and store. Nil arguments start empty.
func New(doc *document.Document, store *notes.Store, opts ...Option) *Engine {
	e := newEngine(opts...)
	if doc != nil {
		e.doc = doc
	}
	if store != nil {
		e.notes = store
	}
	return e
}

func newEngine(opts ...Option) *Engine {
	e := &Engine{
		doc:            document.New(),
		notes:          notes.NewStore(),
		logger:         slog.Default(),
		ids:            TimeIDs{},
		class:          DefaultHighlightClass,
		policy:         PolicyStrip,
		defaultContent: DefaultContent,
		issued:         make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "annotation")
	return e
}

// Document returns the engine's document. Callers must not mutate it.
func (e *Engine) Document() *document.Document {
	return e.doc
}

// Notes returns the engine's note store. Callers must not mutate it.
func (e *Engine) Notes() *notes.Store {
	return e.notes
}

// Markup serializes the document.
func (e *Engine) Markup() (string, error) {
	return e.doc.Render()
}

// Note returns the note for id.
func (e *Engine) Note(id string) (notes.Note, bool) {
	return e.notes.Get(id)
}

// Dirty reports whether some state still awaits a successful persist.
func (e *Engine) Dirty() bool {
	return e.docDirty || e.notesDirty
}

// CreateAnnotation wraps the text selected by rng in a new span and registers
// an empty note for it. A rejected range leaves everything untouched and is
// reported through Creation.Rejected, not as an error. The error is non-nil
// only when persisting failed.
func (e *Engine) CreateAnnotation(ctx context.Context, rng selection.Range) (Creation, error) {
	id, err := e.freshID()
	if err != nil {
		return Creation{}, err
	}

	span, reason := wrapRange(e.doc, rng, id, e.class)
	if reason.Rejected() {
		e.logger.Debug("annotation rejected", "reason", reason.String())
		return Creation{Rejected: reason}, nil
	}

	e.issued[id] = struct{}{}
	e.notes.Put(id, "")
	e.docDirty, e.notesDirty = true, true
	text := document.TextOf(span)

	e.logger.Info("annotation created", "id", id, "length", len(text))
	persistErr := e.persist(ctx)
	e.publish(ctx, event.TopicAnnotationCreated, event.AnnotationCreated{ID: id, Text: text, Span: span})

	return Creation{ID: id, Span: span, Text: text}, persistErr
}

// RemoveAnnotation unwraps every span tagged with id, merges the text around
// each splice point and deletes the note. Unknown ids are a no-op.
func (e *Engine) RemoveAnnotation(ctx context.Context, id string) error {
	spans := e.spansByID(id)
	hadNote := e.notes.Has(id)
	if len(spans) == 0 && !hadNote {
		return nil
	}

	if len(spans) > 1 {
		e.fault(ctx, event.ConsistencyFault{
			Kind:   event.FaultDuplicateSpan,
			ID:     id,
			Detail: fmt.Sprintf("%d spans share the id; removing all", len(spans)),
		})
	}
	for _, span := range spans {
		parent := span.Parent
		document.Unwrap(span)
		document.Normalize(parent)
	}
	e.notes.Delete(id)
	e.docDirty = e.docDirty || len(spans) > 0
	e.notesDirty = e.notesDirty || hadNote

	e.logger.Info("annotation removed", "id", id, "spans", len(spans))
	persistErr := e.persist(ctx)
	e.publish(ctx, event.TopicAnnotationRemoved, event.AnnotationRemoved{ID: id, Spans: len(spans)})
	return persistErr
}

// UpdateNoteContent replaces the content of the note for id. The document is
// not touched. Unknown ids are a no-op.
func (e *Engine) UpdateNoteContent(ctx context.Context, id, content string) error {
	n, ok := e.notes.Update(id, content)
	if !ok {
		return nil
	}
	e.notesDirty = true
	persistErr := e.persist(ctx)
	e.publish(ctx, event.TopicNoteUpdated, event.NoteUpdated{ID: n.ID, Content: n.Content})
	return persistErr
}

// AnnotationAt returns the id of the span enclosing n.
func (e *Engine) AnnotationAt(n *html.Node) (string, bool) {
	if n == nil || !e.doc.Contains(n) {
		return "", false
	}
	span := document.Closest(n, IsSpan)
	if span == nil {
		return "", false
	}
	return SpanID(span), true
}

// AnnotationAtOffset returns the id of the span holding the character that
// starts at off.
func (e *Engine) AnnotationAtOffset(off document.ByteOffset) (string, bool) {
	n, _, ok := e.doc.TextNodeAt(off)
	if !ok {
		return "", false
	}
	return e.AnnotationAt(n)
}

// Span returns the first span tagged with id.
func (e *Engine) Span(id string) (*html.Node, bool) {
	spans := e.spansByID(id)
	if len(spans) == 0 {
		return nil, false
	}
	return spans[0], true
}

// IDs returns the ids of the live spans in document order.
func (e *Engine) IDs() []string {
	var ids []string
	for _, span := range e.doc.Find(IsSpan) {
		ids = append(ids, SpanID(span))
	}
	return ids
}

// Annotations lists the live spans in document order with their notes.
func (e *Engine) Annotations() []Annotation {
	var out []Annotation
	for _, span := range e.doc.Find(IsSpan) {
		id := SpanID(span)
		a := Annotation{ID: id, Text: document.TextOf(span)}
		if n, ok := e.notes.Get(id); ok {
			a.Note = n.Content
		}
		if start, err := e.doc.OffsetOf(document.Boundary{Node: span.Parent, Offset: document.ChildIndex(span)}); err == nil {
			a.Start = start
			a.End = start + document.ByteOffset(len(a.Text))
		}
		out = append(out, a)
	}
	return out
}

// InsertText inserts text at b and persists the document.
func (e *Engine) InsertText(ctx context.Context, b document.Boundary, text string) (document.Boundary, error) {
	next, err := e.doc.InsertText(b, text)
	if err != nil {
		return b, err
	}
	return next, e.edited(ctx)
}

// DeleteBefore deletes the character before b and persists the document.
// Spans survive even when their text is deleted entirely.
func (e *Engine) DeleteBefore(ctx context.Context, b document.Boundary) (document.Boundary, error) {
	next, err := e.doc.DeleteBefore(b)
	if err != nil {
		return b, err
	}
	return next, e.edited(ctx)
}

func (e *Engine) edited(ctx context.Context) error {
	e.docDirty = true
	persistErr := e.persist(ctx)
	e.publish(ctx, event.TopicDocumentEdited, nil)
	return persistErr
}

// Flush retries any persist that failed earlier.
func (e *Engine) Flush(ctx context.Context) error {
	return e.persist(ctx)
}

func (e *Engine) spansByID(id string) []*html.Node {
	return e.doc.Find(func(n *html.Node) bool {
		return IsSpan(n) && SpanID(n) == id
	})
}

// freshID asks the generator until it yields an id that was never issued,
// is not present in the document or the store, and survives sanitizing.
func (e *Engine) freshID() (string, error) {
	live := make(map[string]struct{})
	for _, id := range e.IDs() {
		live[id] = struct{}{}
	}
	for i := 0; i < maxIDAttempts; i++ {
		id := e.ids.NewID()
		if !document.IDPattern.MatchString(id) {
			e.logger.Debug("generated id dropped by sanitizing; retrying", "id", id)
			continue
		}
		if _, ok := e.issued[id]; ok {
			continue
		}
		if _, ok := live[id]; ok {
			continue
		}
		if e.notes.Has(id) {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("annotation: no fresh id after %d attempts", maxIDAttempts)
}

// persist writes the dirty parts of the session. Parts that fail stay dirty.
// Notes are held back while content is failing so that stored note ids stay
// a subset of the span ids in stored content.
func (e *Engine) persist(ctx context.Context) error {
	if e.repo == nil {
		e.docDirty, e.notesDirty = false, false
		return nil
	}
	if !e.Dirty() {
		return nil
	}

	var (
		perr       PersistError
		wroteDoc   bool
		wroteNotes bool
	)
	if e.docDirty {
		markup, err := e.doc.Render()
		if err == nil {
			err = e.repo.SaveContent(ctx, markup)
		}
		if err != nil {
			perr.Content = err
		} else {
			e.docDirty, wroteDoc = false, true
		}
	}
	switch {
	case e.notesDirty && perr.Content != nil:
		perr.Notes = ErrNotesDeferred
	case e.notesDirty:
		data, err := json.Marshal(e.notes)
		if err == nil {
			err = e.repo.SaveNotes(ctx, data)
		}
		if err != nil {
			perr.Notes = err
		} else {
			e.notesDirty, wroteNotes = false, true
		}
	}

	if wroteDoc || wroteNotes {
		e.publish(ctx, event.TopicDocumentPersisted, event.DocumentPersisted{
			Namespace: e.repo.Namespace(),
			Content:   wroteDoc,
			Notes:     wroteNotes,
		})
	}
	if perr.Content != nil || perr.Notes != nil {
		e.logger.Warn("persist failed; will retry on next mutation", "error", &perr)
		return &perr
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, t topic.Topic, payload any) {
	e.bus.Publish(ctx, event.New(t, payload, "annotation"))
}

func (e *Engine) fault(ctx context.Context, f event.ConsistencyFault) {
	e.logger.Warn("consistency fault", "kind", string(f.Kind), "id", f.ID, "detail", f.Detail)
	e.publish(ctx, event.TopicConsistencyFault, f)
}
