package selection

import (
	"log/slog"
	"sync"

	"github.com/dshills/glossa/internal/document"
)

// Raw is a selection as the host tracks it, ends in gesture order.
type Raw struct {
	Anchor document.Boundary
	Focus  document.Boundary
	Rect   Rect
}

// Source reports the host's active selection.
type Source interface {
	// Selection returns the current raw selection and false when the host
	// has none.
	Selection() (Raw, bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Raw, bool)

// Selection implements Source.
func (f SourceFunc) Selection() (Raw, bool) {
	return f()
}

// Static is a Source holding an explicitly set selection.
type Static struct {
	mu  sync.Mutex
	raw Raw
	ok  bool
}

// Set replaces the held selection.
func (s *Static) Set(raw Raw) {
	s.mu.Lock()
	s.raw, s.ok = raw, true
	s.mu.Unlock()
}

// Clear drops the held selection.
func (s *Static) Clear() {
	s.mu.Lock()
	s.raw, s.ok = Raw{}, false
	s.mu.Unlock()
}

// Selection implements Source.
func (s *Static) Selection() (Raw, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw, s.ok
}

// Listener receives every re-resolved selection. ok is false for "none".
type Listener func(r Range, ok bool)

// Resolver normalizes the selection of a Source against a document.
type Resolver struct {
	doc    *document.Document
	src    Source
	logger *slog.Logger

	mu        sync.Mutex
	listeners []Listener
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver reading src against doc.
func NewResolver(doc *document.Document, src Source, opts ...Option) *Resolver {
	r := &Resolver{doc: doc, src: src, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "selection")
	return r
}

// Current returns the normalized selection, or false when the selection is
// absent, collapsed, or no longer points into the document.
func (r *Resolver) Current() (Range, bool) {
	raw, ok := r.src.Selection()
	if !ok || raw.Anchor.IsZero() || raw.Focus.IsZero() {
		return Range{}, false
	}
	rng, err := Normalize(r.doc, raw.Anchor, raw.Focus, raw.Rect)
	if err != nil {
		r.logger.Debug("selection does not resolve", "error", err)
		return Range{}, false
	}
	if rng.Collapsed {
		return Range{}, false
	}
	return rng, true
}

// Subscribe registers l for selection changes.
func (r *Resolver) Subscribe(l Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// SelectionChanged re-resolves the selection and pushes it to every listener.
// It returns the resolved value.
func (r *Resolver) SelectionChanged() (Range, bool) {
	rng, ok := r.Current()

	r.mu.Lock()
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	for _, l := range listeners {
		l(rng, ok)
	}
	return rng, ok
}
