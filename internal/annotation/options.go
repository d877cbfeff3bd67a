package annotation

import (
	"log/slog"

	"github.com/dshills/glossa/internal/event"
	"github.com/dshills/glossa/internal/storage"
)

// DefaultContent is the document a new session starts with.
const DefaultContent = "<p>ابدأ الكتابة هنا...</p>"

// Option configures an Engine during creation.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBus sets the bus the engine publishes on.
func WithBus(b *event.Bus) Option {
	return func(e *Engine) {
		e.bus = b
	}
}

// WithRepository makes every mutation persist through repo.
func WithRepository(repo *storage.Repository) Option {
	return func(e *Engine) {
		e.repo = repo
	}
}

// WithIDs sets the id generator.
func WithIDs(g IDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithHighlightClass sets the class given to new spans.
func WithHighlightClass(class string) Option {
	return func(e *Engine) {
		if class != "" {
			e.class = class
		}
	}
}

// WithReconcilePolicy sets how Load treats spans that have no note.
func WithReconcilePolicy(p ReconcilePolicy) Option {
	return func(e *Engine) {
		if p != "" {
			e.policy = p
		}
	}
}

// WithDefaultContent sets the markup Load uses when nothing is stored.
func WithDefaultContent(markup string) Option {
	return func(e *Engine) {
		e.defaultContent = markup
	}
}
