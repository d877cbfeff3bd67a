package interaction

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/net/html"

	"github.com/dshills/glossa/internal/annotation"
	"github.com/dshills/glossa/internal/event"
	"github.com/dshills/glossa/internal/event/topic"
	"github.com/dshills/glossa/internal/notes"
	"github.com/dshills/glossa/internal/selection"
)

const (
	// DefaultHoverGrace is how long a preview survives the pointer leaving.
	DefaultHoverGrace = 300 * time.Millisecond

	// DefaultPreviewOffset is the gap between a span and its preview.
	DefaultPreviewOffset = 5
)

// Annotator is the part of the annotation engine the controller drives.
type Annotator interface {
	CreateAnnotation(ctx context.Context, rng selection.Range) (annotation.Creation, error)
	RemoveAnnotation(ctx context.Context, id string) error
	UpdateNoteContent(ctx context.Context, id, content string) error
	AnnotationAt(n *html.Node) (string, bool)
	Note(id string) (notes.Note, bool)
}

// Observer is told about every state change.
type Observer func(from, to State)

// Controller is the interaction state machine.
type Controller struct {
	engine    Annotator
	sched     Scheduler
	bus       *event.Bus
	logger    *slog.Logger
	observers []Observer

	grace         time.Duration
	previewOffset int

	state  State
	hide   Handle
	subs   []event.SubscriptionID
	closed bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBus makes the controller publish state changes on b and react to
// document edits and annotation removals published there.
func WithBus(b *event.Bus) Option {
	return func(c *Controller) {
		c.bus = b
	}
}

// WithScheduler sets the scheduler used for the hover-hide delay.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.sched = s
		}
	}
}

// WithHoverGrace sets how long a preview survives the pointer leaving.
func WithHoverGrace(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.grace = d
		}
	}
}

// WithPreviewOffset sets the vertical gap between a span and its preview.
func WithPreviewOffset(px int) Option {
	return func(c *Controller) {
		c.previewOffset = px
	}
}

// WithObserver registers fn for state changes.
func WithObserver(fn Observer) Option {
	return func(c *Controller) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// WithResolver makes the controller follow every selection r resolves.
func WithResolver(r *selection.Resolver) Option {
	return func(c *Controller) {
		if r != nil {
			r.Subscribe(c.SelectionChanged)
		}
	}
}

// New creates a controller over engine. Without WithScheduler a
// ManualScheduler is used. Hover hides then wait until the host advances it
// (see Controller.Scheduler), so no action runs off the caller's goroutine.
func New(engine Annotator, opts ...Option) *Controller {
	c := &Controller{
		engine:        engine,
		logger:        slog.Default(),
		grace:         DefaultHoverGrace,
		previewOffset: DefaultPreviewOffset,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sched == nil {
		c.sched = NewManualScheduler()
	}
	c.logger = c.logger.With("component", "interaction")

	if c.bus != nil {
		c.subscribe(event.TopicDocumentEdited, func(context.Context, event.Event) error {
			c.DocumentEdited()
			return nil
		})
		c.subscribe(event.TopicAnnotationRemoved, func(_ context.Context, ev event.Event) error {
			if p, ok := ev.Payload.(event.AnnotationRemoved); ok {
				c.AnnotationRemoved(p.ID)
			}
			return nil
		})
	}
	return c
}

func (c *Controller) subscribe(t topic.Topic, h event.Handler) {
	id, err := c.bus.Subscribe(t, h)
	if err != nil {
		c.logger.Error("subscribe failed", "topic", t.String(), "error", err)
		return
	}
	c.subs = append(c.subs, id)
}

// Scheduler returns the scheduler that delays hover hides.
func (c *Controller) Scheduler() Scheduler {
	return c.sched
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// OpenNote returns the note shown by the current preview or editor.
func (c *Controller) OpenNote() (notes.Note, bool) {
	if c.state.Kind != KindPreview && c.state.Kind != KindEditor {
		return notes.Note{}, false
	}
	return c.engine.Note(c.state.ID)
}

// HidePending reports whether a preview hide is scheduled.
func (c *Controller) HidePending() bool {
	return c.hide != 0
}

// SelectionChanged shows the affordance for a non-collapsed selection and
// hides it when the selection goes away. It is ignored while the editor is
// open.
func (c *Controller) SelectionChanged(rng selection.Range, ok bool) {
	if c.closed || c.state.Kind == KindEditor {
		return
	}
	if ok && !rng.Collapsed {
		c.set(State{Kind: KindAffordance, At: rng.TrailingEdge(), Range: rng})
		return
	}
	if c.state.Kind == KindAffordance {
		c.set(None)
	}
}

// PointerEnter reports the pointer entering node n, whose span occupies
// rect. Over a live span it shows that span's preview and cancels a pending
// hide. It returns the id under the pointer.
func (c *Controller) PointerEnter(n *html.Node, rect selection.Rect) (string, bool) {
	if c.closed {
		return "", false
	}
	id, ok := c.engine.AnnotationAt(n)
	if !ok {
		return "", false
	}
	switch c.state.Kind {
	case KindEditor, KindAffordance:
		return id, true
	case KindPreview:
		c.cancelHide()
		if c.state.ID == id {
			return id, true
		}
	}
	c.set(State{
		Kind: KindPreview,
		At:   selection.Position{Top: rect.Bottom + c.previewOffset, Left: rect.Left},
		ID:   id,
	})
	return id, true
}

// PointerLeave reports the pointer leaving a span. A visible preview is
// hidden after the grace interval.
func (c *Controller) PointerLeave() {
	if c.closed || c.state.Kind != KindPreview {
		return
	}
	c.scheduleHide()
}

// PreviewEnter reports the pointer entering the preview surface; it cancels
// a pending hide.
func (c *Controller) PreviewEnter() {
	if c.state.Kind == KindPreview {
		c.cancelHide()
	}
}

// PreviewLeave reports the pointer leaving the preview surface.
func (c *Controller) PreviewLeave() {
	c.PointerLeave()
}

// Activate creates an annotation from the selection the affordance offers
// and opens the editor for it. A rejected selection leaves nothing shown
// and is reported through the returned Creation. The error is
// ErrNoAffordance when no affordance is visible, or a persistence failure
// from the engine; in the latter case the editor is still opened.
func (c *Controller) Activate(ctx context.Context) (annotation.Creation, error) {
	if c.closed {
		return annotation.Creation{}, ErrStateClosed
	}
	if c.state.Kind != KindAffordance {
		return annotation.Creation{}, ErrNoAffordance
	}
	rng, at := c.state.Range, c.state.At
	c.set(None)

	created, err := c.engine.CreateAnnotation(ctx, rng)
	if created.Rejected.Rejected() {
		c.logger.Info("selection rejected", "reason", created.Rejected.String())
		return created, err
	}
	if created.ID != "" {
		c.set(State{Kind: KindEditor, At: at, ID: created.ID})
	}
	return created, err
}

// Dismiss hides a visible affordance or preview.
func (c *Controller) Dismiss() {
	switch c.state.Kind {
	case KindAffordance, KindPreview:
		c.set(None)
	}
}

// OpenEditor opens the editor for id. It reports false when id has no note.
func (c *Controller) OpenEditor(id string) bool {
	if c.closed {
		return false
	}
	if _, ok := c.engine.Note(id); !ok {
		return false
	}
	c.set(State{Kind: KindEditor, At: c.state.At, ID: id})
	return true
}

// CloseEditor closes an open editor.
func (c *Controller) CloseEditor() {
	if c.state.Kind == KindEditor {
		c.set(None)
	}
}

// UpdateNote replaces the content of the note open in the editor.
func (c *Controller) UpdateNote(ctx context.Context, content string) error {
	if c.closed {
		return ErrStateClosed
	}
	if c.state.Kind != KindEditor {
		return ErrNoOpenNote
	}
	return c.engine.UpdateNoteContent(ctx, c.state.ID, content)
}

// DeleteNote removes the annotation shown in the preview or editor and
// returns to the empty state.
func (c *Controller) DeleteNote(ctx context.Context) error {
	if c.closed {
		return ErrStateClosed
	}
	if c.state.Kind != KindPreview && c.state.Kind != KindEditor {
		return ErrNoOpenNote
	}
	id := c.state.ID
	err := c.engine.RemoveAnnotation(ctx, id)
	c.AnnotationRemoved(id)
	return err
}

// DocumentEdited hides the affordance, whose selection no longer applies.
func (c *Controller) DocumentEdited() {
	if c.state.Kind == KindAffordance {
		c.set(None)
	}
}

// AnnotationRemoved closes a preview or editor showing id.
func (c *Controller) AnnotationRemoved(id string) {
	switch c.state.Kind {
	case KindPreview, KindEditor:
		if c.state.ID == id {
			c.set(None)
		}
	}
}

// Close cancels pending work and detaches from the bus. Later events are
// ignored.
func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.cancelHide()
	for _, id := range c.subs {
		c.bus.Unsubscribe(id)
	}
	c.subs = nil
	return nil
}

func (c *Controller) scheduleHide() {
	c.cancelHide()
	var h Handle
	h = c.sched.Schedule(c.grace, func() {
		if c.hide != h {
			return
		}
		c.hide = 0
		if c.state.Kind == KindPreview {
			c.set(None)
		}
	})
	c.hide = h
}

func (c *Controller) cancelHide() {
	if c.hide != 0 {
		c.sched.Cancel(c.hide)
		c.hide = 0
	}
}

// set switches to next atomically: observers and subscribers only ever see
// the completed switch.
func (c *Controller) set(next State) {
	from := c.state
	if from == next {
		return
	}
	if from.Kind == KindPreview {
		c.cancelHide()
	}
	c.state = next

	c.logger.Debug("state changed", "from", from.Kind.String(), "to", next.Kind.String(), "id", next.ID)
	for _, fn := range c.observers {
		fn(from, next)
	}
	c.bus.Publish(context.Background(), event.New(event.TopicInteractionChanged, event.InteractionChanged{
		From: from.Kind.String(),
		To:   next.Kind.String(),
		ID:   next.ID,
	}, "interaction"))
}
