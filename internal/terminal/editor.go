package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/net/html"

	"github.com/dshills/glossa/internal/annotation"
	"github.com/dshills/glossa/internal/document"
	"github.com/dshills/glossa/internal/interaction"
	"github.com/dshills/glossa/internal/selection"
)

// ControllerFactory builds the interaction controller the editor drives.
type ControllerFactory func(opts ...interaction.Option) *interaction.Controller

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the editor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClipboard replaces the system clipboard.
func WithClipboard(c Clipboard) Option {
	return func(e *Editor) {
		if c != nil {
			e.clip = c
		}
	}
}

// WithControllerFactory sets how the interaction controller is built. The
// editor passes its scheduler, resolver and observer as options.
func WithControllerFactory(f ControllerFactory) Option {
	return func(e *Editor) {
		if f != nil {
			e.factory = f
		}
	}
}

// WithScheduler replaces the scheduler that posts controller timers to the
// event loop.
func WithScheduler(s interaction.Scheduler) Option {
	return func(e *Editor) {
		if s != nil {
			e.sched = s
		}
	}
}

// quitRequest asks Run to return.
type quitRequest struct{}

// Editor is a terminal annotation editor. It is not safe for concurrent
// use; Run owns it.
type Editor struct {
	screen   tcell.Screen
	engine   *annotation.Engine
	ctrl     *interaction.Controller
	sel      *selection.Static
	resolver *selection.Resolver
	sched    interaction.Scheduler
	factory  ControllerFactory
	clip     Clipboard
	logger   *slog.Logger

	layout *Layout
	top    int

	caret document.ByteOffset
	aff   document.Affinity

	buttonDown bool
	dragging   bool
	anchor     document.ByteOffset
	hasSel     bool
	selStart   document.ByteOffset
	selEnd     document.ByteOffset

	hoverID   string
	inPreview bool

	editing []rune

	affordance selection.Rect
	preview    selection.Rect
	actions    map[string]selection.Rect

	status string
}

// New creates an editor for engine drawing on screen. The screen must be
// initialized.
func New(screen tcell.Screen, engine *annotation.Engine, opts ...Option) *Editor {
	e := &Editor{
		screen: screen,
		engine: engine,
		clip:   systemClipboard{},
		logger: slog.Default(),
		aff:    document.AffinityBackward,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "terminal")

	if e.sched == nil {
		e.sched = interaction.NewTimerScheduler(e.post)
	}
	if e.factory == nil {
		e.factory = func(opts ...interaction.Option) *interaction.Controller {
			return interaction.New(engine, opts...)
		}
	}

	e.sel = &selection.Static{}
	e.resolver = selection.NewResolver(engine.Document(), e.sel, selection.WithLogger(e.logger))
	e.ctrl = e.factory(
		interaction.WithScheduler(e.sched),
		interaction.WithResolver(e.resolver),
		interaction.WithObserver(e.stateChanged),
	)

	e.caret = engine.Document().Len()
	e.relayout()
	return e
}

// Controller returns the interaction controller.
func (e *Editor) Controller() *interaction.Controller {
	return e.ctrl
}

// Caret returns the caret offset.
func (e *Editor) Caret() document.ByteOffset {
	return e.caret
}

// Status returns the last status message.
func (e *Editor) Status() string {
	return e.status
}

// Close stops the controller's timers.
func (e *Editor) Close() error {
	return e.ctrl.Close()
}

// post queues fn on the event loop. A refused post is retried by the
// scheduler.
func (e *Editor) post(fn func()) error {
	if err := e.screen.PostEvent(tcell.NewEventInterrupt(fn)); err != nil {
		e.logger.Debug("event queue full, timer will retry", "error", err)
		return err
	}
	return nil
}

// Run draws the editor and handles events until the user quits or ctx is
// done.
func (e *Editor) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = e.screen.PostEvent(tcell.NewEventInterrupt(quitRequest{}))
	})
	defer stop()

	e.Draw()
	for {
		ev := e.screen.PollEvent()
		if ev == nil {
			return ctx.Err()
		}
		if e.HandleEvent(ctx, ev) {
			return ctx.Err()
		}
		e.Draw()
	}
}

// HandleEvent applies one terminal event. It reports whether the editor
// should quit.
func (e *Editor) HandleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventInterrupt:
		switch data := ev.Data().(type) {
		case func():
			data()
		case quitRequest:
			return true
		}
	case *tcell.EventResize:
		e.screen.Sync()
		e.relayout()
	case *tcell.EventMouse:
		e.handleMouse(ctx, ev)
	case *tcell.EventKey:
		return e.handleKey(ctx, ev)
	}
	return false
}

func (e *Editor) relayout() {
	w, _ := e.screen.Size()
	e.layout = NewLayout(e.engine.Document(), w)
}

func (e *Editor) textRows() int {
	_, h := e.screen.Size()
	return max(h-2, 1)
}

func (e *Editor) stateChanged(from, to interaction.State) {
	if to.Kind == interaction.KindEditor && !from.Is(interaction.KindEditor, to.ID) {
		note, _ := e.engine.Note(to.ID)
		e.editing = []rune(note.Content)
	}
	if to.Kind != interaction.KindEditor {
		e.editing = nil
	}
}

func (e *Editor) handleMouse(ctx context.Context, ev *tcell.EventMouse) {
	x, y := ev.Position()
	pressed := ev.Buttons()&tcell.Button1 != 0

	switch {
	case pressed && !e.buttonDown:
		e.buttonDown = true
		if e.click(ctx, x, y) || y >= e.textRows() {
			return
		}
		off := e.layout.OffsetAt(x, y+e.top)
		aff := document.AffinityBackward
		if _, ok := e.layout.At(x, y+e.top); ok {
			aff = document.AffinityForward
		}
		e.clearSelection()
		e.dragging = true
		e.anchor = off
		e.caret, e.aff = off, aff

	case pressed && e.dragging:
		off := e.layout.OffsetAt(x, y+e.top)
		e.caret = off
		e.selStart, e.selEnd = min(e.anchor, off), max(e.anchor, off)
		e.hasSel = off != e.anchor

	case !pressed:
		if e.dragging {
			e.dragging = false
			e.finishDrag()
		}
		e.buttonDown = false
		e.hover(x, y)
	}
}

// finishDrag hands the dragged range to the resolver.
func (e *Editor) finishDrag() {
	if !e.hasSel {
		e.sel.Clear()
		e.resolver.SelectionChanged()
		return
	}
	doc := e.engine.Document()
	lo, err := doc.BoundaryAt(e.selStart, document.AffinityForward)
	if err != nil {
		e.logger.Debug("selection start does not resolve", "error", err)
		return
	}
	hi, err := doc.BoundaryAt(e.selEnd, document.AffinityBackward)
	if err != nil {
		e.logger.Debug("selection end does not resolve", "error", err)
		return
	}
	raw := selection.Raw{Anchor: lo, Focus: hi, Rect: e.layout.Rect(e.selStart, e.selEnd)}
	if e.anchor > e.caret {
		raw.Anchor, raw.Focus = hi, lo
	}
	e.sel.Set(raw)
	e.resolver.SelectionChanged()
}

func (e *Editor) clearSelection() {
	if !e.hasSel {
		return
	}
	e.hasSel = false
	e.sel.Clear()
	e.resolver.SelectionChanged()
}

// click handles a press on an overlay. It reports whether the press was
// consumed.
func (e *Editor) click(ctx context.Context, x, y int) bool {
	st := e.ctrl.State()
	switch st.Kind {
	case interaction.KindAffordance:
		if contains(e.affordance, x, y) {
			e.activate(ctx)
			return true
		}
	case interaction.KindPreview:
		for name, r := range e.actions {
			if contains(r, x, y) {
				e.previewAction(ctx, name, st.ID)
				return true
			}
		}
		return contains(e.preview, x, y)
	case interaction.KindEditor:
		return y == e.textRows()
	}
	return false
}

func (e *Editor) previewAction(ctx context.Context, name, id string) {
	switch name {
	case "copy":
		note, _ := e.engine.Note(id)
		if err := e.clip.WriteAll(note.Content); err != nil {
			e.logger.Warn("copy failed", "id", id, "error", err)
			e.status = "copy failed: " + err.Error()
			return
		}
		e.status = "note copied"
	case "edit":
		e.ctrl.OpenEditor(id)
	case "delete":
		e.report("note deleted", e.ctrl.DeleteNote(ctx))
	}
}

func (e *Editor) activate(ctx context.Context) {
	created, err := e.ctrl.Activate(ctx)
	e.hasSel = false
	e.sel.Clear()
	if created.Rejected.Rejected() {
		e.status = "selection rejected: " + created.Rejected.String()
		return
	}
	e.report("annotation created", err)
}

// hover tracks the pointer over spans and the preview surface.
func (e *Editor) hover(x, y int) {
	inPreview := e.ctrl.State().Kind == interaction.KindPreview && contains(e.preview, x, y)

	var (
		id   string
		node *html.Node
	)
	if !inPreview && y < e.textRows() {
		if g, ok := e.layout.At(x, y+e.top); ok {
			if sid, ok := e.engine.AnnotationAt(g.Node); ok {
				id, node = sid, g.Node
			}
		}
	}

	if id != e.hoverID {
		if e.hoverID != "" {
			e.ctrl.PointerLeave()
		}
		e.hoverID = id
		if id != "" {
			e.ctrl.PointerEnter(node, e.spanRect(id))
		}
	}

	if inPreview != e.inPreview {
		e.inPreview = inPreview
		if inPreview {
			e.ctrl.PreviewEnter()
		} else {
			e.ctrl.PreviewLeave()
		}
	}
}

func (e *Editor) spanRect(id string) selection.Rect {
	for _, a := range e.engine.Annotations() {
		if a.ID == id {
			return e.layout.Rect(a.Start, a.End)
		}
	}
	return selection.Rect{}
}

func (e *Editor) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	st := e.ctrl.State()
	if st.Kind == interaction.KindEditor {
		return e.editorKey(ctx, ev)
	}

	switch ev.Key() {
	case tcell.KeyCtrlQ, tcell.KeyCtrlC:
		return true
	case tcell.KeyEscape:
		e.ctrl.Dismiss()
		e.clearSelection()
	case tcell.KeyEnter:
		switch st.Kind {
		case interaction.KindAffordance:
			e.activate(ctx)
		case interaction.KindPreview:
			e.ctrl.OpenEditor(st.ID)
		}
	case tcell.KeyCtrlY:
		if st.Kind == interaction.KindPreview {
			e.previewAction(ctx, "copy", st.ID)
		}
	case tcell.KeyCtrlD:
		if st.Kind == interaction.KindPreview {
			e.previewAction(ctx, "delete", st.ID)
		}
	case tcell.KeyCtrlX:
		e.guard(ctx)
	case tcell.KeyCtrlS:
		e.report("saved", e.engine.Flush(ctx))
	case tcell.KeyLeft:
		e.moveCaret(e.layout.Prev(e.caret), document.AffinityForward)
	case tcell.KeyRight:
		e.moveCaret(e.layout.Next(e.caret), document.AffinityBackward)
	case tcell.KeyHome:
		_, y := e.layout.Position(e.caret, e.aff)
		e.moveCaret(e.layout.LineStart(y), document.AffinityForward)
	case tcell.KeyEnd:
		_, y := e.layout.Position(e.caret, e.aff)
		e.moveCaret(e.layout.LineEnd(y), document.AffinityBackward)
	case tcell.KeyUp, tcell.KeyDown:
		x, y := e.layout.Position(e.caret, e.aff)
		if ev.Key() == tcell.KeyUp {
			y--
		} else {
			y++
		}
		if y >= 0 && y < e.layout.Lines() {
			e.moveCaret(e.layout.OffsetAt(x, y), document.AffinityForward)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		e.deleteBefore(ctx)
	case tcell.KeyRune:
		e.insert(ctx, string(ev.Rune()))
	}
	return false
}

func (e *Editor) editorKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlQ, tcell.KeyCtrlC:
		return true
	case tcell.KeyEscape, tcell.KeyEnter:
		e.ctrl.CloseEditor()
	case tcell.KeyCtrlD:
		e.report("note deleted", e.ctrl.DeleteNote(ctx))
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(e.editing) > 0 {
			e.editing = e.editing[:len(e.editing)-1]
			e.report("", e.ctrl.UpdateNote(ctx, string(e.editing)))
		}
	case tcell.KeyRune:
		e.editing = append(e.editing, ev.Rune())
		e.report("", e.ctrl.UpdateNote(ctx, string(e.editing)))
	}
	return false
}

func (e *Editor) moveCaret(off document.ByteOffset, aff document.Affinity) {
	e.clearSelection()
	e.caret, e.aff = off, aff
}

func (e *Editor) insert(ctx context.Context, text string) {
	e.clearSelection()
	doc := e.engine.Document()
	b, err := doc.BoundaryAt(e.caret, e.aff)
	if err != nil {
		e.report("", err)
		return
	}
	next, err := e.engine.InsertText(ctx, b, text)
	e.caretTo(next, document.AffinityBackward)
	e.report("", err)
	e.relayout()
}

func (e *Editor) deleteBefore(ctx context.Context) {
	e.clearSelection()
	if e.caret == 0 {
		return
	}
	doc := e.engine.Document()
	b, err := doc.BoundaryAt(e.caret, document.AffinityBackward)
	if err != nil {
		e.report("", err)
		return
	}
	next, err := e.engine.DeleteBefore(ctx, b)
	e.caretTo(next, document.AffinityBackward)
	e.report("", err)
	e.relayout()
}

// guard steps the caret out of the end of a span so typing lands outside.
func (e *Editor) guard(ctx context.Context) {
	doc := e.engine.Document()
	b, err := doc.BoundaryAt(e.caret, document.AffinityBackward)
	if err != nil {
		e.report("", err)
		return
	}
	next, guarded, err := e.engine.GuardTrailingEdge(ctx, b)
	if !guarded {
		e.status = "caret is not at the end of a note"
		return
	}
	e.caretTo(next, document.AffinityBackward)
	e.report("caret moved past note", err)
	e.relayout()
}

func (e *Editor) caretTo(b document.Boundary, aff document.Affinity) {
	off, err := e.engine.Document().OffsetOf(b)
	if err != nil {
		e.logger.Debug("caret does not resolve", "error", err)
		return
	}
	e.caret, e.aff = off, aff
}

// report sets the status line from the outcome of an operation.
func (e *Editor) report(ok string, err error) {
	var pe *annotation.PersistError
	switch {
	case err == nil:
		if ok != "" {
			e.status = ok
		}
	case errors.As(err, &pe):
		e.logger.Error("save failed", "error", err)
		e.status = fmt.Sprintf("not saved (%v); Ctrl+S retries", err)
	default:
		e.logger.Warn("operation failed", "error", err)
		e.status = err.Error()
	}
}

func contains(r selection.Rect, x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}
