package lua

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/glossa/internal/event"
	"github.com/dshills/glossa/internal/event/topic"
)

// Hook function names looked up in the script.
const (
	HookAnnotationCreated = "on_annotation_created"
	HookAnnotationRemoved = "on_annotation_removed"
	HookNoteUpdated       = "on_note_updated"
)

// ErrNoScript is returned by NewHooks for an empty path.
var ErrNoScript = errors.New("lua: no hook script")

// Hooks runs a hook script in response to bus events.
type Hooks struct {
	path    string
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.RWMutex
	state    *State
	loadedAt time.Time

	bus  *event.Bus
	subs []event.SubscriptionID
}

// Option configures Hooks.
type Option func(*Hooks)

// WithLogger sets the logger hooks and print write to.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hooks) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithTimeout bounds every hook call.
func WithTimeout(d time.Duration) Option {
	return func(h *Hooks) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewHooks loads the script at path.
func NewHooks(path string, opts ...Option) (*Hooks, error) {
	if path == "" {
		return nil, ErrNoScript
	}
	h := &Hooks{
		path:    path,
		logger:  slog.Default(),
		timeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "hooks", "script", path)

	if err := h.Reload(context.Background()); err != nil {
		return nil, err
	}
	return h, nil
}

// Path returns the script path.
func (h *Hooks) Path() string {
	return h.path
}

// LoadedAt returns when the current script version was loaded.
func (h *Hooks) LoadedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loadedAt
}

// Reload runs the script in a fresh state and swaps it in. On failure the
// previous state stays active.
func (h *Hooks) Reload(ctx context.Context) error {
	next := NewState(WithExecutionTimeout(h.timeout), WithStateLogger(h.logger))
	if err := next.DoFile(ctx, h.path); err != nil {
		_ = next.Close()
		return fmt.Errorf("load hooks %s: %w", h.path, err)
	}

	h.mu.Lock()
	prev := h.state
	h.state = next
	h.loadedAt = time.Now()
	h.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	h.logger.Info("hooks loaded",
		"created", next.HasFunc(HookAnnotationCreated),
		"removed", next.HasFunc(HookAnnotationRemoved),
		"updated", next.HasFunc(HookNoteUpdated))
	return nil
}

// Has reports whether the loaded script defines the named hook.
func (h *Hooks) Has(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state != nil && h.state.HasFunc(name)
}

// Run calls the named hook with args. A hook the script does not define is
// skipped.
func (h *Hooks) Run(ctx context.Context, name string, args ...any) error {
	h.mu.RLock()
	st := h.state
	h.mu.RUnlock()

	if st == nil || !st.HasFunc(name) {
		return nil
	}
	if _, err := st.Call(ctx, name, args...); err != nil {
		if errors.Is(err, ErrStateClosed) {
			// Swapped out by a concurrent Reload.
			return nil
		}
		return fmt.Errorf("hook %s: %w", name, err)
	}
	return nil
}

// Attach subscribes the hooks to annotation and note events on b.
func (h *Hooks) Attach(b *event.Bus) error {
	if b == nil {
		return nil
	}
	h.Detach()

	handlers := map[topic.Topic]event.Handler{
		event.TopicAnnotationCreated: func(ctx context.Context, ev event.Event) error {
			p, ok := ev.Payload.(event.AnnotationCreated)
			if !ok {
				return nil
			}
			return h.Run(ctx, HookAnnotationCreated, p.ID, p.Text)
		},
		event.TopicAnnotationRemoved: func(ctx context.Context, ev event.Event) error {
			p, ok := ev.Payload.(event.AnnotationRemoved)
			if !ok {
				return nil
			}
			return h.Run(ctx, HookAnnotationRemoved, p.ID)
		},
		event.TopicNoteUpdated: func(ctx context.Context, ev event.Event) error {
			p, ok := ev.Payload.(event.NoteUpdated)
			if !ok {
				return nil
			}
			return h.Run(ctx, HookNoteUpdated, p.ID, p.Content)
		},
	}

	h.bus = b
	for t, fn := range handlers {
		id, err := b.Subscribe(t, fn)
		if err != nil {
			h.Detach()
			return fmt.Errorf("subscribe %s: %w", t.String(), err)
		}
		h.subs = append(h.subs, id)
	}
	return nil
}

// Detach removes the bus subscriptions made by Attach.
func (h *Hooks) Detach() {
	if h.bus == nil {
		return
	}
	for _, id := range h.subs {
		h.bus.Unsubscribe(id)
	}
	h.subs = nil
	h.bus = nil
}

// Close detaches from the bus and releases the Lua state.
func (h *Hooks) Close() error {
	h.Detach()

	h.mu.Lock()
	st := h.state
	h.state = nil
	h.mu.Unlock()

	if st != nil {
		return st.Close()
	}
	return nil
}
