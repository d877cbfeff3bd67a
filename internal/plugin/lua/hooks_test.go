package lua

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/glossa/internal/event"
)

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

const testScript = `
local count = 0

function on_annotation_created(id, text)
  count = count + 1
  log("created " .. id .. " [" .. text .. "] #" .. count)
end

function on_annotation_removed(id)
  log("removed " .. id)
end

function on_note_updated(id, content)
  log("updated " .. id .. " " .. content)
end
`

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "hooks.lua")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestHooks(t *testing.T, body string) (*Hooks, *syncBuffer) {
	t.Helper()
	buf := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	h, err := NewHooks(writeScript(t, t.TempDir(), body), WithLogger(logger))
	if err != nil {
		t.Fatalf("NewHooks() error = %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h, buf
}

func TestNewHooks_NoScript(t *testing.T) {
	if _, err := NewHooks(""); !errors.Is(err, ErrNoScript) {
		t.Errorf("NewHooks(\"\") error = %v, want ErrNoScript", err)
	}
}

func TestNewHooks_BadScript(t *testing.T) {
	path := writeScript(t, t.TempDir(), "function (")
	if _, err := NewHooks(path); err == nil {
		t.Error("NewHooks() of invalid Lua succeeded")
	}
}

func TestHooks_Attach(t *testing.T) {
	h, buf := newTestHooks(t, testScript)
	bus := event.NewBus()
	if err := h.Attach(bus); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if bus.Len() != 3 {
		t.Errorf("bus.Len() = %d, want 3", bus.Len())
	}

	ctx := context.Background()
	bus.Publish(ctx, event.New(event.TopicAnnotationCreated, event.AnnotationCreated{ID: "note-1", Text: "حدد نصًا"}, "test"))
	bus.Publish(ctx, event.New(event.TopicAnnotationCreated, event.AnnotationCreated{ID: "note-2", Text: "b"}, "test"))
	bus.Publish(ctx, event.New(event.TopicNoteUpdated, event.NoteUpdated{ID: "note-1", Content: "hi"}, "test"))
	bus.Publish(ctx, event.New(event.TopicAnnotationRemoved, event.AnnotationRemoved{ID: "note-2", Spans: 1}, "test"))

	out := buf.String()
	for _, want := range []string{
		"created note-1 [حدد نصًا] #1",
		"created note-2 [b] #2",
		"updated note-1 hi",
		"removed note-2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}

	h.Detach()
	if bus.Len() != 0 {
		t.Errorf("bus.Len() after Detach = %d, want 0", bus.Len())
	}
}

func TestHooks_MissingHookIsSkipped(t *testing.T) {
	h, _ := newTestHooks(t, `function on_note_updated(id, content) end`)
	if h.Has(HookAnnotationCreated) {
		t.Error("Has(created) = true")
	}
	if !h.Has(HookNoteUpdated) {
		t.Error("Has(updated) = false")
	}
	if err := h.Run(context.Background(), HookAnnotationCreated, "x", "text"); err != nil {
		t.Errorf("Run(undefined hook) error = %v", err)
	}
}

func TestHooks_ErrorReachesBus(t *testing.T) {
	h, _ := newTestHooks(t, `function on_note_updated(id, content) error("boom") end`)
	bus := event.NewBus(event.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	if err := h.Attach(bus); err != nil {
		t.Fatal(err)
	}

	n := bus.Publish(context.Background(), event.New(event.TopicNoteUpdated, event.NoteUpdated{ID: "a"}, "test"))
	if n != 0 {
		t.Errorf("Publish() delivered %d, want 0 for a failing hook", n)
	}
	if got := bus.Stats().Errors; got != 1 {
		t.Errorf("Stats().Errors = %d, want 1", got)
	}
}

func TestHooks_ReloadKeepsPreviousOnFailure(t *testing.T) {
	h, _ := newTestHooks(t, `function on_note_updated(id, content) end`)
	before := h.LoadedAt()

	if err := os.WriteFile(h.Path(), []byte("function ("), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(context.Background()); err == nil {
		t.Fatal("Reload() of invalid Lua succeeded")
	}
	if !h.Has(HookNoteUpdated) || !h.LoadedAt().Equal(before) {
		t.Error("failed Reload replaced the previous script")
	}

	if err := os.WriteFile(h.Path(), []byte(`function on_annotation_removed(id) end`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if h.Has(HookNoteUpdated) || !h.Has(HookAnnotationRemoved) {
		t.Error("Reload did not swap in the new script")
	}
}

func TestHooks_Close(t *testing.T) {
	h, _ := newTestHooks(t, testScript)
	bus := event.NewBus()
	_ = h.Attach(bus)

	if err := h.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if bus.Len() != 0 {
		t.Errorf("bus.Len() after Close = %d", bus.Len())
	}
	if h.Has(HookAnnotationCreated) {
		t.Error("Has() after Close = true")
	}
}
