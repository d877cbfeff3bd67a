package lua

import (
	"os"
	"testing"
	"time"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	h, _ := newTestHooks(t, `function on_note_updated(id, content) end`)

	reloaded := make(chan error, 4)
	w, err := Watch(h, WithReloadDelay(10*time.Millisecond), WithReloadCallback(func(err error) {
		reloaded <- err
	}))
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(h.Path(), []byte(`function on_annotation_created(id, text) end`), 0o644); err != nil {
		t.Fatal(err)
	}

	// A save may arrive as several writes; wait until the final content loads.
	deadline := time.After(5 * time.Second)
	for !h.Has(HookAnnotationCreated) {
		select {
		case err := <-reloaded:
			if err != nil {
				t.Logf("intermediate reload error = %v", err)
			}
		case <-deadline:
			t.Fatal("script was not reloaded")
		}
	}
	if h.Has(HookNoteUpdated) {
		t.Error("previous script still active")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	h, _ := newTestHooks(t, `function on_note_updated(id, content) end`)

	reloaded := make(chan error, 1)
	w, err := Watch(h, WithReloadDelay(0), WithReloadCallback(func(err error) { reloaded <- err }))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	other := h.Path() + ".bak"
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Error("unrelated file triggered a reload")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatch_CloseIsIdempotent(t *testing.T) {
	h, _ := newTestHooks(t, `x = 1`)
	w, err := Watch(h)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
