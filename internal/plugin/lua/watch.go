package lua

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDelay coalesces the burst of events an editor save produces.
const DefaultReloadDelay = 100 * time.Millisecond

// Watcher reloads a Hooks script when the file changes on disk.
type Watcher struct {
	hooks  *Hooks
	target string
	delay  time.Duration
	logger *slog.Logger
	onLoad func(error)

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithReloadDelay sets how long the watcher waits after the last change
// before reloading.
func WithReloadDelay(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.delay = d
		}
	}
}

// WithReloadCallback registers fn to receive the result of every reload.
func WithReloadCallback(fn func(error)) WatchOption {
	return func(w *Watcher) {
		w.onLoad = fn
	}
}

// Watch starts reloading h whenever its script changes. The directory is
// watched rather than the file so editors that save by renaming a new file
// into place are seen.
func Watch(h *Hooks, opts ...WatchOption) (*Watcher, error) {
	target, err := filepath.Abs(h.Path())
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	w := &Watcher{
		hooks:   h,
		target:  target,
		delay:   DefaultReloadDelay,
		logger:  h.logger,
		fsw:     fsw,
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.target {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
				w.schedule()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("hook watcher error", "error", err)
		}
	}
}

// schedule restarts the reload delay.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	err := w.hooks.Reload(context.Background())
	if err != nil {
		w.logger.Error("hook reload failed, keeping previous script", "error", err)
	}
	if w.onLoad != nil {
		w.onLoad(err)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsw.Close()
}
