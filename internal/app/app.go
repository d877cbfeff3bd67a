// Package app wires glossa's components together: configuration, logging,
// the event bus, storage, the annotation engine and the Lua hooks. Hosts
// (the terminal editor, the MCP server and the CLI commands) build an
// Application and drive its engine.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/glossa/internal/annotation"
	"github.com/dshills/glossa/internal/config"
	"github.com/dshills/glossa/internal/event"
	"github.com/dshills/glossa/internal/interaction"
	"github.com/dshills/glossa/internal/logging"
	"github.com/dshills/glossa/internal/plugin/lua"
	"github.com/dshills/glossa/internal/storage"
)

// shutdownTimeout bounds the final flush in Close.
const shutdownTimeout = 5 * time.Second

// Options configures the application.
type Options struct {
	// ConfigPath names the configuration file. Empty searches the default
	// locations.
	ConfigPath string

	// LogLevel and Namespace override the configured values when set.
	LogLevel  string
	Namespace string

	// Overrides are extra setting overrides, keyed by dotted path.
	Overrides map[string]any

	// ConfigOptions are passed to config.New after the options above.
	ConfigOptions []config.Option

	// Console receives logs when no log file is configured. Nil means stderr.
	Console io.Writer

	// DefaultLogFile is used when no log file is configured. Hosts that own
	// the terminal set it so logs never reach the screen.
	DefaultLogFile string
}

// Application holds the running components of one annotation session.
type Application struct {
	opts Options

	cfg    *config.Config
	log    *logging.Logger
	logger *slog.Logger
	bus    *event.Bus
	repo   *storage.Repository
	engine *annotation.Engine
	report annotation.Report

	hooks   *lua.Hooks
	watcher *lua.Watcher

	closeOnce sync.Once
	closeErr  error
}

// New loads the configuration and starts every component. On failure the
// components already started are shut down again.
func New(ctx context.Context, opts Options) (*Application, error) {
	a := &Application{opts: opts}
	if err := a.bootstrap(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// Config returns the loaded configuration.
func (a *Application) Config() *config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Bus returns the event bus components publish on.
func (a *Application) Bus() *event.Bus {
	return a.bus
}

// Repository returns the session repository.
func (a *Application) Repository() *storage.Repository {
	return a.repo
}

// Engine returns the annotation engine.
func (a *Application) Engine() *annotation.Engine {
	return a.engine
}

// Report returns what loading the session found and corrected.
func (a *Application) Report() annotation.Report {
	return a.report
}

// Hooks returns the Lua hooks, or nil when they are disabled.
func (a *Application) Hooks() *lua.Hooks {
	return a.hooks
}

// NewController creates an interaction controller over the engine, wired to
// the bus and the configured hover timing. opts are applied last.
func (a *Application) NewController(opts ...interaction.Option) *interaction.Controller {
	ic := a.cfg.Interaction()
	base := []interaction.Option{
		interaction.WithLogger(a.logger),
		interaction.WithBus(a.bus),
		interaction.WithHoverGrace(ic.HoverGrace),
		interaction.WithPreviewOffset(ic.PreviewOffset),
	}
	return interaction.New(a.engine, append(base, opts...)...)
}

// Close flushes unsaved state and stops every component in reverse start
// order. It is safe to call more than once.
func (a *Application) Close() error {
	a.closeOnce.Do(func() {
		var errs []error

		if a.engine != nil && a.engine.Dirty() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := a.engine.Flush(ctx); err != nil {
				errs = append(errs, err)
				a.logger.Error("final flush failed", "error", err)
			}
			cancel()
		}
		if a.watcher != nil {
			errs = append(errs, a.watcher.Close())
		}
		if a.hooks != nil {
			errs = append(errs, a.hooks.Close())
		}
		if a.repo != nil {
			errs = append(errs, a.repo.Close())
		}
		if a.logger != nil {
			a.logger.Debug("application closed")
		}
		if a.log != nil {
			errs = append(errs, a.log.Close())
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}
