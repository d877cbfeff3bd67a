package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/glossa/internal/annotation"
	"github.com/dshills/glossa/internal/config"
	"github.com/dshills/glossa/internal/event"
	"github.com/dshills/glossa/internal/logging"
	"github.com/dshills/glossa/internal/plugin/lua"
	"github.com/dshills/glossa/internal/storage"
)

// bootstrap initializes all components in dependency order.
func (a *Application) bootstrap(ctx context.Context) error {
	// 1. Config
	if err := a.loadConfig(ctx); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	// 2. Logging
	if err := a.startLogging(); err != nil {
		return &InitError{Component: "logging", Err: err}
	}
	for path, err := range a.cfg.ConfigErrors() {
		a.logger.Warn("setting ignored", "path", path, "error", err)
	}

	// 3. Event bus
	a.bus = event.NewBus(event.WithLogger(a.logger))

	// 4. Hooks, before the engine so load-time events reach them
	if err := a.startHooks(ctx); err != nil {
		return &InitError{Component: "hooks", Err: err}
	}

	// 5. Storage
	sc := a.cfg.Storage()
	kv, err := storage.Open(sc.Backend, sc.Path)
	if err != nil {
		return &InitError{Component: "storage", Err: err}
	}
	a.repo = storage.NewRepository(kv, sc.Namespace)
	a.logger.Info("storage opened", "backend", sc.Backend, "path", sc.Path, "namespace", sc.Namespace)

	// 6. Annotation engine
	ac := a.cfg.Annotation()
	engine, report, err := annotation.Load(ctx, a.repo,
		annotation.WithLogger(a.logger),
		annotation.WithBus(a.bus),
		annotation.WithIDs(annotation.TimeIDs{Prefix: ac.IDPrefix}),
		annotation.WithHighlightClass(ac.HighlightClass),
		annotation.WithReconcilePolicy(ac.Reconcile),
		annotation.WithDefaultContent(ac.InitialContent),
	)
	if err != nil {
		return &InitError{Component: "annotation", Err: err}
	}
	a.engine, a.report = engine, report
	a.logger.Info("session loaded",
		"annotations", len(engine.IDs()),
		"defaulted", report.Defaulted,
		"faults", len(report.Faults))
	return nil
}

func (a *Application) loadConfig(ctx context.Context) error {
	var opts []config.Option
	if a.opts.ConfigPath != "" {
		opts = append(opts, config.WithFile(a.opts.ConfigPath))
	}
	if a.opts.LogLevel != "" {
		opts = append(opts, config.WithOverride("logging.level", a.opts.LogLevel))
	}
	if a.opts.Namespace != "" {
		opts = append(opts, config.WithOverride("storage.namespace", a.opts.Namespace))
	}
	for path, v := range a.opts.Overrides {
		opts = append(opts, config.WithOverride(path, v))
	}
	opts = append(opts, a.opts.ConfigOptions...)

	a.cfg = config.New(opts...)
	return a.cfg.Load(ctx)
}

func (a *Application) startLogging() error {
	lc := a.cfg.Logging()
	file := lc.File
	if file == "" {
		file = a.opts.DefaultLogFile
	}
	l, err := logging.New(logging.Options{
		Level:      lc.Level,
		Format:     lc.Format,
		File:       file,
		MaxSizeMB:  lc.MaxSize,
		MaxBackups: lc.MaxBackups,
		MaxAgeDays: lc.MaxAge,
		Console:    a.opts.Console,
	})
	if err != nil {
		return err
	}
	a.log = l
	a.logger = l.Logger
	return nil
}

func (a *Application) startHooks(ctx context.Context) error {
	hc := a.cfg.Hooks()
	if !hc.Enabled {
		return nil
	}

	h, err := lua.NewHooks(hc.Script, lua.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.hooks = h
	if err := h.Attach(a.bus); err != nil {
		return err
	}

	if hc.Watch {
		w, err := lua.Watch(h)
		if err != nil {
			return fmt.Errorf("watch %s: %w", hc.Script, err)
		}
		a.watcher = w
	}
	return ctx.Err()
}

// IsInitError reports whether err came from starting component.
func IsInitError(err error, component string) bool {
	var ie *InitError
	return errors.As(err, &ie) && ie.Component == component
}
