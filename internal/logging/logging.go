// Package logging builds the slog logger shared by every glossa component.
//
// Logs go to a console writer, or to a size-rotated file when a file is
// configured. Components add their own "component" attribute with With.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrUnknownFormat is returned for a format other than text or json.
var ErrUnknownFormat = errors.New("logging: unknown format")

// Options configures New.
type Options struct {
	Level  string
	Format string
	// File, when set, receives the logs instead of Console.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console receives the logs when File is empty. Nil means stderr.
	Console io.Writer
}

// Logger couples a slog.Logger with the writer it owns.
type Logger struct {
	*slog.Logger
	file *lumberjack.Logger
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Rotate starts a new log file. It is a no-op for console logging.
func (l *Logger) Rotate() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Rotate()
}

// ParseLevel converts a level name to a slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger from opts.
func New(opts Options) (*Logger, error) {
	var (
		w    io.Writer
		file *lumberjack.Logger
	)
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		w = file
	} else {
		w = opts.Console
		if w == nil {
			w = os.Stderr
		}
	}

	handlerOpts := &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		if file != nil {
			_ = file.Close()
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}

	return &Logger{Logger: slog.New(handler), file: file}, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
