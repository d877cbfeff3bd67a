package config

import (
	"path/filepath"
	"regexp"
	"time"

	"github.com/dshills/glossa/internal/annotation"
	"github.com/dshills/glossa/internal/document"
)

// StorageConfig selects the key-value backend a session lives in.
type StorageConfig struct {
	// Backend is one of "sqlite", "file" or "memory".
	Backend string
	// Path is the database file (sqlite) or directory (file).
	Path string
	// Namespace prefixes every stored key.
	Namespace string
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string
	Format string
	// File, when set, receives logs through a rotating writer instead of stderr.
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// AnnotationConfig contains annotation engine settings.
type AnnotationConfig struct {
	IDPrefix       string
	HighlightClass string
	Reconcile      annotation.ReconcilePolicy
	InitialContent string
}

// InteractionConfig contains interaction controller settings.
type InteractionConfig struct {
	HoverGrace    time.Duration
	PreviewOffset int
}

// HooksConfig contains Lua hook settings.
type HooksConfig struct {
	Enabled bool
	Script  string
	// Watch reloads Script when it changes on disk.
	Watch bool
}

// Storage returns the storage configuration. An empty path resolves to a
// location under the user data directory.
func (c *Config) Storage() StorageConfig {
	sc := StorageConfig{
		Backend:   c.getStringOr("storage.backend", "sqlite"),
		Path:      c.getStringOr("storage.path", ""),
		Namespace: c.getStringOr("storage.namespace", "arabic-editor"),
	}
	if sc.Path == "" {
		switch sc.Backend {
		case "sqlite":
			sc.Path = filepath.Join(userDataDir(), "glossa.db")
		case "file":
			sc.Path = filepath.Join(userDataDir(), "store")
		}
	}
	return sc
}

// Logging returns the logging configuration.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:      c.getStringOr("logging.level", "info"),
		Format:     c.getStringOr("logging.format", "text"),
		File:       c.getStringOr("logging.file", ""),
		MaxSize:    c.getIntOr("logging.max_size_mb", 10),
		MaxBackups: c.getIntOr("logging.max_backups", 5),
		MaxAge:     c.getIntOr("logging.max_age_days", 28),
	}
}

// Annotation returns the annotation configuration. An unknown reconcile
// policy falls back to strip, and an id prefix or class that markup
// sanitizing would strip falls back to its default; Load reports both as
// validation errors.
func (c *Config) Annotation() AnnotationConfig {
	policy, err := annotation.ParsePolicy(c.getStringOr("annotation.reconcile", string(annotation.PolicyStrip)))
	if err != nil {
		policy = annotation.PolicyStrip
	}
	return AnnotationConfig{
		IDPrefix:       c.getMatchingOr("annotation.id_prefix", document.IDPattern, annotation.DefaultIDPrefix),
		HighlightClass: c.getMatchingOr("annotation.highlight_class", document.ClassPattern, annotation.DefaultHighlightClass),
		Reconcile:      policy,
		InitialContent: c.getStringOr("annotation.initial_content", annotation.DefaultContent),
	}
}

// Interaction returns the interaction configuration.
func (c *Config) Interaction() InteractionConfig {
	return InteractionConfig{
		HoverGrace:    c.getDurationOr("interaction.hover_grace", 300*time.Millisecond),
		PreviewOffset: c.getIntOr("interaction.preview_offset", 5),
	}
}

// Hooks returns the Lua hook configuration.
func (c *Config) Hooks() HooksConfig {
	return HooksConfig{
		Enabled: c.getBoolOr("hooks.enabled", false),
		Script:  c.getStringOr("hooks.script", ""),
		Watch:   c.getBoolOr("hooks.watch", false),
	}
}

// The getXOr helpers return the default only for a missing setting or a
// type problem; type problems are recorded for ConfigErrors.

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		if !isNotFound(err) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

// getMatchingOr is getStringOr for settings restricted to re. A value that
// does not match is recorded and replaced by the default.
func (c *Config) getMatchingOr(path string, re *regexp.Regexp, defaultValue string) string {
	v := c.getStringOr(path, defaultValue)
	if v == "" || re.MatchString(v) {
		return v
	}
	c.recordConfigError(path, &ValidationError{
		Path: path, Message: "contains characters sanitizing strips", Value: v, Code: ErrCodeInvalidFormat,
	})
	return defaultValue
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		if !isNotFound(err) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		if !isNotFound(err) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getDurationOr(path string, defaultValue time.Duration) time.Duration {
	v, err := c.GetDuration(path)
	if err != nil {
		if !isNotFound(err) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}
