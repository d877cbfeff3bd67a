package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dshills/glossa/internal/annotation"
	"github.com/dshills/glossa/internal/document"
	"github.com/dshills/glossa/internal/storage"
)

// defaultConfig returns the lowest configuration layer.
func defaultConfig() map[string]any {
	return map[string]any{
		"storage": map[string]any{
			"backend":   storage.BackendSQLite,
			"path":      "",
			"namespace": "arabic-editor",
		},
		"logging": map[string]any{
			"level":        "info",
			"format":       "text",
			"file":         "",
			"max_size_mb":  int64(10),
			"max_backups":  int64(5),
			"max_age_days": int64(28),
		},
		"annotation": map[string]any{
			"id_prefix":       annotation.DefaultIDPrefix,
			"highlight_class": annotation.DefaultHighlightClass,
			"reconcile":       string(annotation.PolicyStrip),
			"initial_content": annotation.DefaultContent,
		},
		"interaction": map[string]any{
			"hover_grace":    "300ms",
			"preview_offset": int64(5),
		},
		"hooks": map[string]any{
			"enabled": false,
			"script":  "",
			"watch":   false,
		},
	}
}

// Validate checks the merged configuration. The returned error joins one
// ValidationError per bad setting.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validateLocked()
}

func (c *Config) validateLocked() error {
	var errs []error
	add := func(path, msg string, value any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value, Code: code})
	}

	enum := func(path string, allowed ...string) {
		v, ok := getPath(c.merged, path)
		if !ok {
			return
		}
		s, isString := v.(string)
		if !isString {
			add(path, "must be a string", v, ErrCodeTypeMismatch)
			return
		}
		for _, a := range allowed {
			if s == a {
				return
			}
		}
		add(path, fmt.Sprintf("must be one of %v", allowed), v, ErrCodeInvalidEnum)
	}

	enum("storage.backend", storage.BackendSQLite, storage.BackendFile, storage.BackendMemory)
	enum("logging.level", "debug", "info", "warn", "error")
	enum("logging.format", "text", "json")

	if v, ok := getPath(c.merged, "annotation.reconcile"); ok {
		s, _ := v.(string)
		if _, err := annotation.ParsePolicy(s); err != nil || s == "" {
			add("annotation.reconcile", "must be strip or materialize", v, ErrCodeInvalidEnum)
		}
	}

	pattern := func(path string, re *regexp.Regexp, msg string) {
		v, ok := getPath(c.merged, path)
		if !ok {
			return
		}
		s, isString := v.(string)
		switch {
		case !isString:
			add(path, "must be a string", v, ErrCodeTypeMismatch)
		case s != "" && !re.MatchString(s):
			add(path, msg, v, ErrCodeInvalidFormat)
		}
	}
	pattern("annotation.id_prefix", document.IDPattern,
		"may only contain ASCII letters, digits and _ . : -")
	pattern("annotation.highlight_class", document.ClassPattern,
		"may only contain ASCII letters, digits, spaces and _ -")

	if v, ok := getPath(c.merged, "storage.namespace"); ok {
		if s, _ := v.(string); s == "" {
			add("storage.namespace", "must not be empty", v, ErrCodeRequiredMissing)
		}
	}

	if v, ok := getPath(c.merged, "interaction.hover_grace"); ok {
		d, err := durationValue(v)
		switch {
		case err != nil:
			add("interaction.hover_grace", "must be a duration", v, ErrCodeTypeMismatch)
		case d < 0:
			add("interaction.hover_grace", "must not be negative", v, ErrCodeOutOfRange)
		}
	}

	for _, path := range []string{"logging.max_size_mb", "logging.max_backups", "logging.max_age_days"} {
		v, ok := getPath(c.merged, path)
		if !ok {
			continue
		}
		n, isInt := intValue(v)
		if !isInt {
			add(path, "must be an integer", v, ErrCodeTypeMismatch)
		} else if n < 0 {
			add(path, "must not be negative", v, ErrCodeOutOfRange)
		}
	}

	if enabled, _ := getPath(c.merged, "hooks.enabled"); enabled == true {
		if script, _ := getPath(c.merged, "hooks.script"); script == "" || script == nil {
			add("hooks.script", "required when hooks are enabled", script, ErrCodeRequiredMissing)
		}
	}

	return errors.Join(errs...)
}

func durationValue(v any) (time.Duration, error) {
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		return time.ParseDuration(val)
	case int:
		return time.Duration(val) * time.Millisecond, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	default:
		return 0, ErrTypeMismatch
	}
}

func intValue(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		return int64(val), val == float64(int64(val))
	default:
		return 0, false
	}
}
