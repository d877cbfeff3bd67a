package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dshills/glossa/internal/config/loader"
)

// Layer is one applied configuration source.
type Layer struct {
	// Name identifies the source ("defaults", "file", "dotenv", "env", "overrides").
	Name string
	// Source is the file path, when the layer came from a file.
	Source string
	// Data holds the settings the layer contributed.
	Data map[string]any
}

// Config provides access to the merged configuration.
// It is safe for concurrent use.
type Config struct {
	mu sync.RWMutex

	fsys         loader.FileSystem
	file         string
	fileExplicit bool
	dotenv       string
	envPrefix    string
	overrides    map[string]any

	layers []Layer
	merged map[string]any

	// configErrors stores type problems met by the section accessors.
	configErrors map[string]error
}

// Option configures a Config instance.
type Option func(*Config)

// WithFile names the configuration file. Unlike the default search paths,
// a named file must exist.
func WithFile(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.file = path
			c.fileExplicit = true
		}
	}
}

// WithDotEnv sets the .env file to read. The default is ".env" in the
// working directory; an empty path disables it.
func WithDotEnv(path string) Option {
	return func(c *Config) {
		c.dotenv = path
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithOverride sets path to value above every other layer.
func WithOverride(path string, value any) Option {
	return func(c *Config) {
		if path == "" {
			return
		}
		if c.overrides == nil {
			c.overrides = make(map[string]any)
		}
		_ = setPath(c.overrides, path, value)
	}
}

// WithFS sets the file system configuration files are read from.
func WithFS(fsys loader.FileSystem) Option {
	return func(c *Config) {
		if fsys != nil {
			c.fsys = fsys
		}
	}
}

// New creates a Config holding only the defaults. Call Load to read the
// other layers.
func New(opts ...Option) *Config {
	c := &Config{
		fsys:         loader.DefaultFS(),
		dotenv:       ".env",
		envPrefix:    loader.DefaultEnvPrefix,
		configErrors: make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.layers = []Layer{{Name: "defaults", Data: defaultConfig()}}
	c.merged = loader.Clone(c.layers[0].Data)
	return c
}

// Load reads every layer, merges them and validates the result.
func (c *Config) Load(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	layers := []Layer{{Name: "defaults", Data: defaultConfig()}}

	fileLayer, err := c.loadFile()
	if err != nil {
		return err
	}
	if fileLayer != nil {
		layers = append(layers, *fileLayer)
	}

	if c.dotenv != "" {
		data, err := loader.NewDotEnvLoader(c.dotenv, c.envPrefix).Load()
		if err != nil {
			return fmt.Errorf("loading %s: %w", c.dotenv, err)
		}
		if len(data) > 0 {
			layers = append(layers, Layer{Name: "dotenv", Source: c.dotenv, Data: data})
		}
	}

	env, err := loader.NewEnvLoader(c.envPrefix).Load()
	if err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}
	if len(env) > 0 {
		layers = append(layers, Layer{Name: "env", Data: env})
	}

	if len(c.overrides) > 0 {
		layers = append(layers, Layer{Name: "overrides", Data: loader.Clone(c.overrides)})
	}

	merged := make(map[string]any)
	for _, l := range layers {
		merged = loader.DeepMerge(merged, loader.Clone(l.Data))
	}

	c.layers = layers
	c.merged = merged
	c.configErrors = make(map[string]error)
	return c.validateLocked()
}

// loadFile reads the named file or the first existing default candidate.
func (c *Config) loadFile() (*Layer, error) {
	candidates := []string{c.file}
	if !c.fileExplicit {
		candidates = DefaultPaths()
	}

	for _, path := range candidates {
		l, err := loader.ForPath(c.fsys, path)
		if err != nil {
			return nil, err
		}
		data, err := l.Load()
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}
		return &Layer{Name: "file", Source: path, Data: data}, nil
	}

	if c.fileExplicit {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, c.file)
	}
	return nil, nil
}

// DefaultPaths lists the files searched when no file is named, in order.
func DefaultPaths() []string {
	paths := []string{"glossa.toml", "glossa.yaml", "glossa.yml"}
	if dir := userConfigDir(); dir != "" {
		paths = append(paths,
			filepath.Join(dir, "config.toml"),
			filepath.Join(dir, "config.yaml"))
	}
	return paths
}

// Layers returns the layers applied by the last Load, lowest first.
func (c *Config) Layers() []Layer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Layer, len(c.layers))
	for i, l := range c.layers {
		out[i] = Layer{Name: l.Name, Source: l.Source, Data: loader.Clone(l.Data)}
	}
	return out
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getPath(c.merged, path)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetDuration returns a duration at the given path. Strings are parsed
// with time.ParseDuration; bare numbers are milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	d, err := durationValue(v)
	if err != nil {
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
	return d, nil
}

// Set sets a value at the given path in the overrides layer.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.overrides == nil {
		c.overrides = make(map[string]any)
	}
	if err := setPath(c.merged, path, value); err != nil {
		return err
	}
	return setPath(c.overrides, path, value)
}

// Merged returns a copy of the fully merged configuration.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Clone(c.merged)
}

// ConfigErrors returns the type problems the section accessors met. Those
// settings fell back to their defaults.
func (c *Config) ConfigErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]error, len(c.configErrors))
	for k, v := range c.configErrors {
		out[k] = v
	}
	return out
}

// recordConfigError keeps the first error seen for path.
func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.configErrors[path]; !exists {
		c.configErrors[path] = err
	}
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "glossa")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "glossa")
}

func userDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "glossa")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "glossa")
}

// getPath retrieves a value from a nested map using a dot-separated path.
func getPath(m map[string]any, path string) (any, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, false
	}

	current := any(m)
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = cm[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setPath sets a value in a nested map using a dot-separated path.
func setPath(m map[string]any, path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ErrInvalidPath
	}

	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s is not a section", ErrInvalidPath, part)
		}
		current = nextMap
	}

	current[parts[len(parts)-1]] = value
	return nil
}

// splitPath splits a dot-separated path into parts, ignoring empty ones.
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return "unknown"
	}
}

// isNotFound reports whether err only says the setting is absent.
func isNotFound(err error) bool {
	return errors.Is(err, ErrSettingNotFound)
}
