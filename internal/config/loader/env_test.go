package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvLoader_Load(t *testing.T) {
	t.Setenv("GLOSSA_LOG_LEVEL", "debug")
	t.Setenv("GLOSSA_NAMESPACE", "notes")
	t.Setenv("GLOSSA_LOGGING_MAX_SIZE_MB", "20")
	t.Setenv("GLOSSA_INTERACTION_HOVER_GRACE", "450ms")
	t.Setenv("OTHER_LOG_LEVEL", "error")

	config, err := NewEnvLoader(DefaultEnvPrefix).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if val, ok := getByPath(config, "logging.level"); !ok || val != "debug" {
		t.Errorf("logging.level = %v, want 'debug'", val)
	}
	if val, ok := getByPath(config, "storage.namespace"); !ok || val != "notes" {
		t.Errorf("storage.namespace = %v, want 'notes'", val)
	}
	if val, ok := getByPath(config, "logging.max_size_mb"); !ok || val != int64(20) {
		t.Errorf("logging.max_size_mb = %v (%T), want 20", val, val)
	}
	if val, ok := getByPath(config, "interaction.hover_grace"); !ok || val != 450*time.Millisecond {
		t.Errorf("interaction.hover_grace = %v (%T), want 450ms", val, val)
	}
	if _, ok := getByPath(config, "other"); ok {
		t.Error("unprefixed variable was loaded")
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	l := NewEnvLoader("GLOSSA_")
	tests := map[string]string{
		"GLOSSA_STORAGE_PATH":         "storage.path",
		"GLOSSA_LOGGING_MAX_SIZE_MB":  "logging.max_size_mb",
		"GLOSSA_ANNOTATION_ID_PREFIX": "annotation.id_prefix",
		"GLOSSA_LONELY":               "",
	}
	for env, want := range tests {
		if got := l.envToPath(env); got != want {
			t.Errorf("envToPath(%q) = %q, want %q", env, got, want)
		}
	}
}

func TestEnvLoader_AddRemoveMapping(t *testing.T) {
	l := NewEnvLoaderWithMapping("X_", nil)
	l.AddMapping("X_DIR", "storage.path")

	config := l.FromPairs([]string{"X_DIR=/tmp/notes", "malformed"})
	if val, ok := getByPath(config, "storage.path"); !ok || val != "/tmp/notes" {
		t.Errorf("storage.path = %v, want '/tmp/notes'", val)
	}

	l.RemoveMapping("X_DIR")
	config = l.FromPairs([]string{"X_DIR=/tmp/notes"})
	if _, ok := getByPath(config, "storage.path"); ok {
		t.Error("removed mapping still applied")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"true", true},
		{"off", false},
		{"42", int64(42)},
		{"1.5", 1.5},
		{"300ms", 300 * time.Millisecond},
		{"strip", "strip"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}

	list, ok := parseValue(`["a","b"]`).([]any)
	if !ok || len(list) != 2 {
		t.Errorf("parseValue(json array) = %v", list)
	}
}

func TestDotEnvLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nGLOSSA_BACKEND=memory\nGLOSSA_HOOKS_ENABLED=true\nUNRELATED=1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	config, err := NewDotEnvLoader(path, DefaultEnvPrefix).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if val, _ := getByPath(config, "storage.backend"); val != "memory" {
		t.Errorf("storage.backend = %v, want 'memory'", val)
	}
	if val, _ := getByPath(config, "hooks.enabled"); val != true {
		t.Errorf("hooks.enabled = %v, want true", val)
	}
	if _, ok := os.LookupEnv("GLOSSA_BACKEND"); ok {
		t.Error("dotenv loader modified the environment")
	}

	missing, err := NewDotEnvLoader(filepath.Join(dir, "absent.env"), DefaultEnvPrefix).Load()
	if err != nil || missing != nil {
		t.Errorf("missing file = %v, %v; want nil, nil", missing, err)
	}
}

func getByPath(data map[string]any, path string) (any, bool) {
	current := any(data)
	for _, part := range splitDots(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func splitDots(path string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return parts
}
