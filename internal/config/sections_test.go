package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dshills/glossa/internal/annotation"
)

func TestConfig_Storage(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	c := newTestConfig(nil)

	sc := c.Storage()
	if sc.Backend != "sqlite" || sc.Namespace != "arabic-editor" {
		t.Errorf("Storage() = %+v", sc)
	}
	if want := filepath.Join("/data", "glossa", "glossa.db"); sc.Path != want {
		t.Errorf("Path = %q, want %q", sc.Path, want)
	}

	_ = c.Set("storage.backend", "file")
	if want := filepath.Join("/data", "glossa", "store"); c.Storage().Path != want {
		t.Errorf("file Path = %q, want %q", c.Storage().Path, want)
	}

	_ = c.Set("storage.backend", "memory")
	if got := c.Storage().Path; got != "" {
		t.Errorf("memory Path = %q, want empty", got)
	}

	_ = c.Set("storage.path", "/tmp/x.db")
	_ = c.Set("storage.backend", "sqlite")
	if got := c.Storage().Path; got != "/tmp/x.db" {
		t.Errorf("explicit Path = %q", got)
	}
}

func TestConfig_Logging(t *testing.T) {
	fsys := fstest.MapFS{"glossa.toml": {Data: []byte(`
[logging]
level = "warn"
format = "json"
file = "/var/log/glossa.log"
max_backups = 2
`)}}
	c := newTestConfig(fsys)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	lc := c.Logging()
	want := LoggingConfig{
		Level:      "warn",
		Format:     "json",
		File:       "/var/log/glossa.log",
		MaxSize:    10,
		MaxBackups: 2,
		MaxAge:     28,
	}
	if lc != want {
		t.Errorf("Logging() = %+v, want %+v", lc, want)
	}
}

func TestConfig_Annotation(t *testing.T) {
	c := newTestConfig(nil)
	ac := c.Annotation()
	if ac.IDPrefix != "note" || ac.HighlightClass != "note-highlight" {
		t.Errorf("Annotation() = %+v", ac)
	}
	if ac.Reconcile != annotation.PolicyStrip {
		t.Errorf("Reconcile = %q, want strip", ac.Reconcile)
	}
	if ac.InitialContent != annotation.DefaultContent {
		t.Errorf("InitialContent = %q", ac.InitialContent)
	}

	_ = c.Set("annotation.reconcile", "materialize")
	if got := c.Annotation().Reconcile; got != annotation.PolicyMaterialize {
		t.Errorf("Reconcile = %q, want materialize", got)
	}

	_ = c.Set("annotation.reconcile", "bogus")
	if got := c.Annotation().Reconcile; got != annotation.PolicyStrip {
		t.Errorf("unknown Reconcile = %q, want strip fallback", got)
	}
}

func TestConfig_Interaction(t *testing.T) {
	c := newTestConfig(nil)
	ic := c.Interaction()
	if ic.HoverGrace != 300*time.Millisecond || ic.PreviewOffset != 5 {
		t.Errorf("Interaction() = %+v", ic)
	}

	t.Setenv("GLOSSA_INTERACTION_HOVER_GRACE", "1s")
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := c.Interaction().HoverGrace; got != time.Second {
		t.Errorf("HoverGrace = %v, want 1s", got)
	}
}

func TestConfig_Hooks(t *testing.T) {
	c := newTestConfig(nil,
		WithOverride("hooks.enabled", true),
		WithOverride("hooks.script", "hooks.lua"))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	hc := c.Hooks()
	if !hc.Enabled || hc.Script != "hooks.lua" || hc.Watch {
		t.Errorf("Hooks() = %+v", hc)
	}
}

func TestConfig_TypeProblemsRecorded(t *testing.T) {
	c := newTestConfig(nil)
	_ = c.Set("interaction.preview_offset", "wide")

	if got := c.Interaction().PreviewOffset; got != 5 {
		t.Errorf("PreviewOffset = %d, want default 5", got)
	}
	errs := c.ConfigErrors()
	if err, ok := errs["interaction.preview_offset"]; !ok || !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("ConfigErrors() = %v, want a type mismatch for preview_offset", errs)
	}
}

func TestConfig_AnnotationRejectsUnsanitizableValues(t *testing.T) {
	c := newTestConfig(nil)
	_ = c.Set("annotation.id_prefix", "my note")
	_ = c.Set("annotation.highlight_class", "mark<b>")

	ac := c.Annotation()
	if ac.IDPrefix != annotation.DefaultIDPrefix {
		t.Errorf("IDPrefix = %q, want default %q", ac.IDPrefix, annotation.DefaultIDPrefix)
	}
	if ac.HighlightClass != annotation.DefaultHighlightClass {
		t.Errorf("HighlightClass = %q, want default", ac.HighlightClass)
	}
	for _, path := range []string{"annotation.id_prefix", "annotation.highlight_class"} {
		var ve *ValidationError
		if err := c.ConfigErrors()[path]; !errors.As(err, &ve) || ve.Code != ErrCodeInvalidFormat {
			t.Errorf("ConfigErrors()[%s] = %v, want an invalid format error", path, err)
		}
	}

	_ = c.Set("annotation.id_prefix", "memo.v2")
	if got := c.Annotation().IDPrefix; got != "memo.v2" {
		t.Errorf("IDPrefix = %q, want memo.v2", got)
	}
}
