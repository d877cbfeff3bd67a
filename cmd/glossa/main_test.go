package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/glossa/internal/annotation"
	"github.com/dshills/glossa/internal/storage"
)

// isolate points configuration and storage at a temp dir and returns it.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("GLOSSA_STORAGE_BACKEND", "file")
	t.Setenv("GLOSSA_STORAGE_PATH", dir)
	return dir
}

// seed writes a session into the file store under the default namespace.
func seed(t *testing.T, dir, markup, notesJSON string) {
	t.Helper()
	kv, err := storage.NewFile(dir)
	require.NoError(t, err)
	repo := storage.NewRepository(kv, "arabic-editor")
	ctx := context.Background()
	require.NoError(t, repo.SaveContent(ctx, markup))
	require.NoError(t, repo.SaveNotes(ctx, []byte(notesJSON)))
	require.NoError(t, repo.Close())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheck_EmptyStore(t *testing.T) {
	isolate(t)
	out, err := execute(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "namespace:   arabic-editor")
	assert.Contains(t, out, "default content used")
	assert.Contains(t, out, "consistent")
}

func TestCheck_JSON(t *testing.T) {
	isolate(t)
	out, err := execute(t, "check", "--json", "--namespace", "drafts")
	require.NoError(t, err)

	var res checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "drafts", res.Namespace)
	assert.True(t, res.Defaulted)
	assert.Empty(t, res.Faults)
}

func TestExport(t *testing.T) {
	isolate(t)
	out, err := execute(t, "export")
	require.NoError(t, err)
	assert.Equal(t, "<p>ابدأ الكتابة هنا...</p>\n", out)

	out, err = execute(t, "export", "--text")
	require.NoError(t, err)
	assert.Equal(t, "ابدأ الكتابة هنا...\n", out)
}

func TestNotes_Empty(t *testing.T) {
	isolate(t)
	out, err := execute(t, "notes")
	require.NoError(t, err)
	assert.Equal(t, "no notes\n", out)

	out, err = execute(t, "notes", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestNotes_Match(t *testing.T) {
	dir := isolate(t)
	seed(t, dir,
		`<p><span class="note-highlight" data-note-id="note-1">حدد نصًا</span> و `+
			`<span class="note-highlight" data-note-id="note-2">ملاحظة</span></p>`,
		`{"note-1":{"id":"note-1","content":"تعليق مهم"},"note-2":{"id":"note-2","content":"second"}}`)

	out, err := execute(t, "notes", "--json", "--match", "مهم")
	require.NoError(t, err)
	var anns []annotation.Annotation
	require.NoError(t, json.Unmarshal([]byte(out), &anns))
	require.Len(t, anns, 1)
	assert.Equal(t, "note-1", anns[0].ID)
	assert.Equal(t, "تعليق مهم", anns[0].Note)

	out, err = execute(t, "notes", "-m", "ملاحظة")
	require.NoError(t, err)
	assert.Contains(t, out, "note-2")
	assert.NotContains(t, out, "note-1")

	out, err = execute(t, "notes", "--match", "absent")
	require.NoError(t, err)
	assert.Equal(t, "no notes\n", out)
}

func TestBadLogLevel(t *testing.T) {
	isolate(t)
	_, err := execute(t, "check", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init config")
}

func TestUnknownCommand(t *testing.T) {
	isolate(t)
	_, err := execute(t, "frobnicate")
	assert.Error(t, err)
}
