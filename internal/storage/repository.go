package storage

import (
	"context"
	"errors"
)

// Key suffixes of the two session entries.
const (
	ContentSuffix = "-content"
	NotesSuffix   = "-notes"
)

// Repository reads and writes the entries of one session namespace.
type Repository struct {
	kv        KV
	namespace string
}

// NewRepository binds kv to namespace.
func NewRepository(kv KV, namespace string) *Repository {
	return &Repository{kv: kv, namespace: namespace}
}

// Namespace returns the session namespace.
func (r *Repository) Namespace() string {
	return r.namespace
}

// ContentKey returns the key holding the document markup.
func (r *Repository) ContentKey() string {
	return r.namespace + ContentSuffix
}

// NotesKey returns the key holding the note map.
func (r *Repository) NotesKey() string {
	return r.namespace + NotesSuffix
}

// LoadContent returns the stored markup. found is false when nothing has
// been saved yet.
func (r *Repository) LoadContent(ctx context.Context) (markup string, found bool, err error) {
	return r.load(ctx, r.ContentKey())
}

// LoadNotes returns the stored note map. found is false when nothing has
// been saved yet.
func (r *Repository) LoadNotes(ctx context.Context) (data []byte, found bool, err error) {
	v, found, err := r.load(ctx, r.NotesKey())
	if err != nil || !found {
		return nil, found, err
	}
	return []byte(v), true, nil
}

func (r *Repository) load(ctx context.Context, key string) (string, bool, error) {
	v, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SaveContent stores the document markup.
func (r *Repository) SaveContent(ctx context.Context, markup string) error {
	return r.kv.Put(ctx, r.ContentKey(), markup)
}

// SaveNotes stores the encoded note map.
func (r *Repository) SaveNotes(ctx context.Context, data []byte) error {
	return r.kv.Put(ctx, r.NotesKey(), string(data))
}

// Close closes the underlying store.
func (r *Repository) Close() error {
	return r.kv.Close()
}
