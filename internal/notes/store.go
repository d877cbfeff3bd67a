package notes

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// ErrMalformed is returned when a persisted note map cannot be decoded.
var ErrMalformed = errors.New("malformed note map")

// Note is the free-form text attached to one annotation span.
type Note struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Store is a keyed collection of notes. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	notes map[string]Note
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{notes: make(map[string]Note)}
}

// Get returns the note for id.
func (s *Store) Get(id string) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	return n, ok
}

// Has reports whether a note exists for id.
func (s *Store) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Put inserts or replaces the note for id. Content is stored exactly as
// given.
func (s *Store) Put(id, content string) Note {
	n := Note{ID: id, Content: content}
	s.mu.Lock()
	s.notes[id] = n
	s.mu.Unlock()
	return n
}

// Update replaces the content of an existing note. It reports false, and
// changes nothing, when id has no note.
func (s *Store) Update(id, content string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return Note{}, false
	}
	n.Content = content
	s.notes[id] = n
	return n, true
}

// Delete removes the note for id and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return false
	}
	delete(s.notes, id)
	return true
}

// Len returns the number of notes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// IDs returns every note id in lexical order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.notes))
	for id := range s.notes {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy of the note map.
func (s *Store) Snapshot() map[string]Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Note, len(s.notes))
	for id, n := range s.notes {
		out[id] = n
	}
	return out
}

// Matches reports whether text contains query once both are in NFC, so a
// query typed with a different mark order or precomposed letters still
// finds the note. An empty query matches everything.
func Matches(text, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(norm.NFC.String(text), norm.NFC.String(query))
}

// MarshalJSON encodes the store in its persisted form.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// Decode builds a store from its persisted form. Empty input yields an empty
// store. An entry whose id field disagrees with its key is stored under the
// key.
func Decode(data []byte) (*Store, error) {
	s := NewStore()
	if len(data) == 0 {
		return s, nil
	}
	var raw map[string]Note
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for key, n := range raw {
		if key == "" {
			continue
		}
		s.Put(key, n.Content)
	}
	return s, nil
}
