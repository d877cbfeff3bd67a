// Package storage provides the key-value store that persists a session.
//
// A session is two string entries under one namespace:
//
//	<namespace>-content   the document markup
//	<namespace>-notes     the note map as JSON
//
// Three backends implement KV:
//
//   - SQLite: a single kv table in a modernc.org/sqlite database (default)
//   - File: one file per key, replaced atomically on every write
//   - Memory: process-local, for tests and throwaway sessions
//
// Backend failures are reported as errors matching ErrUnavailable with the
// backend error attached, so callers can treat every backend alike while the
// log still names the underlying cause.
package storage
