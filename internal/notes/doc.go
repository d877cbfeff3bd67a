// Package notes holds the note records attached to annotation spans.
//
// A Store maps an annotation id to its Note. It knows nothing about the
// document: the annotation engine is the only writer and keeps the store's
// key set equal to the set of span ids in the document. Missing ids are
// never errors; Update and Delete on an unknown id report false and change
// nothing.
//
// Note content is stored exactly as written. Matches compares in
// Unicode normalization form C, so text typed through different input
// methods still matches.
//
// The persisted form is a JSON object keyed by id:
//
//	{"note-1700000000000-1a2b3c4d": {"id": "note-1700000000000-1a2b3c4d", "content": "تعليق مهم"}}
package notes
