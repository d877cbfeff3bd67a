package document

import "errors"

// Errors returned by document operations.
var (
	// ErrOffsetOutOfRange indicates an offset is outside the document text or a node.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrSplitsRune indicates an offset falls inside a multi-byte character.
	ErrSplitsRune = errors.New("offset splits a character")

	// ErrNodeNotInDocument indicates a boundary refers to a detached node.
	ErrNodeNotInDocument = errors.New("node not in document")

	// ErrNotText indicates a text operation was applied to a non-text node.
	ErrNotText = errors.New("node is not a text node")
)
