// Package topic provides hierarchical topic names and pattern matching for the
// event bus.
//
// # Topic Format
//
// Topics use dot-notation:
//
//	annotation.created
//	note.updated
//	interaction.state.changed
//
// # Wildcards
//
// Two wildcard segments are supported in subscription patterns:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Examples:
//
//	annotation.*     matches annotation.created, annotation.removed
//	interaction.**   matches interaction.state.changed
//	*.updated        matches note.updated
//	**               matches everything
package topic
