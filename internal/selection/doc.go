// Package selection turns the host's raw text selection into a normalized
// Range over a document.
//
// Hosts differ in how they track selections: the terminal host derives one
// from a mouse drag, the MCP server from a pair of offsets. Both expose it
// through a Source. The Resolver reads the Source, orders the two ends in
// document order, and reports "none" for a collapsed or absent selection.
//
// The Resolver is read-only. Hosts call SelectionChanged after every
// selection-change notification and the Resolver pushes the fresh result to
// its subscribers, which lets the interaction controller track the live
// selection instead of polling.
package selection
