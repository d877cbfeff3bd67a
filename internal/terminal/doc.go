// Package terminal hosts an annotation session in a terminal.
//
// The Editor lays the document out on a tcell screen, highlights annotated
// spans and turns terminal input into selection, pointer and editing
// events for the interaction controller and the annotation engine. All
// state is owned by the goroutine running Editor.Run; timers scheduled by
// the controller are delivered back to that goroutine as interrupt events.
//
// Keys:
//
//	mouse drag      select text; click [+] to annotate it
//	mouse hover     preview the note under the pointer
//	Enter           annotate the selection / edit the previewed note
//	Ctrl+X          step the caret out of the end of a note
//	Ctrl+Y, Ctrl+D  copy or delete the previewed note
//	Esc             dismiss; closes the note editor
//	Ctrl+S          retry saving
//	Ctrl+Q          quit
package terminal
