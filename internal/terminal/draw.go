package terminal

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
	"golang.org/x/net/html"

	"github.com/dshills/glossa/internal/interaction"
	"github.com/dshills/glossa/internal/selection"
)

const (
	affordanceLabel = "[+]"
	editorPrompt    = "note> "
)

// previewActions are drawn in this order under the note text.
var previewActions = []string{"copy", "edit", "delete"}

// Draw renders the document, overlays and status line and shows them.
func (e *Editor) Draw() {
	s := e.screen
	s.Clear()
	e.relayout()
	w, h := s.Size()
	rows := e.textRows()
	st := e.ctrl.State()

	e.scrollToCaret(rows)
	e.drawText(rows, st)

	e.affordance, e.preview, e.actions = selection.Rect{}, selection.Rect{}, nil
	switch st.Kind {
	case interaction.KindAffordance:
		e.drawAffordance(st, w, rows)
	case interaction.KindPreview:
		e.drawPreview(st, w, rows)
	}

	if rows < h {
		e.drawEditorLine(st, w, rows)
	}
	if rows+1 < h {
		e.drawStatus(w, h-1)
	}

	if st.Kind == interaction.KindEditor {
		x := uniseg.StringWidth(editorPrompt) + uniseg.StringWidth(string(e.editing))
		s.ShowCursor(min(x, w-1), rows)
	} else {
		x, y := e.layout.Position(e.caret, e.aff)
		if y-e.top >= 0 && y-e.top < rows {
			s.ShowCursor(x, y-e.top)
		} else {
			s.HideCursor()
		}
	}
	s.Show()
}

func (e *Editor) scrollToCaret(rows int) {
	if e.dragging {
		return
	}
	_, y := e.layout.Position(e.caret, e.aff)
	if y < e.top {
		e.top = y
	}
	if y >= e.top+rows {
		e.top = y - rows + 1
	}
}

func (e *Editor) drawText(rows int, st interaction.State) {
	spans := make(map[*html.Node]string)
	for _, g := range e.layout.Glyphs() {
		y := g.Y - e.top
		if g.Width == 0 || y < 0 || y >= rows {
			continue
		}
		id, seen := spans[g.Node]
		if !seen {
			id, _ = e.engine.AnnotationAt(g.Node)
			spans[g.Node] = id
		}

		style := styleText
		if id != "" {
			style = styleNote
			if id == e.hoverID || id == st.ID {
				style = styleNoteActive
			}
		}
		if e.hasSel && g.Start >= e.selStart && g.End <= e.selEnd {
			style = style.Reverse(true)
		}
		putCluster(e.screen, g.X, y, g.Str, style)
	}
}

func (e *Editor) drawAffordance(st interaction.State, w, rows int) {
	y := st.At.Top - e.top
	if y < 0 || y >= rows {
		return
	}
	x := max(min(st.At.Left, w-len(affordanceLabel)), 0)
	end := putString(e.screen, x, y, affordanceLabel, styleAffordance, w)
	e.affordance = selection.Rect{Top: y, Left: x, Bottom: y + 1, Right: end}
}

func (e *Editor) drawPreview(st interaction.State, w, rows int) {
	note, _ := e.engine.Note(st.ID)
	text := strings.Join(strings.Fields(note.Content), " ")
	if text == "" {
		text = "(empty note)"
	}
	actions := "[" + strings.Join(previewActions, "] [") + "]"

	boxW := min(max(uniseg.StringWidth(text), uniseg.StringWidth(actions))+2, w)
	x := max(min(st.At.Left, w-boxW), 0)
	y := max(min(st.At.Top-e.top, rows-2), 0)

	for row := y; row < y+2 && row < rows; row++ {
		for col := x; col < x+boxW; col++ {
			e.screen.SetContent(col, row, ' ', nil, stylePreview)
		}
	}
	putString(e.screen, x+1, y, text, stylePreview, x+boxW)
	e.preview = selection.Rect{Top: y, Left: x, Bottom: min(y+2, rows), Right: x + boxW}

	e.actions = make(map[string]selection.Rect, len(previewActions))
	col := x + 1
	for _, name := range previewActions {
		label := "[" + name + "]"
		end := putString(e.screen, col, y+1, label, styleAction, x+boxW)
		if y+1 < rows {
			e.actions[name] = selection.Rect{Top: y + 1, Left: col, Bottom: y + 2, Right: end}
		}
		col = end + 1
	}
}

func (e *Editor) drawEditorLine(st interaction.State, w, y int) {
	if st.Kind != interaction.KindEditor {
		return
	}
	for col := 0; col < w; col++ {
		e.screen.SetContent(col, y, ' ', nil, styleEditor)
	}
	x := putString(e.screen, 0, y, editorPrompt, styleEditor.Bold(true), w)
	putString(e.screen, x, y, string(e.editing), styleEditor, w)
}

func (e *Editor) drawStatus(w, y int) {
	for col := 0; col < w; col++ {
		e.screen.SetContent(col, y, ' ', nil, styleStatus)
	}
	state := "saved"
	if e.engine.Dirty() {
		state = "unsaved"
	}
	left := fmt.Sprintf(" glossa | %d notes | %s ", len(e.engine.IDs()), state)
	x := putString(e.screen, 0, y, left, styleStatus, w)
	if e.status != "" {
		putString(e.screen, x+1, y, e.status, styleStatus, w)
	}
}

// putCluster draws one grapheme cluster at (x, y).
func putCluster(s tcell.Screen, x, y int, cluster string, style tcell.Style) {
	runes := []rune(cluster)
	if len(runes) == 0 {
		return
	}
	s.SetContent(x, y, runes[0], runes[1:], style)
}

// putString draws str from x, stopping before maxX. It returns the column
// after the last cluster drawn.
func putString(s tcell.Screen, x, y int, str string, style tcell.Style, maxX int) int {
	g := uniseg.NewGraphemes(str)
	for g.Next() {
		w := g.Width()
		if x+w > maxX {
			break
		}
		if w > 0 {
			putCluster(s, x, y, g.Str(), style)
		}
		x += w
	}
	return x
}
