package terminal

import (
	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"
)

// NewScreen creates and initializes a terminal screen with mouse motion
// reporting and bracketed paste enabled. The caller must call Fini.
func NewScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.EnablePaste()
	return screen, nil
}

// Clipboard receives copied note text.
type Clipboard interface {
	WriteAll(text string) error
}

// systemClipboard writes to the desktop clipboard.
type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// Styles used by the editor.
var (
	styleText       = tcell.StyleDefault
	styleNote       = tcell.StyleDefault.Background(tcell.ColorOlive).Foreground(tcell.ColorBlack)
	styleNoteActive = styleNote.Background(tcell.ColorYellow).Underline(true)
	styleAffordance = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite).Bold(true)
	stylePreview    = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)
	styleAction     = stylePreview.Foreground(tcell.ColorAqua).Underline(true)
	styleEditor     = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleStatus     = tcell.StyleDefault.Reverse(true)
)
