package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Delete           key.Binding
	MoveLeft, MoveRight        key.Binding
	EndLeft, EndRight          key.Binding
	StartLeft, StartRight      key.Binding
	ZoomIn, ZoomOut, PickScale key.Binding
	ScrollLeft, ScrollRight    key.Binding
	Today                      key.Binding
	New, Rename, Reload        key.Binding
	Export, Version, Versions  key.Binding
	Save, Undo, Redo           key.Binding
	Quit, Cancel               key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
	Delete:      key.NewBinding(key.WithKeys("delete", "x"), key.WithHelp("x", "delete")),
	MoveLeft:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h/l", "move")),
	MoveRight:   key.NewBinding(key.WithKeys("l")),
	EndLeft:     key.NewBinding(key.WithKeys("H"), key.WithHelp("H/L", "end")),
	EndRight:    key.NewBinding(key.WithKeys("L")),
	StartLeft:   key.NewBinding(key.WithKeys("["), key.WithHelp("[/]", "start")),
	StartRight:  key.NewBinding(key.WithKeys("]")),
	ZoomIn:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
	ZoomOut:     key.NewBinding(key.WithKeys("-")),
	PickScale:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "scale")),
	ScrollLeft:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←/→", "scroll")),
	ScrollRight: key.NewBinding(key.WithKeys("right")),
	Today:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
	New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Rename:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "rename")),
	Reload:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
	Export:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e p/d", "export")),
	Version:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "snapshot")),
	Versions:    key.NewBinding(key.WithKeys("V"), key.WithHelp("V", "versions")),
	Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("^s", "save")),
	Undo:        key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("^z", "undo")),
	Redo:        key.NewBinding(key.WithKeys("ctrl+y", "ctrl+shift+z"), key.WithHelp("^y", "redo")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Cancel:      key.NewBinding(key.WithKeys("esc")),
}

// helpFor turns bindings into footer entries.
func helpFor(bindings ...key.Binding) []struct{ key, desc string } {
	var out []struct{ key, desc string }
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		out = append(out, struct{ key, desc string }{h.Key, h.Desc})
	}
	return out
}
