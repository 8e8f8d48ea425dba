package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Confirm  key.Binding
	Escape   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	NextSpan key.Binding
	PrevSpan key.Binding
	UndoMine key.Binding
	Quit     key.Binding

	// Popup keys.
	CycleLevel key.Binding
	Note       key.Binding
	Delete     key.Binding
	Move       key.Binding
	Retype     key.Binding
	Yes        key.Binding
	No         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "caret")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "caret")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "line up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "line down")),
		Select:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "select")),
		Confirm:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "annotate/open")),
		Escape:   key.NewBinding(key.WithKeys("esc", "ctrl+g"), key.WithHelp("esc", "close")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "scroll")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdn", "scroll")),
		NextSpan: key.NewBinding(key.WithKeys("n"), key.WithHelp("n/N", "next/prev span")),
		PrevSpan: key.NewBinding(key.WithKeys("N")),
		UndoMine: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo mine")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		CycleLevel: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "level")),
		Note:       key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "note")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Move:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		Retype:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "retype")),
		Yes:        key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "confirm")),
		No:         key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
	}
}

func helpLine(bs ...key.Binding) string {
	out := ""
	for _, b := range bs {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		if out != "" {
			out += "  "
		}
		out += h.Key + ": " + h.Desc
	}
	return out
}
