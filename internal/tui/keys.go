package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start    key.Binding
	Pause    key.Binding
	Reset    key.Binding
	StartAll key.Binding
	PauseAll key.Binding
	ResetAll key.Binding
	New      key.Binding
	Delete   key.Binding
	Export   key.Binding
	Filter   key.Binding
	Clear    key.Binding
	Tab1     key.Binding
	Tab2     key.Binding
	Tab3     key.Binding
	Tab      key.Binding
	Help     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Up       key.Binding
	Down     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p", " "),
		key.WithHelp("p", "pause"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	StartAll: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "start all"),
	),
	PauseAll: key.NewBinding(
		key.WithKeys("P"),
		key.WithHelp("P", "pause all"),
	),
	ResetAll: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reset all"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new timer"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Filter: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "filter category"),
	),
	Clear: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear history"),
	),
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "timers"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "history"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "stats"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "toggle"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Reset, k.New, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Pause, k.Reset, k.Delete},
		{k.StartAll, k.PauseAll, k.ResetAll, k.New},
		{k.Export, k.Filter, k.Clear},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab},
		{k.Up, k.Down, k.Enter, k.Back, k.Quit},
	}
}
