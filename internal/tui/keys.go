package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PrevRange key.Binding
	NextRange key.Binding
	NextMode  key.Binding
	PrevMode  key.Binding
	Focus     key.Binding
	Sort      key.Binding
	Reload    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	PrevRange: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "prev range"),
	),
	NextRange: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next range"),
	),
	NextMode: key.NewBinding(
		key.WithKeys("tab", "m"),
		key.WithHelp("tab/m", "next mode"),
	),
	PrevMode: key.NewBinding(
		key.WithKeys("shift+tab", "M"),
		key.WithHelp("shift+tab/M", "prev mode"),
	),
	Focus: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "next category"),
	),
	Sort: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "flip order"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevRange, k.NextRange, k.NextMode, k.Focus, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevRange, k.NextRange},
		{k.NextMode, k.PrevMode},
		{k.Focus, k.Sort, k.Reload},
		{k.Help, k.Quit},
	}
}
