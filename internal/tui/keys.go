package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the puzzle screen
type KeyMap struct {
	Left     key.Binding
	Right    key.Binding
	Pick     key.Binding
	Cancel   key.Binding
	New      key.Binding
	Solution key.Binding
	Timed    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "right"),
		),
		Pick: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "pick/drop"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel pick"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new word"),
		),
		Solution: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "solution"),
		),
		Timed: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "challenge on/off"),
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
}

// ShortHelp returns a short help string
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pick, k.New, k.Solution, k.Timed, k.Help, k.Quit}
}

// FullHelp returns the full help string
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Pick, k.Cancel},
		{k.New, k.Solution, k.Timed},
		{k.Help, k.Quit},
	}
}
