package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Input   key.Binding
	Submit  key.Binding
	Cancel  key.Binding
	Actions key.Binding
	Undo    key.Binding
	Forward key.Binding
	Back    key.Binding
	Pause   key.Binding
	Skip    key.Binding
	Faster  key.Binding
	Slower  key.Binding
	Restart key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Input:   key.NewBinding(key.WithKeys("i", "tab"), key.WithHelp("i", "enter value")),
	Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run first action")),
	Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave input")),
	Actions: key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "run action")),
	Undo:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
	Forward: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "step forward")),
	Back:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "step back")),
	Pause:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
	Skip:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
	Faster:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
	Slower:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "slower")),
	Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart script")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Input, k.Actions, k.Pause, k.Forward, k.Back, k.Undo, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Input, k.Submit, k.Cancel, k.Actions, k.Undo},
		{k.Pause, k.Forward, k.Back, k.Skip, k.Restart},
		{k.Faster, k.Slower, k.Help, k.Quit},
	}
}
