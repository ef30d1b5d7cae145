package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Select   key.Binding
	Focus    key.Binding
	Generate key.Binding
	Export   key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "use template")),
	Focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Generate: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "generate")),
	Export:   key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "export .docx")),
	Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Select, k.Focus, k.Generate, k.Export, k.Quit}
}
