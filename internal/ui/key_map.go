package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings layered on top of the bubbles list component,
// which owns cursor movement and filtering itself. Each view renders its own
// help row from the methods below.
type keyMap struct {
	choose  key.Binding
	sync    key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		choose:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open playlist")),
		sync:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sync")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "start over")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) playlistHelp() []key.Binding { return []key.Binding{k.choose, k.quit} }
func (k keyMap) trackHelp() []key.Binding    { return []key.Binding{k.sync, k.back, k.quit} }
func (k keyMap) confirmHelp() []key.Binding  { return []key.Binding{k.yes, k.no, k.quit} }
func (k keyMap) resultHelp() []key.Binding   { return []key.Binding{k.restart, k.quit} }
