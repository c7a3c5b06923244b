// Package keymap defines the dashboard keybindings and the help views built
// from them.
package keymap

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds every binding the dashboard reacts to. Navigation follows vim
// conventions with arrow keys as aliases.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding // gg sequence
	Bottom   key.Binding

	// Panes
	FocusNext  key.Binding
	FocusPrev  key.Binding
	ToggleDiff key.Binding

	// LLM actions
	Summary key.Binding
	Advice  key.Binding
	Chat    key.Binding
	Send    key.Binding
	Cancel  key.Binding

	// Core actions
	DismissError key.Binding
	Help         key.Binding
	Quit         key.Binding
}

// Default returns the standard dashboard keymap.
func Default() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("C-u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("C-d", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("gg", "home"),
			key.WithHelp("gg", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		FocusPrev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "prev pane"),
		),
		ToggleDiff: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "toggle diff"),
		),
		Summary: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "summarize commit"),
		),
		Advice: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "advice"),
		),
		Chat: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "chat"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		DismissError: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss errors"),
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

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.FocusNext, k.Summary, k.Advice, k.Chat, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.FocusNext, k.FocusPrev, k.ToggleDiff},
		{k.Summary, k.Advice, k.Chat, k.Send, k.Cancel},
		{k.DismissError, k.Help, k.Quit},
	}
}

// ChatHelp is the help shown while the chat input has focus.
func (k KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Send, k.Cancel}
}

// Sequences returns the multi-key bindings that need a SequenceState. Only
// the rune sequences of each binding are included, so named keys like "home"
// never wait for more input.
func (k KeyMap) Sequences() []key.Binding {
	return []key.Binding{key.NewBinding(key.WithKeys("gg"))}
}

// chatKeys is a help.KeyMap over the chat bindings.
type chatKeys struct{ k KeyMap }

func (c chatKeys) ShortHelp() []key.Binding  { return c.k.ChatHelp() }
func (c chatKeys) FullHelp() [][]key.Binding { return [][]key.Binding{c.k.ChatHelp()} }

// ChatMode returns a help.KeyMap that lists only the chat bindings.
func (k KeyMap) ChatMode() help.KeyMap {
	return chatKeys{k: k}
}
