package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/glasschess/internal/input"
)

// containerName is the text container the simulated events come from.
const containerName = "chess-board"

// KeyMap binds keyboard keys to the four glasses gestures plus the
// simulator's own controls.
type KeyMap struct {
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Tap        key.Binding
	DoubleTap  key.Binding
	Foreground key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ScrollUp, k.ScrollDown, k.Tap, k.DoubleTap, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ScrollUp, k.ScrollDown, k.Tap, k.DoubleTap},
		{k.Foreground, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k", "w"),
			key.WithHelp("up/k", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j", "s"),
			key.WithHelp("down/j", "scroll down"),
		),
		Tap: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "tap"),
		),
		DoubleTap: key.NewBinding(
			key.WithKeys("esc", "backspace", "d"),
			key.WithHelp("esc/d", "double tap"),
		),
		Foreground: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "put away / wear"),
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

// EventFor translates a gesture key into the raw event the glasses would
// send. Scrolls and taps arrive from the text container, double taps and
// lifecycle changes from the system layer.
func (k KeyMap) EventFor(msg tea.KeyMsg) (input.Event, bool) {
	switch {
	case key.Matches(msg, k.ScrollUp):
		return input.TextEvent{Container: containerName, Type: input.TypePtr(input.ScrollTop)}, true
	case key.Matches(msg, k.ScrollDown):
		return input.TextEvent{Container: containerName, Type: input.TypePtr(input.ScrollBottom)}, true
	case key.Matches(msg, k.Tap):
		// The vendor SDK omits the zero click code.
		return input.TextEvent{Container: containerName}, true
	case key.Matches(msg, k.DoubleTap):
		return input.SysEvent{Type: input.TypePtr(input.DoubleClick)}, true
	}
	return nil, false
}

// foregroundEvent is the lifecycle event for putting the glasses away
// (worn == false) or back on.
func foregroundEvent(worn bool) input.Event {
	if worn {
		return input.SysEvent{Type: input.TypePtr(input.ForegroundEnter)}
	}
	return input.SysEvent{Type: input.TypePtr(input.ForegroundExit)}
}
