// Package tui is the terminal simulator of the glasses display. It runs a
// chess session in Bubble Tea, locally or over SSH via Wish.
package tui

import tea "github.com/charmbracelet/bubbletea"

// ChangedMsg is sent when the session state changed.
type ChangedMsg struct{}

// ExitMsg is sent when the player confirmed leaving the app.
type ExitMsg struct{ Saved bool }

// waitForChange returns a command that blocks until the next change signal
// or until done is closed.
func waitForChange(ch <-chan struct{}, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ch:
			return ChangedMsg{}
		case <-done:
			return nil
		}
	}
}

// waitForExit returns a command that blocks until the session reports an
// exit or until done is closed.
func waitForExit(ch <-chan bool, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case saved := <-ch:
			return ExitMsg{Saved: saved}
		case <-done:
			return nil
		}
	}
}
