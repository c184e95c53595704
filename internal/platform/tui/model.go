package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/glasschess/internal/app"
	"github.com/vovakirdan/glasschess/internal/chess/state"
)

// Model is the Bubble Tea model of one simulated pair of glasses.
type Model struct {
	game    *app.Game
	player  string
	changes chan struct{}
	exits   chan bool
	done    chan struct{}
	unsub   func()

	keys KeyMap
	help help.Model

	width    int
	height   int
	worn     bool
	quitting bool
	saved    bool
}

// NewModel subscribes to g's state changes. exits receives the session's
// exit notifications; pass the channel handed to OnExit at launch.
func NewModel(g *app.Game, player string, exits chan bool) *Model {
	m := &Model{
		game:    g,
		player:  player,
		changes: make(chan struct{}, 1),
		exits:   exits,
		done:    make(chan struct{}),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		worn:    true,
	}
	// Listeners run under the store's lock, so the signal never blocks.
	m.unsub = g.Session.Store().Subscribe(func(prev, next *state.GameState) {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	return m
}

// ExitChannel returns a buffered channel and the OnExit callback feeding it.
func ExitChannel() (chan bool, func(save bool)) {
	ch := make(chan bool, 1)
	return ch, func(save bool) {
		select {
		case ch <- save:
		default:
		}
	}
}

// Init starts listening for state changes and exits.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.changes, m.done), waitForExit(m.exits, m.done))
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case ChangedMsg:
		return m, waitForChange(m.changes, m.done)

	case ExitMsg:
		m.saved = msg.Saved
		return m.quit()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Foreground):
		m.worn = !m.worn
		m.game.Session.HandleEvent(foregroundEvent(m.worn))
		return m, nil
	}

	if !m.worn {
		return m, nil
	}
	if ev, ok := m.keys.EventFor(msg); ok {
		m.game.Session.HandleEvent(ev)
	}
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if !m.quitting {
		m.quitting = true
		m.unsub()
		close(m.done)
	}
	return m, tea.Quit
}

// Saved reports whether the player left through "save and exit".
func (m *Model) Saved() bool { return m.saved }

// View renders the glasses display and the key help.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// Run plays g in the current terminal until the player quits or exits.
// exits must be the channel whose callback was passed to Launch.
func Run(g *app.Game, exits chan bool) error {
	p := tea.NewProgram(NewModel(g, "", exits), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
