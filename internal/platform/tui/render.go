package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/glasschess/internal/display"
)

// The glasses draw green text on a transparent lens.
var (
	lensStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Foreground(lipgloss.Color("10")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	awayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)
)

// LensText pads a frame to the fixed size of the text container so the
// lens box never changes shape.
func LensText(f display.Frame) string {
	lines := strings.Split(f.Text, "\n")
	if len(lines) > display.Rows {
		lines = lines[:display.Rows]
	}
	for len(lines) < display.Rows {
		lines = append(lines, "")
	}
	for i, l := range lines {
		if n := len([]rune(l)); n < display.Cols {
			lines[i] = l + strings.Repeat(" ", display.Cols-n)
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) render() string {
	f := m.game.Frame()

	title := "glasschess"
	if m.player != "" {
		title += " - " + m.player
	}

	var lens string
	if m.worn {
		lens = lensStyle.Render(LensText(f))
	} else {
		blank := display.Frame{Text: "\n\n\n\n\n          glasses put away (f to wear)"}
		lens = lensStyle.Render(awayStyle.Render(LensText(blank)))
	}

	status := "phase: " + f.Phase
	if m.game.Session.State().EngineThinking {
		status += "  engine thinking"
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		lens,
		statusStyle.Render(status),
		m.help.View(m.keys),
	)
	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}
