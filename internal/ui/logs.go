package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/returnloop/kiosk/internal/logtail"
)

// logsState holds the diagnostics view over the kiosk's own log file.
type logsState struct {
	lines []string
	err   error
	from  Screen
}

func (m *Model) openLogs() {
	m.logs.from = m.screen
	m.screen = ScreenLogs
}

type logLinesMsg struct {
	lines []string
	err   error
}

func (m Model) readLogsCmd() tea.Cmd {
	path := m.config.LogPath()
	return func() tea.Msg {
		lines, err := logtail.Read(path, logtail.DefaultLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m Model) handleLogLines(msg logLinesMsg) (tea.Model, tea.Cmd) {
	m.logs.lines = msg.lines
	m.logs.err = msg.err
	return m, nil
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "L":
		m.screen = m.logs.from
		return m, nil
	case "r":
		return m, m.readLogsCmd()
	}
	return m, nil
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.AccentText.Render("Kiosk log"))
	b.WriteString("  ")
	b.WriteString(styles.FaintText.Render(m.config.LogPath()))
	b.WriteString("\n\n")

	switch {
	case m.logs.err != nil:
		b.WriteString(styles.DangerText.Render(m.logs.err.Error()))
		b.WriteString("\n")
	case len(m.logs.lines) == 0:
		b.WriteString(styles.MutedText.Render("Log file is empty."))
		b.WriteString("\n")
	default:
		// Show the tail that fits the terminal.
		visible := m.logs.lines
		max := m.height - 5
		if max > 0 && len(visible) > max {
			visible = visible[len(visible)-max:]
		}
		for _, line := range visible {
			b.WriteString(styles.FaintText.Render(truncate(line, m.width-2)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.Footer.Render("r reload  •  esc back"))
	return b.String()
}
