package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/netscope/netscope/internal/logtail"
)

const logBufferLimit = 500

// logState holds the tail of the application log shown in the Logs tab.
type logState struct {
	lines  []string
	err    error
	follow bool
}

type logLinesMsg struct {
	lines []string
	err   error
}

func (m Model) readLogsCmd() tea.Cmd {
	path := m.logPath
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.Read(path, logBufferLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logs.err = msg.err
	if msg.err == nil {
		m.logs.lines = msg.lines
	}
	if m.tab == TabLogs {
		m.refreshContent()
	}
}

// renderLogLines renders the buffered lines with level coloring.
func (m Model) renderLogLines(width int) string {
	styles := m.theme.Styles()
	if m.logPath == "" {
		return styles.MutedText.Render("No log file configured.")
	}
	if m.logs.err != nil {
		return styles.DangerText.Render("Log unavailable: " + m.logs.err.Error())
	}
	if len(m.logs.lines) == 0 {
		return styles.MutedText.Render("No log output yet in " + m.logPath)
	}

	out := make([]string, 0, len(m.logs.lines))
	for _, line := range m.logs.lines {
		out = append(out, m.formatLogLine(logtail.Parse(line), width))
	}
	return strings.Join(out, "\n")
}

func (m Model) formatLogLine(e logtail.Entry, width int) string {
	styles := m.theme.Styles()
	if e.Level == "" {
		return styles.Text.Render(truncate(e.Raw, width))
	}

	levelStyle := styles.MutedText
	switch e.Level {
	case "ERROR", "FATAL", "PANIC":
		levelStyle = styles.DangerText
	case "WARN":
		levelStyle = styles.WarningText
	case "INFO":
		levelStyle = styles.InfoText
	}

	ts := e.Time
	if len(ts) >= 19 {
		ts = ts[11:19] // HH:MM:SS
	}
	prefix := styles.FaintText.Render(ts) + " " + levelStyle.Render(padRight(e.Level, 5)) + " "
	rest := max(width-len(ts)-7, 10)
	return prefix + styles.Text.Render(truncate(e.Summary(), rest))
}
