package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/netscope/netscope/internal/state"
)

// renderHeader renders the status bar: connectivity, counters and freshness.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{
		bg.Render("netscope", styles.Logo),
		m.connectivityBadge(styles, bg),
	}

	if m.snapshot.IsEmpty() && m.status.LastSuccess.IsZero() {
		if m.status.LastError != nil {
			parts = append(parts,
				bg.Render("MASTER UNREACHABLE", styles.DangerText),
				bg.Render(truncate(m.status.LastError.Error(), 60), styles.MutedText))
		} else {
			parts = append(parts, bg.Render("Waiting for first snapshot...", styles.WarningText))
		}
		return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
	}

	parts = append(parts, m.statCards(styles, bg)...)
	parts = append(parts, m.freshness(styles, bg))

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

func (m Model) connectivityBadge(styles Styles, bg BgStyle) string {
	if m.connectivity == state.Connected {
		return bg.Render("● LIVE", styles.SuccessText)
	}
	return bg.Render("○ DISCONNECTED", styles.WarningText)
}

// statCards renders one "label value" pair per headline counter.
func (m Model) statCards(styles Styles, bg BgStyle) []string {
	stats := m.snapshot.Stats
	anomalies := len(m.snapshot.Anomalies)
	anomalyStyle := styles.Text
	if anomalies > 0 {
		anomalyStyle = styles.DangerText
	}

	card := func(label, value string, valueStyle lipgloss.Style) string {
		return bg.Render(label, styles.FaintText) + bg.Space() + bg.Render(value, valueStyle)
	}
	return []string{
		card("conns", formatCount(stats.TotalConnections), styles.Text),
		card("containers", formatCount(stats.TotalContainers), styles.Text),
		card("ports", formatCount(stats.TotalPorts), styles.Text),
		card("anomalies", formatCount(anomalies), anomalyStyle),
		card("in", formatRate(stats.BytesInPerSec), styles.InfoText),
		card("out", formatRate(stats.BytesOutPerSec), styles.InfoText),
	}
}

// freshness reports when the shown snapshot was fetched, or that it is stale.
func (m Model) freshness(styles Styles, bg BgStyle) string {
	now := m.now()
	if m.status.IsStale() {
		since := m.status.StaleSince()
		text := fmt.Sprintf("STALE since %s", since.Format("15:04:05"))
		if m.status.LastError != nil {
			text += " (" + truncate(m.status.LastError.Error(), 40) + ")"
		}
		return bg.Render(text, styles.DangerText)
	}
	updated := "updated " + formatAgo(m.snapshot.FetchedAt, now)
	if m.status.ConsecutiveFailures > 0 {
		return bg.Render(updated, styles.WarningText) + bg.Space() +
			bg.Render(fmt.Sprintf("(%d failed)", m.status.ConsecutiveFailures), styles.WarningText)
	}
	return bg.Render(updated, styles.MutedText)
}

// renderTabBar renders the view selector, highlighting the active tab.
func (m Model) renderTabBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	var parts []string
	for i := Tab(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, i.String())
		if count, ok := m.tabCount(i); ok {
			label = fmt.Sprintf(" %d %s (%d) ", i+1, i.String(), count)
		}
		if i == m.tab {
			active := lipgloss.NewStyle().
				Background(lipgloss.Color(m.theme.FocusBg)).
				Foreground(lipgloss.Color(m.theme.Text)).
				Bold(true)
			parts = append(parts, active.Render(label))
			continue
		}
		parts = append(parts, bg.Render(label, styles.MutedText))
	}
	return bg.FillLine(bg.Join(parts, " "), m.width)
}

func (m Model) tabCount(tab Tab) (int, bool) {
	switch tab {
	case TabTopology:
		return len(m.snapshot.Topology.Nodes), true
	case TabConnections:
		return len(m.snapshot.Connections), true
	case TabContainers:
		return len(m.snapshot.Containers), true
	case TabPorts:
		return len(m.snapshot.Ports), true
	case TabAnomalies:
		return len(m.snapshot.Anomalies), true
	}
	return 0, false
}

// renderCommandBar renders the context-sensitive key hints.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	commands := []cmd{
		{"tab", "Next"},
		{"1-6", "Views"},
		{"j/k", "Scroll"},
		{"r", "Refresh"},
	}
	if m.tab == TabLogs {
		followLabel := "Pause"
		if !m.logs.follow {
			followLabel = "Follow"
		}
		commands = append(commands, cmd{"space", followLabel})
	}
	commands = append(commands, cmd{"T", "Theme"}, cmd{"?", "Help"}, cmd{"q", "Quit"})

	parts := make([]string, 0, len(commands))
	for _, c := range commands {
		parts = append(parts, bg.Render(c.key, styles.AccentText)+bg.Space()+bg.Render(c.desc, styles.MutedText))
	}
	line := bg.Join(parts, "  ")
	if m.sourceDone {
		line += bg.Spaces(2) + bg.Render("engine stopped", styles.DangerText)
	}
	return styles.Header.Width(m.width).Render(line)
}

// contentTitle is the title embedded in the content box border.
func (m Model) contentTitle() string {
	if m.tab == TabLogs {
		if m.logs.follow {
			return "Logs (following)"
		}
		return "Logs (paused)"
	}
	return m.tab.String()
}

// renderTitledBox renders content inside a bordered box with the title
// embedded in the top border.
func (m Model) renderTitledBox(title, content string, width, height int) string {
	bg := NewBgStyle(m.theme.SurfaceAlt)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.BorderFocus))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	lineStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(m.theme.SurfaceAlt))
	lines := strings.Split(content, "\n")
	rows := make([]string, 0, max(height-2, 0))
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		rows = append(rows, bg.Render("│", borderStyle)+lineStyle.Render(line)+bg.Render("│", borderStyle))
	}
	return top + "\n" + strings.Join(rows, "\n") + "\n" + bottom
}
