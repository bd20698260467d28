package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/netscope/netscope/internal/master"
)

// column is one fixed-width table column.
type column struct {
	title string
	width int
}

// fitColumns gives the last column whatever width is left over.
func fitColumns(cols []column, total int) []column {
	out := append([]column(nil), cols...)
	used := 0
	for i := 0; i < len(out)-1; i++ {
		used += out[i].width + 1
	}
	if len(out) > 0 {
		out[len(out)-1].width = max(total-used, 8)
	}
	return out
}

func (m Model) tableHeader(cols []column) string {
	styles := m.theme.Styles()
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = padRight(strings.ToUpper(c.title), c.width)
	}
	return styles.FaintText.Bold(true).Render(strings.Join(cells, " "))
}

// tableRow joins cells, applying the matching style to each.
func tableRow(cols []column, cells []string, cellStyles []lipgloss.Style) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		var value string
		if i < len(cells) {
			value = cells[i]
		}
		text := padRight(value, c.width)
		if i < len(cellStyles) {
			text = cellStyles[i].Render(text)
		}
		out[i] = text
	}
	return strings.Join(out, " ")
}

func (m Model) emptyMessage(what string) string {
	styles := m.theme.Styles()
	if m.snapshot.FetchedAt.IsZero() {
		return styles.MutedText.Render("Waiting for first snapshot...")
	}
	return styles.MutedText.Render("No " + what + " reported.")
}

// renderTopology lists nodes, then edges ordered by traffic.
func (m Model) renderTopology(width int) string {
	styles := m.theme.Styles()
	topo := m.snapshot.Topology
	if len(topo.Nodes) == 0 && len(topo.Edges) == 0 {
		return m.emptyMessage("nodes")
	}

	labels := make(map[string]string, len(topo.Nodes))
	for _, n := range topo.Nodes {
		labels[n.ID] = firstNonEmpty(n.Label, n.ID)
	}

	nodeCols := fitColumns([]column{
		{"node", 24},
		{"ip", 16},
		{"status", 10},
		{"class", 12},
	}, width)

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(fmt.Sprintf("Nodes (%d)", len(topo.Nodes))))
	b.WriteString("\n")
	b.WriteString(m.tableHeader(nodeCols))
	nodes := append([]master.Node(nil), topo.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool {
		return strings.ToLower(labels[nodes[i].ID]) < strings.ToLower(labels[nodes[j].ID])
	})
	for _, n := range nodes {
		b.WriteString("\n")
		b.WriteString(tableRow(nodeCols,
			[]string{labels[n.ID], n.IP, firstNonEmpty(n.Status, "unknown"), n.Classification},
			[]lipgloss.Style{styles.Text, styles.MutedText, styles.StatusStyle(firstNonEmpty(n.Status, "unknown")), styles.MutedText},
		))
	}

	edgeCols := fitColumns([]column{
		{"source", 24},
		{"target", 24},
		{"bytes", 12},
	}, width)
	edges := append([]master.Edge(nil), topo.Edges...)
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].Bytes > edges[j].Bytes })

	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Bold(true).Render(fmt.Sprintf("Edges (%d)", len(edges))))
	b.WriteString("\n")
	b.WriteString(m.tableHeader(edgeCols))
	for _, e := range edges {
		source := firstNonEmpty(labels[e.Source], e.Source)
		target := firstNonEmpty(labels[e.Target], e.Target)
		b.WriteString("\n")
		b.WriteString(tableRow(edgeCols,
			[]string{source, "→ " + target, formatBytes(e.Bytes)},
			[]lipgloss.Style{styles.Text, styles.Text, styles.InfoText},
		))
	}
	return b.String()
}

// renderConnections lists sockets, busiest first.
func (m Model) renderConnections(width int) string {
	styles := m.theme.Styles()
	conns := append([]master.Connection(nil), m.snapshot.Connections...)
	if len(conns) == 0 {
		return m.emptyMessage("connections")
	}
	sort.SliceStable(conns, func(i, j int) bool {
		return conns[i].BytesSent+conns[i].BytesRecv > conns[j].BytesSent+conns[j].BytesRecv
	})

	cols := fitColumns([]column{
		{"source", 22},
		{"destination", 22},
		{"state", 12},
		{"sent", 10},
		{"recv", 10},
		{"owner", 20},
	}, width)

	var b strings.Builder
	b.WriteString(m.tableHeader(cols))
	for _, c := range conns {
		owner := firstNonEmpty(c.Container, c.ProcessName, "-")
		if c.Container != "" && c.ProcessName != "" {
			owner = c.Container + "/" + c.ProcessName
		}
		b.WriteString("\n")
		b.WriteString(tableRow(cols,
			[]string{
				formatEndpoint(c.SrcIP, c.SrcPort),
				formatEndpoint(c.DstIP, c.DstPort),
				strings.ToUpper(c.State),
				formatBytes(c.BytesSent),
				formatBytes(c.BytesRecv),
				owner,
			},
			[]lipgloss.Style{styles.Text, styles.Text, styles.StatusStyle(c.State), styles.InfoText, styles.InfoText, styles.MutedText},
		))
	}
	return b.String()
}

// renderContainers lists containers by name.
func (m Model) renderContainers(width int) string {
	styles := m.theme.Styles()
	containers := append([]master.Container(nil), m.snapshot.Containers...)
	if len(containers) == 0 {
		return m.emptyMessage("containers")
	}
	sort.SliceStable(containers, func(i, j int) bool {
		return strings.ToLower(containers[i].Name) < strings.ToLower(containers[j].Name)
	})

	cols := fitColumns([]column{
		{"name", 22},
		{"status", 10},
		{"ip", 16},
		{"image", 24},
		{"networks", 18},
		{"ports", 20},
	}, width)

	var b strings.Builder
	b.WriteString(m.tableHeader(cols))
	for _, c := range containers {
		b.WriteString("\n")
		b.WriteString(tableRow(cols,
			[]string{
				firstNonEmpty(c.Name, shortID(c.ID)),
				c.Status,
				firstNonEmpty(c.IPAddress, "-"),
				c.Image,
				firstNonEmpty(strings.Join(c.Networks, ","), "-"),
				firstNonEmpty(strings.Join(c.Ports, ","), "-"),
			},
			[]lipgloss.Style{styles.Text, styles.StatusStyle(c.Status), styles.MutedText, styles.MutedText, styles.MutedText, styles.InfoText},
		))
	}
	return b.String()
}

// renderPorts lists listening ports in ascending order.
func (m Model) renderPorts(width int) string {
	styles := m.theme.Styles()
	ports := append([]master.Port(nil), m.snapshot.Ports...)
	if len(ports) == 0 {
		return m.emptyMessage("ports")
	}
	sort.SliceStable(ports, func(i, j int) bool {
		if ports[i].Port != ports[j].Port {
			return ports[i].Port < ports[j].Port
		}
		return ports[i].Container < ports[j].Container
	})

	cols := fitColumns([]column{
		{"port", 8},
		{"container", 30},
	}, width)

	var b strings.Builder
	b.WriteString(m.tableHeader(cols))
	for _, p := range ports {
		b.WriteString("\n")
		b.WriteString(tableRow(cols,
			[]string{fmt.Sprintf("%d", p.Port), firstNonEmpty(p.Container, "host")},
			[]lipgloss.Style{styles.AccentText, styles.Text},
		))
	}
	return b.String()
}

// renderAnomalies lists anomalies newest first.
func (m Model) renderAnomalies(width int) string {
	styles := m.theme.Styles()
	anomalies := append([]master.Anomaly(nil), m.snapshot.Anomalies...)
	if len(anomalies) == 0 {
		return m.emptyMessage("anomalies")
	}
	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].ParsedTime().After(anomalies[j].ParsedTime())
	})

	cols := fitColumns([]column{
		{"when", 16},
		{"severity", 9},
		{"type", 18},
		{"message", 30},
	}, width)

	now := m.now()
	var b strings.Builder
	b.WriteString(m.tableHeader(cols))
	for _, a := range anomalies {
		when := a.Timestamp
		if t := a.ParsedTime(); !t.IsZero() {
			when = formatAgo(t, now)
		}
		b.WriteString("\n")
		b.WriteString(tableRow(cols,
			[]string{when, strings.ToUpper(a.Severity), a.Type, a.Message},
			[]lipgloss.Style{styles.MutedText, styles.StatusStyle(a.Severity).Bold(true), styles.Text, styles.Text},
		))
		if details := formatDetails(a.Details); details != "" {
			indent := cols[0].width + 1
			b.WriteString("\n")
			b.WriteString(strings.Repeat(" ", indent))
			b.WriteString(styles.FaintText.Render(truncate(details, max(width-indent, 10))))
		}
	}
	return b.String()
}

// formatDetails flattens anomaly details into sorted key=value pairs.
// Strings print bare; everything else prints as compact JSON.
func formatDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		var value string
		switch v := details[k].(type) {
		case string:
			value = v
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				value = fmt.Sprint(v)
			} else {
				value = string(raw)
			}
		}
		pairs = append(pairs, k+"="+value)
	}
	return strings.Join(pairs, " ")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
