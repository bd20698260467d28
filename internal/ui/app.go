package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/netscope/netscope/internal/prefs"
	"github.com/netscope/netscope/internal/state"
)

// Source is the read side of the sync engine. *engine.Engine satisfies it.
type Source interface {
	Snapshot() state.Snapshot
	Connectivity() state.Connectivity
	Status() state.Status
	Subscribe() (<-chan struct{}, func())
	Refresh(reason string)
}

// Tab is the active view. It only selects what to render.
type Tab int

const (
	TabTopology Tab = iota
	TabConnections
	TabContainers
	TabPorts
	TabAnomalies
	TabLogs
	tabCount
)

var tabNames = [tabCount]string{"Topology", "Connections", "Containers", "Ports", "Anomalies", "Logs"}

func (t Tab) String() string {
	if t < 0 || t >= tabCount {
		return "Topology"
	}
	return tabNames[t]
}

// ParseTab maps a saved tab name back to a Tab. Unknown names return
// TabTopology and false.
func ParseTab(name string) (Tab, bool) {
	for i, n := range tabNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Tab(i), true
		}
	}
	return TabTopology, false
}

// Options configures the UI.
type Options struct {
	Source    Source
	ThemeName string
	Tab       string
	PrefsPath string // empty uses prefs.DefaultPath()
	LogPath   string // file shown in the Logs tab
	Logger    zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	source    Source
	prefsPath string
	logPath   string
	logger    zerolog.Logger
	keys      keyMap
	now       func() time.Time

	updates     <-chan struct{}
	unsubscribe func()
	sourceDone  bool

	theme    Theme
	tab      Tab
	width    int
	height   int
	ready    bool
	showHelp bool

	snapshot     state.Snapshot
	connectivity state.Connectivity
	status       state.Status
	lastChange   time.Time

	content viewport.Model
	logs    logState
}

// New creates the model and subscribes to source.
func New(opts Options) Model {
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	tab, _ := ParseTab(opts.Tab)

	m := Model{
		source:    opts.Source,
		prefsPath: prefsPath,
		logPath:   opts.LogPath,
		logger:    opts.Logger.With().Str("component", "ui").Logger(),
		keys:      DefaultKeyMap(),
		now:       time.Now,
		theme:     GetTheme(opts.ThemeName),
		tab:       tab,
		content:   viewport.New(0, 0),
		logs:      logState{follow: true},
	}
	if m.source != nil {
		m.updates, m.unsubscribe = m.source.Subscribe()
		m.pull()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(uiTick)}
	if m.updates != nil {
		cmds = append(cmds, waitForChange(m.updates))
	}
	if m.tab == TabLogs {
		cmds = append(cmds, m.readLogsCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeContent()
		m.refreshContent()
		return m, nil

	case changeMsg:
		m.pull()
		m.refreshContent()
		return m, waitForChange(m.updates)

	case sourceClosedMsg:
		m.sourceDone = true
		m.connectivity = state.Disconnected
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		if m.tab == TabLogs {
			cmds = append(cmds, m.readLogsCmd())
		} else {
			// Relative timestamps in tables.
			m.refreshContent()
		}
		cmds = append(cmds, tickCmd(uiTick))
		return m, tea.Batch(cmds...)

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabBar())
	b.WriteString("\n")
	b.WriteString(m.renderTitledBox(m.contentTitle(), m.content.View(), m.width, m.bodyHeight()))
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.refreshContent()
		return m, m.savePrefsCmd()

	case key.Matches(msg, m.keys.Refresh):
		if m.source != nil && !m.sourceDone {
			m.source.Refresh("keypress")
		}
		return m, nil

	case key.Matches(msg, m.keys.Follow):
		if m.tab == TabLogs {
			m.logs.follow = !m.logs.follow
			if m.logs.follow {
				m.content.GotoBottom()
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		return m.switchTab((m.tab + 1) % tabCount)

	case key.Matches(msg, m.keys.PrevTab):
		return m.switchTab((m.tab + tabCount - 1) % tabCount)

	case key.Matches(msg, m.keys.Tabs):
		idx := int(msg.String()[0] - '1')
		return m.switchTab(Tab(idx))

	case key.Matches(msg, m.keys.Down):
		m.content.ScrollDown(1)
		m.logs.follow = false
	case key.Matches(msg, m.keys.Up):
		m.content.ScrollUp(1)
		m.logs.follow = false
	case key.Matches(msg, m.keys.PageDown):
		m.content.PageDown()
		m.logs.follow = false
	case key.Matches(msg, m.keys.PageUp):
		m.content.PageUp()
		m.logs.follow = false
	case key.Matches(msg, m.keys.Top):
		m.content.GotoTop()
		m.logs.follow = false
	case key.Matches(msg, m.keys.Bottom):
		m.content.GotoBottom()
		m.logs.follow = true
	}
	return m, nil
}

func (m Model) switchTab(tab Tab) (tea.Model, tea.Cmd) {
	if tab < 0 || tab >= tabCount || tab == m.tab {
		return m, nil
	}
	m.tab = tab
	m.content.GotoTop()
	m.refreshContent()
	cmds := []tea.Cmd{m.savePrefsCmd()}
	if tab == TabLogs {
		m.logs.follow = true
		cmds = append(cmds, m.readLogsCmd())
	}
	return m, tea.Batch(cmds...)
}

// pull copies the latest state out of the source.
func (m *Model) pull() {
	if m.source == nil {
		return
	}
	m.snapshot = m.source.Snapshot()
	m.connectivity = m.source.Connectivity()
	m.status = m.source.Status()
	m.lastChange = m.now()
}

func (m Model) bodyHeight() int {
	// header, tab bar, command bar
	return max(m.height-3, 3)
}

func (m *Model) resizeContent() {
	m.content.Width = max(m.width-2, 1)
	m.content.Height = max(m.bodyHeight()-2, 1)
}

// refreshContent re-renders the active tab into the viewport, keeping the
// scroll position.
func (m *Model) refreshContent() {
	if !m.ready {
		return
	}
	width := m.content.Width
	var body string
	switch m.tab {
	case TabTopology:
		body = m.renderTopology(width)
	case TabConnections:
		body = m.renderConnections(width)
	case TabContainers:
		body = m.renderContainers(width)
	case TabPorts:
		body = m.renderPorts(width)
	case TabAnomalies:
		body = m.renderAnomalies(width)
	case TabLogs:
		body = m.renderLogLines(width)
	}
	offset := m.content.YOffset
	m.content.SetContent(body)
	if m.tab == TabLogs && m.logs.follow {
		m.content.GotoBottom()
	} else {
		m.content.SetYOffset(offset)
	}
}

func (m Model) savePrefsCmd() tea.Cmd {
	p := prefs.Prefs{Theme: m.theme.Name, Tab: strings.ToLower(m.tab.String())}
	path := m.prefsPath
	logger := m.logger
	return func() tea.Msg {
		if err := prefs.Save(path, p); err != nil {
			logger.Warn().Err(err).Msg("Saving preferences failed")
		}
		return nil
	}
}

// Messages

const uiTick = time.Second

type tickMsg time.Time

type changeMsg struct{}

type sourceClosedMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks on the subscription and turns the next notification
// into a message. A closed subscription means the engine has shut down.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return sourceClosedMsg{}
		}
		return changeMsg{}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Source == nil {
		return errors.New("ui requires a snapshot source")
	}
	m := New(opts)
	defer func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
	}()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
