// Package history provides the history tab for viewing recorded quota usage.
package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/zai-usage-monitor/internal/app"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
)

// recentCallsLimit is the number of API calls listed in the calls card.
const recentCallsLimit = 8

// allTimeHours bounds the hourly call query for the all-time range.
const allTimeHours = 90 * 24

// Source provides recorded history. *services.Manager implements it.
type Source interface {
	GetHistory(timeRange models.TimeRange) (*models.HistoryStats, error)
	GetHourlyStats(hours int) ([]models.HourlyStats, error)
	GetRecentCalls(limit int) ([]models.APICall, error)
}

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleRange key.Binding
	Reload      key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "reload history"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// historyLoadedMsg is sent when history data is loaded.
type historyLoadedMsg struct {
	stats     *models.HistoryStats
	hourly    []models.HourlyStats
	calls     []models.APICall
	timeRange models.TimeRange
}

// historyErrorMsg is sent when there's an error loading history.
type historyErrorMsg struct {
	err string
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	source   Source
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	timeRange   models.TimeRange
	historyData *models.HistoryStats
	hourly      []models.HourlyStats
	calls       []models.APICall
	loading     bool
	lastRefresh time.Time
	errorMsg    string
}

// New creates a new history model. src may be nil when no history store
// is available.
func New(state *app.State, src Source) *Model {
	return &Model{
		state:     state,
		source:    src,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: models.TimeRange24Hours,
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.loadHistoryCmd()
}

// loadHistoryCmd creates a command to load history data for the current
// range.
func (m *Model) loadHistoryCmd() tea.Cmd {
	src := m.source
	timeRange := m.timeRange

	return func() tea.Msg {
		if src == nil {
			return historyErrorMsg{err: "History store not available"}
		}

		stats, err := src.GetHistory(timeRange)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}

		hours := timeRange.Days() * 24
		if hours == 0 {
			hours = allTimeHours
		}
		hourly, err := src.GetHourlyStats(hours)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}

		calls, err := src.GetRecentCalls(recentCallsLimit)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}

		return historyLoadedMsg{stats: stats, hourly: hourly, calls: calls, timeRange: timeRange}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.timeRange != m.timeRange {
			// Stale result from a range the user already toggled away from.
			return m, nil
		}
		m.historyData = msg.stats
		m.hourly = msg.hourly
		m.calls = msg.calls
		m.loading = false
		m.lastRefresh = time.Now()
		m.errorMsg = ""

	case historyErrorMsg:
		m.loading = false
		m.errorMsg = msg.err
		return m, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationError,
				Message:  fmt.Sprintf("History error: %s", msg.err),
				Duration: app.LongNotificationDuration,
			}
		}

	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory {
			cmds = append(cmds, m.reload())
		}

	case app.DataUpdatedMsg:
		// A fetch recorded new samples.
		cmds = append(cmds, m.reload())

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

// reload starts a load unless one is already running.
func (m *Model) reload() tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	return m.loadHistoryCmd()
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		m.timeRange = m.timeRange.Next()
		m.loading = true
		return m, m.loadHistoryCmd()

	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, m.loadHistoryCmd()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
		m.keys.Reload,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange, m.keys.Reload},
		{m.keys.Up, m.keys.Down},
	}
}
