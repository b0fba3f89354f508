// Package tools provides the tool usage tab.
package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/zai-usage-monitor/internal/app"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/components"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/styles"
)

// keyMap defines the key bindings specific to the tools tab.
type keyMap struct {
	Sort    key.Binding
	Refresh key.Binding
	Up      key.Binding
	Down    key.Binding
}

// defaultKeyMap returns the default key bindings for the tools tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort by calls/name"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the tools tab state.
type Model struct {
	state      *app.State
	table      table.Model
	spinner    components.LoadingSpinner
	keys       keyMap
	width      int
	height     int
	sortByName bool
}

// New creates a new tools model.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columns(30)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	return &Model{
		state:   state,
		table:   t,
		spinner: components.NewSpinner("Loading tool usage..."),
		keys:    defaultKeyMap(),
	}
}

func columns(nameWidth int) []table.Column {
	return []table.Column{
		{Title: "Tool", Width: nameWidth},
		{Title: "Calls", Width: 12},
		{Title: "Share", Width: 8},
	}
}

// Init initializes the tools tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages for the tools tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Sort) {
			m.sortByName = !m.sortByName
			m.updateTableData()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		cmds = append(cmds, cmd)

	case app.DataUpdatedMsg, app.UsageLoadedMsg, app.TabSwitchMsg:
		m.updateTableData()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// SortTools returns a sorted copy of items, by descending call count or by
// name. Ties keep the API order.
func SortTools(items []models.ToolUsageItem, byName bool) []models.ToolUsageItem {
	out := append([]models.ToolUsageItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if byName {
			return strings.ToLower(out[i].ToolName) < strings.ToLower(out[j].ToolName)
		}
		return out[i].UsageCount > out[j].UsageCount
	})
	return out
}

func (m *Model) tools() []models.ToolUsageItem {
	snapshot := m.state.GetSnapshot()
	if snapshot == nil {
		return nil
	}
	return SortTools(snapshot.ToolUsage, m.sortByName)
}

// updateTableData refreshes the table rows from the current snapshot.
func (m *Model) updateTableData() {
	items := m.tools()

	var total int64
	for _, item := range items {
		total += item.UsageCount
	}

	rows := make([]table.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, table.Row{
			item.ToolName,
			components.FormatCount(item.UsageCount),
			formatShare(item.UsageCount, total),
		})
	}

	m.table.SetRows(rows)
}

// formatShare formats count as a percentage of total.
func formatShare(count, total int64) string {
	if total <= 0 {
		return "-"
	}
	p := float64(count) / float64(total) * 100
	if p > 0 && p < 1 {
		return "<1%"
	}
	return fmt.Sprintf("%.0f%%", p)
}

// SetSize sets the available size for the tools tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height/2-4, 5))
	m.table.SetColumns(columns(min(max(width-40, 20), 48)))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Sort,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.Sort, m.keys.Refresh},
	}
}
