package tools

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/zai-usage-monitor/internal/models"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/components"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/styles"
)

// View renders the tools tab.
func (m *Model) View() string {
	snapshot := m.state.GetSnapshot()
	if snapshot == nil {
		if m.state.IsInitialLoading() {
			return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
		}
		return styles.DocStyle.Width(m.width).Render(m.renderEmptyState("No usage data yet", "Press r to fetch"))
	}

	sections := []string{m.renderTitle(snapshot.ToolUsage)}

	if len(snapshot.ToolUsage) == 0 {
		sections = append(sections, m.renderEmptyState("No tool calls in this window", "MCP tools used through the coding plan show up here"))
	} else {
		sections = append(sections, m.renderTable(), m.renderChart())
	}

	if details := m.renderLimitDetails(snapshot.QuotaLimits); details != "" {
		sections = append(sections, details)
	}

	sections = append(sections, m.renderFooter())

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) renderTitle(items []models.ToolUsageItem) string {
	title := styles.TitleStyle.Render("Tool Usage")

	var total int64
	for _, item := range items {
		total += item.UsageCount
	}
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%d tools · %s calls", len(items), components.FormatCount(total)))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderEmptyState(headline, hint string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.SubTitleStyle.Render(headline),
		"",
		styles.HelpStyle.Render(hint),
		"",
	)
	return styles.CardStyle.Width(m.cardWidth()).Render(content)
}

func (m *Model) renderTable() string {
	return styles.CardStyle.Width(m.cardWidth()).Render(m.table.View())
}

func (m *Model) renderChart() string {
	items := m.tools()
	values := make([]float64, len(items))
	labels := make([]string, len(items))
	for i, item := range items {
		values[i] = float64(item.UsageCount)
		labels[i] = item.ToolName
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.CardTitleStyle.Render("Calls per tool"),
		"",
		components.RenderBarChart(values, labels, m.cardWidth()-4),
	))
}

// renderLimitDetails lists the per-tool breakdown that quota limits carry.
func (m *Model) renderLimitDetails(limits []models.QuotaLimit) string {
	var rows []string
	for _, l := range limits {
		if len(l.UsageDetails) == 0 {
			continue
		}
		if len(rows) > 0 {
			rows = append(rows, "")
		}
		rows = append(rows, styles.LimitLabelStyle(l.Type).Render(l.Type))
		for _, d := range l.UsageDetails {
			rows = append(rows, fmt.Sprintf("  %s %s",
				lipgloss.NewStyle().Width(28).Render(d.ToolName),
				components.FormatCount(d.Usage)))
		}
	}
	if len(rows) == 0 {
		return ""
	}

	rows = append([]string{styles.CardTitleStyle.Render("Quota breakdown"), ""}, rows...)
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderFooter() string {
	order := "calls"
	if m.sortByName {
		order = "name"
	}
	footer := styles.HelpKeyStyle.Render("s") + " sort (" + order + ")" +
		styles.HelpSeparatorStyle.Render(" | ") +
		styles.HelpKeyStyle.Render("r") + " refresh"

	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(footer)
}
