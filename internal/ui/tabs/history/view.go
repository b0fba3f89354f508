package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/zai-usage-monitor/internal/models"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/components"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/styles"
)

const chartHeight = 8

// View renders the history tab.
func (m *Model) View() string {
	if m.loading && m.historyData == nil {
		return m.renderLoading()
	}
	if m.errorMsg != "" {
		return m.renderError()
	}
	if !m.historyData.HasData() {
		return m.renderEmpty()
	}

	sections := []string{
		m.renderHeader(),
		m.renderQuotaChart(),
		m.renderSeriesSummary(),
		m.renderCallStats(),
		m.renderHourlyHeatmap(),
	}
	if len(m.calls) > 0 {
		sections = append(sections, m.renderRecentCalls())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading history data..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Center, styles.TitleStyle.Render("History"), "  ", m.renderRangeIndicator()),
		"",
		styles.HelpStyle.Render("No quota samples recorded in this range."),
		styles.HelpStyle.Render("Samples are stored after every successful fetch."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderRangeIndicator() string {
	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	return rangeStyle.Render(fmt.Sprintf("[t] %s", m.timeRange.String()))
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Quota History")
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", m.renderRangeIndicator())

	var subtitle string
	if !m.historyData.FirstDataPoint.IsZero() {
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("Data: %s → %s · %d polls",
			m.historyData.FirstDataPoint.Local().Format("Jan 2 15:04"),
			m.historyData.LastDataPoint.Local().Format("Jan 2 15:04"),
			m.historyData.TotalPolls,
		))
	}

	refreshed := styles.HelpStyle.Render("Loaded " + components.FormatAgo(m.lastRefresh, time.Now()))

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, refreshed, "")
}

func cardTitle(icon, title string) string {
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render(icon)
	return fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render(title))
}

func (m *Model) renderQuotaChart() string {
	cardWidth := m.cardWidth()
	rows := []string{cardTitle("📈", "Quota Usage (%)"), ""}

	series := m.historyData.Series
	data := make([][]float64, len(series))
	legend := make([]components.LegendItem, len(series))
	for i := range series {
		data[i] = series[i].Percentages()
		legend[i] = components.LegendItem{Label: series[i].LimitType, Color: components.SeriesColor(i)}
	}

	chart := components.RenderMultiLineChart(data, max(cardWidth-14, 30), chartHeight,
		fmt.Sprintf("%s, one point per poll", m.timeRange))
	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	rows = append(rows, "", "  "+components.RenderLegend(legend), "")

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderSeriesSummary() string {
	cardWidth := m.cardWidth()
	rows := []string{cardTitle("◈", "Per Limit"), ""}

	peakType, peak := m.historyData.PeakSeries()

	for _, s := range m.historyData.Series {
		label := lipgloss.NewStyle().Width(24).Bold(true).Render(s.LimitType)
		stats := fmt.Sprintf("peak %s  avg %.1f%%  alerts %d",
			styles.GetUsageStyle(s.Peak).Render(fmt.Sprintf("%.1f%%", s.Peak)),
			s.Average,
			s.AlertsCount,
		)
		spark := components.RenderUsageSparkline(s.Percentages(), max(cardWidth-70, 10))
		rows = append(rows, fmt.Sprintf("  %s %s  %s", label, stats, spark))
	}

	rows = append(rows, "", fmt.Sprintf("  Highest: %s at %.1f%%",
		lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Render(peakType), peak))

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderCallStats() string {
	rows := []string{cardTitle("⇅", "API Calls"), ""}

	calls := m.historyData.Calls
	if calls == nil || calls.TotalCalls == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No API calls recorded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	errStyle := styles.SuccessTextStyle
	if calls.ErrorCount > 0 {
		errStyle = styles.ErrorTextStyle
	}

	rows = append(rows,
		fmt.Sprintf("  %s calls in %s polls · %s received · avg %.0f ms",
			components.FormatCount(int64(calls.TotalCalls)),
			components.FormatCount(int64(calls.TotalPolls)),
			components.FormatBytes(calls.TotalBytes),
			calls.AvgDurationMs,
		),
		fmt.Sprintf("  Errors: %s",
			errStyle.Render(fmt.Sprintf("%d (%.1f%%)", calls.ErrorCount, calls.ErrorRate()))),
	)
	if !calls.LastCall.IsZero() {
		rows = append(rows, styles.HelpStyle.Render("  Last call "+calls.LastCall.Local().Format("Jan 2 15:04:05")))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// hourOfDayCalls folds hourly buckets into 24 local hour-of-day totals.
func hourOfDayCalls(hourly []models.HourlyStats) []float64 {
	out := make([]float64, 24)
	for _, h := range hourly {
		out[h.Hour.Local().Hour()] += float64(h.TotalCalls)
	}
	return out
}

func (m *Model) renderHourlyHeatmap() string {
	rows := []string{cardTitle("🕐", "Calls by Hour of Day"), ""}

	if len(m.hourly) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No hourly data available"))
	} else {
		patterns := hourOfDayCalls(m.hourly)
		rows = append(rows, "  "+components.RenderHourlyHeatmap(patterns))

		peakHour := 0
		for h, v := range patterns {
			if v > patterns[peakHour] {
				peakHour = h
			}
		}
		rows = append(rows, fmt.Sprintf("  Busiest: %s (%.0f calls)",
			lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).
				Render(fmt.Sprintf("%02d:00-%02d:00", peakHour, (peakHour+1)%24)),
			patterns[peakHour],
		))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderRecentCalls() string {
	rows := []string{cardTitle("≡", "Recent Calls"), ""}

	for _, c := range m.calls {
		status := styles.SuccessTextStyle.Render(fmt.Sprintf("%d", c.StatusCode))
		if c.Error != "" {
			status = styles.ErrorTextStyle.Render("ERR")
		}
		rows = append(rows, fmt.Sprintf("  %s  %s %s %6d ms  %s",
			c.Timestamp.Local().Format("15:04:05"),
			lipgloss.NewStyle().Width(12).Render(c.Endpoint),
			lipgloss.NewStyle().Width(4).Render(status),
			c.DurationMs,
			components.FormatBytes(int64(c.BodyBytes)),
		))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
