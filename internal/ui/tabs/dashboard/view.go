package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/zai-usage-monitor/internal/models"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/components"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/styles"
)

const (
	labelWidth  = 22
	indentSpace = "    "
	chartHeight = 8
)

// View renders the dashboard component.
func (m *Model) View() string {
	var content string

	switch snapshot := m.state.GetSnapshot(); {
	case snapshot != nil:
		content = m.renderSnapshot(snapshot)
	case m.state.IsInitialLoading():
		content = m.renderLoading()
	default:
		content = m.renderNoData()
	}

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) renderSnapshot(snapshot *models.AllUsageData) string {
	sections := []string{m.renderTitle(snapshot)}

	if err := m.state.GetLastError(); err != nil {
		sections = append(sections, m.renderStaleBanner(err), "")
	}

	sections = append(sections, m.renderQuotaCard(snapshot.QuotaLimits))

	if alerts := m.state.GetAlerts(); len(alerts) > 0 {
		sections = append(sections, m.renderAlertsCard(alerts))
	}

	sections = append(sections,
		m.renderModelCard(snapshot),
		m.renderTimeSeriesCard(snapshot.ModelUsageTimeseries),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderLoading renders placeholder bars until the first snapshot arrives.
func (m *Model) renderLoading() string {
	width := m.cardWidth() - 4

	rows := []string{
		m.cardHeader("◈", "Quota Limits"),
		"",
		styles.HelpStyle.Render(indentSpace + m.spinner.ViewWithElapsed(m.now())),
		"",
		styles.LimitLabelStyle("Token usage").Render("  Token usage"),
		components.SimpleQuotaBarLoading("Token usage", width, m.animationFrame),
		"",
		styles.LimitLabelStyle("MCP usage").Render("  MCP usage"),
		components.SimpleQuotaBarLoading("MCP usage", width, m.animationFrame),
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Z.ai Usage"),
		"",
		styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
}

// renderNoData is shown when no fetch has succeeded yet.
func (m *Model) renderNoData() string {
	rows := []string{
		m.cardHeader("○", "No usage data"),
		"",
	}

	if err := m.state.GetLastError(); err != nil {
		rows = append(rows, "  "+styles.ErrorTextStyle.Render("Last fetch failed: ")+err.Error(), "")
	}

	if m.state.GetConfig().AuthToken == "" {
		rows = append(rows, styles.InfoTextStyle.Render("  ╰─▶ Set your API token in Settings (4)"))
	} else {
		rows = append(rows, styles.InfoTextStyle.Render("  ╰─▶ Press r to retry"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Z.ai Usage"),
		"",
		styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
}

func (m *Model) renderTitle(snapshot *models.AllUsageData) string {
	now := m.now()
	title := styles.TitleStyle.Render("Z.ai Usage")

	updated := components.FormatAgo(time.Unix(snapshot.Timestamp, 0), now)
	subtitle := fmt.Sprintf("Updated %s · refresh every %d min",
		updated, m.state.GetConfig().RefreshInterval()/time.Minute)

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(subtitle), "")
}

func (m *Model) renderStaleBanner(err error) string {
	return styles.WarningTextStyle.Render("⚠ Showing previous data, last fetch failed: ") +
		styles.HelpStyle.Render(err.Error())
}

func (m *Model) cardHeader(icon, title string) string {
	iconStr := lipgloss.NewStyle().Foreground(styles.Primary).Render(icon)
	return fmt.Sprintf("%s %s", iconStr, styles.CardTitleStyle.Render(title))
}


func (m *Model) renderQuotaCard(limits []models.QuotaLimit) string {
	width := m.cardWidth() - 4
	rows := []string{m.cardHeader("◈", "Quota Limits"), ""}

	if len(limits) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No quota limits reported"))
	}

	for i, l := range limits {
		if i > 0 {
			rows = append(rows, "")
		}
		rows = append(rows, m.renderLimit(l, width)...)
	}

	rows = append(rows, "")
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderLimit(l models.QuotaLimit, width int) []string {
	label := styles.LimitLabelStyle(l.Type).Render(l.Type)
	lines := []string{m.quotaBar.View(m.displayPercent(l), label, width)}

	now := m.now()
	if reset, ok := l.ResetTime(); ok {
		if window := l.Window(); window > 0 {
			lines = append(lines, m.resetBar.ViewUntil(reset, now, window, labelWidth, width))
		}
		lines = append(lines, styles.HelpStyle.Render(
			fmt.Sprintf("%sresets %s", strings.Repeat(" ", labelWidth), components.FormatResetTime(reset, now))))
	}

	if detail := usageLine(l); detail != "" {
		lines = append(lines, styles.HelpStyle.Render(strings.Repeat(" ", labelWidth)+detail))
	}

	if p, ok := m.state.GetProjection(l.Type); ok {
		lines = append(lines, strings.Repeat(" ", labelWidth)+projectionLine(p, now))
	}

	return lines
}

// projectionLine describes when a limit runs out at its current rate.
func projectionLine(p models.Projection, now time.Time) string {
	style := styles.GetProjectionStyle(p.Status)
	rate := fmt.Sprintf("%.1f%%/h", p.Rate)

	var text string
	switch {
	case p.CurrentPercent >= 100:
		text = "Limit reached"
	case p.DataPoints < 2:
		return styles.HelpStyle.Render("Collecting samples for a projection")
	case p.Rate == 0:
		text = "No consumption in this window"
	case p.DepleteAt.IsZero() && p.ResetTime.IsZero():
		text = fmt.Sprintf("At %s will not run out", rate)
	case p.WillDepleteBefore:
		text = fmt.Sprintf("At %s runs out in %s, before reset", rate, components.FormatCountdown(p.DepleteAt.Sub(now)))
	case p.ResetTime.IsZero():
		text = fmt.Sprintf("At %s runs out in %s", rate, components.FormatCountdown(p.DepleteAt.Sub(now)))
	default:
		text = fmt.Sprintf("At %s lasts until reset", rate)
	}

	return style.Render(text) + styles.HelpStyle.Render(fmt.Sprintf(" · %s confidence", p.Confidence))
}

// usageLine describes absolute usage for limits that report counts.
func usageLine(l models.QuotaLimit) string {
	if l.CurrentValue == nil {
		return ""
	}

	used := components.FormatCount(*l.CurrentValue)
	var parts []string

	if l.Usage != nil {
		parts = append(parts, fmt.Sprintf("%s of %s used", used, components.FormatCount(*l.Usage)))
	} else {
		parts = append(parts, used+" used")
	}

	switch {
	case l.Remaining != nil:
		parts = append(parts, components.FormatCount(*l.Remaining)+" left")
	case l.Usage != nil:
		parts = append(parts, components.FormatCount(max(*l.Usage-*l.CurrentValue, 0))+" left")
	}

	return strings.Join(parts, " · ")
}

func (m *Model) renderAlertsCard(alerts []models.Alert) string {
	rows := []string{styles.WarningTextStyle.Bold(true).Render("⚠ Usage Alerts"), ""}

	for _, a := range alerts {
		icon := "●"
		if a.Severity == models.SeverityCritical {
			icon = "▲"
		}
		style := styles.GetSeverityStyle(a.Severity)
		rows = append(rows, fmt.Sprintf("  %s %s %s",
			style.Render(icon),
			lipgloss.NewStyle().Width(labelWidth).Render(a.TypeLabel),
			style.Render(fmt.Sprintf("%.1f%% %s", a.Percentage, strings.ToUpper(string(a.Severity)))),
		))
	}

	return styles.AlertCardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderModelCard(snapshot *models.AllUsageData) string {
	rows := []string{
		m.cardHeader("⬡", "Model Usage") + styles.HelpStyle.Render(fmt.Sprintf("  sorted by %s [s]", m.sortMode)),
		"",
	}

	items := SortModels(snapshot.ModelUsage, m.sortMode)
	if len(items) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No model usage in this window"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	nameWidth := max(m.cardWidth()-40, 16)
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		styles.TableHeaderStyle.Width(nameWidth).Render("Model"),
		styles.TableHeaderStyle.Width(14).Align(lipgloss.Right).Render("Tokens"),
		styles.TableHeaderStyle.Width(12).Align(lipgloss.Right).Render("Requests"),
	)
	rows = append(rows, "  "+header)

	values := make([]float64, len(items))
	labels := make([]string, len(items))
	for i, item := range items {
		rows = append(rows, "  "+lipgloss.JoinHorizontal(lipgloss.Left,
			styles.TableCellStyle.Width(nameWidth).Render(item.Model),
			styles.TableCellStyle.Width(14).Align(lipgloss.Right).Render(components.FormatCount(item.TokenCount)),
			styles.TableCellStyle.Width(12).Align(lipgloss.Right).Render(components.FormatCount(item.RequestCount)),
		))
		values[i] = float64(item.TokenCount)
		labels[i] = item.Model
	}

	if len(items) > 1 {
		rows = append(rows,
			"",
			styles.HelpStyle.Render(fmt.Sprintf("  Total: %s tokens · %s requests",
				components.FormatCount(snapshot.TotalTokens()),
				components.FormatCount(snapshot.TotalRequests()))),
			"",
			components.RenderBarChart(values, labels, m.cardWidth()-4),
		)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderTimeSeriesCard(ts *models.ModelUsageTimeSeries) string {
	rows := []string{m.cardHeader("📈", "Token Usage Over Time"), ""}

	if ts.Len() == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No time series data"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	tokens, missing := components.NullableSeries(ts.TokensUsage)
	calls, _ := components.NullableSeries(ts.ModelCallCount)

	caption := fmt.Sprintf("%s → %s", ts.XTime[0], ts.XTime[len(ts.XTime)-1])
	chart := components.RenderLineChart(tokens, max(m.cardWidth()-14, 30), chartHeight, caption)
	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	rows = append(rows, "", fmt.Sprintf("  %s %s",
		styles.HelpStyle.Render("Calls"),
		components.RenderSparkline(calls, max(m.cardWidth()-14, 10))))

	if missing > 0 {
		rows = append(rows, styles.HelpStyle.Render(
			fmt.Sprintf("  %d of %d buckets without data", missing, ts.Len())))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
