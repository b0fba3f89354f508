package settings

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/zai-usage-monitor/internal/services/usage"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/styles"
	"github.com/j-veylop/zai-usage-monitor/internal/version"
)

// View renders the settings tab.
func (m *Model) View() string {
	sections := []string{m.renderTitle()}

	if m.editing {
		sections = append(sections, m.renderForm())
	} else {
		sections = append(sections, m.renderConfigCard())
	}
	sections = append(sections, m.renderPathsCard(), m.renderAboutCard())

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Settings")
	subtitle := styles.HelpStyle.Render("API access and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderRow renders a key-value row.
func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderConfigCard() string {
	cfg := m.state.GetConfig()

	token := cfg.MaskedToken()
	if token == "" {
		token = styles.WarningTextStyle.Render("not set")
	}

	domain, err := usage.ResolveDomain(cfg.BaseURL)
	if err != nil {
		domain = styles.ErrorTextStyle.Render("unrecognized base URL")
	}

	rows := []string{
		styles.CardTitleStyle.Render("API Access"),
		"",
		renderRow("API Token", token),
		renderRow("Base URL", cfg.BaseURL),
		renderRow("Monitor Domain", domain),
		renderRow("Refresh", fmt.Sprintf("every %d min", cfg.RefreshIntervalMinutes)),
		"",
		styles.HelpStyle.Render("Press 'e' to edit"),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderField(field formField, label string, input textinput.Model, inputWidth int) []string {
	labelStr := styles.BlurredStyle.Render("  " + label)
	inputStyle := styles.BlurredBorderStyle
	if m.focusedField == field {
		labelStr = styles.FocusedStyle.Render("> " + label)
		inputStyle = styles.FocusedBorderStyle
	}
	return []string{labelStr, inputStyle.Width(inputWidth).Render(input.View()), ""}
}

func (m *Model) renderForm() string {
	cardWidth := m.cardWidth()

	rows := []string{styles.CardTitleStyle.Render("Edit Settings"), ""}
	rows = append(rows, m.renderField(fieldToken, "API Token:", m.tokenInput, cardWidth-10)...)
	rows = append(rows, m.renderField(fieldBaseURL, "Base URL:", m.baseURLInput, cardWidth-10)...)
	rows = append(rows, m.renderField(fieldInterval, "Refresh interval (minutes):", m.intervalInput, 10)...)

	submitStyle := styles.ButtonInactiveStyle
	cancelStyle := styles.ButtonInactiveStyle
	if m.focusedField == fieldSubmit {
		submitStyle = styles.ButtonActiveStyle
	}
	if m.focusedField == fieldCancel {
		cancelStyle = styles.ButtonActiveStyle
	}

	submitLabel := " Save "
	if m.saving {
		submitLabel = " Saving... "
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center,
		submitStyle.Render(submitLabel),
		"  ",
		cancelStyle.Render(" Cancel "),
	), "")

	if m.formError != "" {
		rows = append(rows, styles.ErrorTextStyle.Render("✗ "+m.formError), "")
	}

	rows = append(rows, styles.HelpStyle.Render("Tab: next field | Enter: save | Esc: cancel"))

	return styles.ModalContentStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderPathsCard() string {
	logPath := m.paths.LogPath
	if logPath == "" {
		logPath = "disabled"
	}

	rows := []string{
		styles.CardTitleStyle.Render("Files"),
		"",
		renderRow("Config File", m.paths.ConfigPath),
		renderRow("History DB", m.paths.DatabasePath),
		renderRow("Log File", logPath),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About Z.ai Usage Monitor"),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	if updated := m.state.GetLastUpdated(); !updated.IsZero() {
		rows = append(rows, "", fmt.Sprintf("Last fetch: %s", styles.InfoTextStyle.Render(updated.Format("15:04:05"))))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
