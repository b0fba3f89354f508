// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/zai-usage-monitor/internal/logger"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/styles"
)

// Usage gradient, low to high.
const (
	gradientLow  = "#51cf66"
	gradientHigh = "#ff6b6b"
)

type AnimationTickMsg time.Time

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*50, func(t time.Time) tea.Msg {
		return AnimationTickMsg(t)
	})
}

// QuotaBar renders a usage progress bar with label and percentage.
type QuotaBar struct {
	progress       progress.Model
	label          string
	percent        float64
	isAnimating    bool
	targetPercent  float64
	currentPercent float64
}

// NewQuotaBar creates a new quota bar with gradient colors.
func NewQuotaBar() QuotaBar {
	return NewQuotaBarWithWidth(30)
}

// NewQuotaBarWithWidth creates a quota bar with a specific width.
func NewQuotaBarWithWidth(width int) QuotaBar {
	p := progress.New(
		progress.WithScaledGradient(gradientLow, gradientHigh),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)

	return QuotaBar{progress: p}
}

// Init initializes the progress bar model.
func (q QuotaBar) Init() tea.Cmd {
	return nil
}

// Update eases the displayed percentage towards its target.
func (q QuotaBar) Update(msg tea.Msg) (QuotaBar, tea.Cmd) {
	var cmds []tea.Cmd

	if _, ok := msg.(AnimationTickMsg); ok && q.isAnimating {
		switch {
		case q.currentPercent < q.targetPercent:
			step := max((q.targetPercent-q.currentPercent)/10, 0.5)
			q.currentPercent = min(q.currentPercent+step, q.targetPercent)
			cmds = append(cmds, animationTick())
		case q.currentPercent > q.targetPercent:
			step := max((q.currentPercent-q.targetPercent)/10, 0.5)
			q.currentPercent = max(q.currentPercent-step, q.targetPercent)
			cmds = append(cmds, animationTick())
		default:
			q.isAnimating = false
		}
	}

	model, cmd := q.progress.Update(msg)
	q.progress = model.(progress.Model)
	cmds = append(cmds, cmd)

	return q, tea.Batch(cmds...)
}

// SetPercent sets the target percentage and starts the animation.
func (q *QuotaBar) SetPercent(percent float64) tea.Cmd {
	q.percent = percent
	q.targetPercent = percent

	if !q.isAnimating {
		q.isAnimating = true
		return tea.Batch(
			q.progress.SetPercent(ClampPercent(percent)/100),
			animationTick(),
		)
	}

	return q.progress.SetPercent(ClampPercent(percent) / 100)
}

// Percent returns the target percentage.
func (q QuotaBar) Percent() float64 {
	return q.percent
}

// Current returns the animated percentage.
func (q QuotaBar) Current() float64 {
	return q.currentPercent
}

// SetLabel sets the bar label.
func (q *QuotaBar) SetLabel(label string) {
	q.label = label
}

// Label returns the bar label.
func (q QuotaBar) Label() string {
	return q.label
}

// SetWidth sets the progress bar width.
func (q *QuotaBar) SetWidth(width int) {
	q.progress.Width = width
}

// View renders the quota bar with percentage and label.
func (q QuotaBar) View(percent float64, label string, width int) string {
	q.progress.Width = max(width-30, 10)

	bar := q.progress.ViewAs(ClampPercent(percent) / 100)

	percentStr := styles.GetUsageStyle(percent).
		Width(7).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.1f%%", percent))

	labelStr := styles.ProgressLabelStyle.Width(22).Render(label)

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, bar, " ", percentStr)
}

// ViewCompact renders a compact version without label.
func (q QuotaBar) ViewCompact(percent float64, width int) string {
	q.progress.Width = max(width-8, 5)

	bar := q.progress.ViewAs(ClampPercent(percent) / 100)
	percentStr := styles.GetUsageStyle(percent).Render(fmt.Sprintf("%.0f%%", percent))

	return lipgloss.JoinHorizontal(lipgloss.Center, bar, " ", percentStr)
}

// ViewUnavailable renders a limit that the API did not report.
func (q QuotaBar) ViewUnavailable(label string, width int) string {
	labelStr := styles.ProgressLabelStyle.Width(22).Render(label)
	barWidth := max(width-30, 10)

	emptyBar := lipgloss.NewStyle().
		Foreground(styles.Subtle).
		Render(strings.Repeat("░", barWidth))

	statusStr := styles.UsageUnavailableStyle.
		Width(8).
		Align(lipgloss.Right).
		Render("NO DATA")

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, emptyBar, " ", statusStr)
}

// ResetBar renders how much of a quota window has elapsed.
type ResetBar struct {
	progress progress.Model
}

// NewResetBar creates a new reset bar.
func NewResetBar() ResetBar {
	p := progress.New(
		progress.WithScaledGradient("#ffd93d", "#6c5ce7"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return ResetBar{progress: p}
}

// RenderResetBarChars renders just the bar characters for a reset bar.
func RenderResetBarChars(fraction float64, width int) string {
	return renderBlocks(fraction*100, width, "#ffd93d", "#6c5ce7")
}

// ViewUntil renders elapsed time in a window of length period that ends at
// reset. The bar is indented by labelWidth to align with quota bars.
func (r ResetBar) ViewUntil(reset, now time.Time, period time.Duration, labelWidth, width int) string {
	remaining := max(reset.Sub(now), 0)

	fraction := 1.0
	if period > 0 {
		fraction = 1.0 - float64(remaining)/float64(period)
		fraction = min(max(fraction, 0), 1)
	}

	const timeWidth = 12
	barWidth := max(width-labelWidth-timeWidth-4, 10)

	bar := RenderResetBarChars(fraction, barWidth)
	timeStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(timeWidth).
		Align(lipgloss.Right).
		Render(FormatCountdown(remaining))

	return fmt.Sprintf("%s [%s] %s", strings.Repeat(" ", labelWidth), bar, timeStr)
}

// RenderGradientBar renders just the bar part with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	return renderBlocks(percent, width, gradientLow, gradientHigh)
}

func renderBlocks(percent float64, width int, fromHex, toHex string) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * ClampPercent(percent) / 100)

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(fromHex, toHex, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return b.String()
}

// SimpleQuotaBar renders a simple ASCII progress bar with gradient colors.
func SimpleQuotaBar(percent float64, label string, width int) string {
	const percentWidth = 7
	barWidth := max(width-len(label)-1-percentWidth-4, 5)

	bar := RenderGradientBar(percent, barWidth)

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	percentStr := styles.GetUsageStyle(percent).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.1f%%", percent))

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, percentStr)
}

// SimpleQuotaBarLoading renders a shimmering placeholder bar for frame.
func SimpleQuotaBarLoading(label string, width int, frame int) string {
	const (
		indentWidth  = 4
		percentWidth = 7
	)

	barWidth := max(width-indentWidth-percentWidth-4, 10)

	accentColor := styles.LimitColor(label)

	const cycle = 120
	t := float64(frame%cycle) / float64(cycle)
	p := t * 2
	if t >= 0.5 {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(barWidth))

	var b strings.Builder
	for i := 0; i < barWidth; i++ {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}

		switch {
		case dist < 3:
			b.WriteString(lipgloss.NewStyle().Foreground(accentColor).Render("▓"))
		case dist < 5:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.TextSecondary).Render("▒"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.BgLight).Render("░"))
		}
	}

	dots := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	dot := dots[(frame/2)%len(dots)]

	loadingStr := lipgloss.NewStyle().
		Width(percentWidth).
		Align(lipgloss.Right).
		Foreground(accentColor).
		Render(dot)

	return lipgloss.JoinHorizontal(lipgloss.Left, "    ", b.String(), " ", loadingStr)
}

// ClampPercent limits p to [0, 100].
func ClampPercent(p float64) float64 {
	return min(max(p, 0), 100)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
