package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/zai-usage-monitor/internal/ui/styles"
)

// LoadingSpinner is a dot spinner with a label. After Start it also reports
// how long the wait has lasted, which matters for slow upstream fetches.
type LoadingSpinner struct {
	started    time.Time
	label      string
	labelStyle lipgloss.Style
	spinner    spinner.Model
}

// NewSpinner creates a new loading spinner with the given label.
func NewSpinner(label string) LoadingSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return LoadingSpinner{
		spinner:    s,
		label:      label,
		labelStyle: lipgloss.NewStyle().Foreground(styles.TextSecondary),
	}
}

func (l LoadingSpinner) Init() tea.Cmd {
	return l.spinner.Tick
}

func (l LoadingSpinner) Update(msg tea.Msg) (LoadingSpinner, tea.Cmd) {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

// View renders the spinner glyph only.
func (l LoadingSpinner) View() string {
	return l.spinner.View()
}

// ViewWithLabel renders the spinner followed by its label.
func (l LoadingSpinner) ViewWithLabel() string {
	return l.spinner.View() + " " + l.labelStyle.Render(l.label)
}

// Start records when the wait began.
func (l *LoadingSpinner) Start(now time.Time) {
	l.started = now
}

// Elapsed returns the wait so far, truncated to seconds. It is zero before
// Start.
func (l LoadingSpinner) Elapsed(now time.Time) time.Duration {
	if l.started.IsZero() || now.Before(l.started) {
		return 0
	}
	return now.Sub(l.started).Truncate(time.Second)
}

// ViewWithElapsed renders the labeled spinner and, once a full second has
// passed since Start, the elapsed wait.
func (l LoadingSpinner) ViewWithElapsed(now time.Time) string {
	view := l.ViewWithLabel()
	if d := l.Elapsed(now); d >= time.Second {
		view += l.labelStyle.Render(fmt.Sprintf(" (%s)", d))
	}
	return view
}

func (l *LoadingSpinner) SetLabel(label string) {
	l.label = label
}

func (l LoadingSpinner) Label() string {
	return l.label
}

// Spinner returns the underlying bubbles model.
func (l LoadingSpinner) Spinner() spinner.Model {
	return l.spinner
}

func (l LoadingSpinner) Tick() tea.Cmd {
	return l.spinner.Tick
}

// RenderSpinnerCentered renders the labeled spinner centered in a box.
func RenderSpinnerCentered(s LoadingSpinner, width, height int) string {
	return styles.CenterBoth(s.ViewWithLabel(), width, height)
}
