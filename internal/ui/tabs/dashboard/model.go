// Package dashboard provides the main dashboard tab with quota bars, alerts
// and model usage.
package dashboard

import (
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/zai-usage-monitor/internal/app"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/components"
)

type animationTickMsg time.Time

func animationTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

const animationDuration = 1.5 // seconds

// SortMode orders the model usage table.
type SortMode int

const (
	SortByTokens SortMode = iota
	SortByRequests
	SortByName
)

// String returns the column name the mode sorts by.
func (s SortMode) String() string {
	switch s {
	case SortByTokens:
		return "tokens"
	case SortByRequests:
		return "requests"
	case SortByName:
		return "name"
	default:
		return "unknown"
	}
}

// Next cycles to the next sort mode.
func (s SortMode) Next() SortMode {
	return (s + 1) % 3
}

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	Sort       key.Binding
	Refresh    key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort models"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// AnimationState tracks the state of an animation.
type AnimationState struct {
	StartTime      time.Time
	CurrentPercent float64
	TargetPercent  float64
	StartPercent   float64
}

// Model represents the dashboard tab state.
type Model struct {
	state          *app.State
	animations     map[string]*AnimationState
	now            func() time.Time
	spinner        components.LoadingSpinner
	keys           keyMap
	viewport       viewport.Model
	quotaBar       components.QuotaBar
	resetBar       components.ResetBar
	width          int
	height         int
	sortMode       SortMode
	animationFrame int
}

// New creates a new dashboard model.
func New(state *app.State) *Model {
	return &Model{
		state:      state,
		spinner:    components.NewSpinner("Fetching usage..."),
		quotaBar:   components.NewQuotaBar(),
		resetBar:   components.NewResetBar(),
		keys:       defaultKeyMap(),
		viewport:   viewport.New(0, 0),
		animations: make(map[string]*AnimationState),
		now:        time.Now,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.spinner.Start(m.now())
	return tea.Batch(m.spinner.Init(), animationTickCmd())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case animationTickMsg:
		cmds = append(cmds, m.handleAnimationTick(msg))

	case app.StartLoadingMsg, app.DataUpdatedMsg, app.TabSwitchMsg, app.UsageLoadedMsg:
		m.syncAnimationTargets(m.now())
		cmds = append(cmds, animationTickCmd())

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAnimationTick(msg animationTickMsg) tea.Cmd {
	m.animationFrame++
	now := time.Time(msg)

	m.syncAnimationTargets(now)
	m.stepAnimations(now)

	if m.animating() || m.state.IsInitialLoading() {
		return animationTickCmd()
	}
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Sort) {
		m.sortMode = m.sortMode.Next()
		return nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// syncAnimationTargets points each limit's animation at its latest
// percentage.
func (m *Model) syncAnimationTargets(now time.Time) {
	snapshot := m.state.GetSnapshot()
	if snapshot == nil {
		return
	}

	for _, l := range snapshot.QuotaLimits {
		m.updateAnimationState(l.Type, components.ClampPercent(l.Percentage), now)
	}
}

func (m *Model) updateAnimationState(animKey string, target float64, now time.Time) {
	state, exists := m.animations[animKey]
	if !exists {
		state = &AnimationState{StartTime: now}
		m.animations[animKey] = state
	}

	if target != state.TargetPercent {
		state.StartPercent = state.CurrentPercent
		state.TargetPercent = target
		state.StartTime = now
	}
}

func (m *Model) animating() bool {
	for _, state := range m.animations {
		if state.CurrentPercent != state.TargetPercent {
			return true
		}
	}
	return false
}

func (m *Model) stepAnimations(now time.Time) {
	for _, state := range m.animations {
		if state.CurrentPercent == state.TargetPercent {
			continue
		}
		elapsed := now.Sub(state.StartTime).Seconds()
		if elapsed >= animationDuration {
			state.CurrentPercent = state.TargetPercent
			continue
		}
		progress := elapsed / animationDuration
		ease := 1.0 - (1.0-progress)*(1.0-progress)
		state.CurrentPercent = state.StartPercent + (state.TargetPercent-state.StartPercent)*ease
	}
}

// displayPercent returns the animated percentage for a limit, falling back
// to its real value before the first animation frame.
func (m *Model) displayPercent(l models.QuotaLimit) float64 {
	if anim, ok := m.animations[l.Type]; ok && anim.TargetPercent == components.ClampPercent(l.Percentage) {
		return anim.CurrentPercent
	}
	return l.Percentage
}

// SortModels returns a sorted copy of items. Ties keep the API order.
func SortModels(items []models.ModelUsageItem, mode SortMode) []models.ModelUsageItem {
	out := append([]models.ModelUsageItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		switch mode {
		case SortByRequests:
			return out[i].RequestCount > out[j].RequestCount
		case SortByName:
			return strings.ToLower(out[i].Model) < strings.ToLower(out[j].Model)
		default:
			return out[i].TokenCount > out[j].TokenCount
		}
	})
	return out
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
		{m.keys.Sort, m.keys.Refresh},
		{m.keys.ScrollUp, m.keys.ScrollDown},
	}
}
