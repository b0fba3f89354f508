// Package settings provides the settings tab: the API token, base URL and
// refresh interval form plus runtime paths and version information.
package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/zai-usage-monitor/internal/app"
)

// formField represents which field is currently focused in the edit form.
type formField int

const (
	fieldToken formField = iota
	fieldBaseURL
	fieldInterval
	fieldSubmit
	fieldCancel
	fieldCount
)

// Paths lists the files the application reads and writes.
type Paths struct {
	ConfigPath   string
	DatabasePath string
	LogPath      string
}

// keyMap defines the key bindings specific to the settings tab.
type keyMap struct {
	Edit   key.Binding
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Escape key.Binding
	Up     key.Binding
	Down   key.Binding
}

// defaultKeyMap returns the default key bindings for the settings tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit settings"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
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

// Model represents the settings tab state.
type Model struct {
	state         *app.State
	paths         Paths
	width         int
	height        int
	keys          keyMap
	viewport      viewport.Model
	editing       bool
	saving        bool
	focusedField  formField
	tokenInput    textinput.Model
	baseURLInput  textinput.Model
	intervalInput textinput.Model
	formError     string
}

// New creates a new settings model.
func New(state *app.State, paths Paths) *Model {
	tokenInput := textinput.New()
	tokenInput.Placeholder = "Paste API token..."
	tokenInput.CharLimit = 500
	tokenInput.Width = 48
	tokenInput.EchoMode = textinput.EchoPassword

	baseURLInput := textinput.New()
	baseURLInput.Placeholder = "https://api.z.ai/api/anthropic"
	baseURLInput.CharLimit = 200
	baseURLInput.Width = 48

	intervalInput := textinput.New()
	intervalInput.Placeholder = "5"
	intervalInput.CharLimit = 4
	intervalInput.Width = 6

	return &Model{
		state:         state,
		paths:         paths,
		keys:          defaultKeyMap(),
		viewport:      viewport.New(0, 0),
		tokenInput:    tokenInput,
		baseURLInput:  baseURLInput,
		intervalInput: intervalInput,
	}
}

// Init initializes the settings tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// CapturingInput reports whether the edit form owns the keyboard.
func (m *Model) CapturingInput() bool {
	return m.editing
}

// Update handles messages for the settings tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if saved, ok := msg.(app.ConfigSavedMsg); ok {
		m.handleConfigSaved(saved)
		return m, nil
	}

	if m.editing {
		return m.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.Edit) {
			return m, m.startEditing()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(keyMsg)
		return m, cmd
	}

	return m, nil
}

// handleConfigSaved closes the form on success and keeps it open with the
// error otherwise.
func (m *Model) handleConfigSaved(msg app.ConfigSavedMsg) {
	if !m.saving {
		return
	}
	m.saving = false
	if msg.Error != nil {
		m.formError = msg.Error.Error()
		return
	}
	m.stopEditing()
}

// startEditing opens the form prefilled with the current config.
func (m *Model) startEditing() tea.Cmd {
	cfg := m.state.GetConfig()
	m.tokenInput.SetValue(cfg.AuthToken)
	m.baseURLInput.SetValue(cfg.BaseURL)
	m.intervalInput.SetValue(strconv.Itoa(cfg.RefreshIntervalMinutes))

	m.editing = true
	m.saving = false
	m.formError = ""
	m.focusedField = fieldToken
	m.updateFormFocus()
	return textinput.Blink
}

func (m *Model) stopEditing() {
	m.editing = false
	m.saving = false
	m.tokenInput.Blur()
	m.baseURLInput.Blur()
	m.intervalInput.Blur()
}

// updateForm handles the edit form.
func (m *Model) updateForm(msg tea.Msg) (app.Tab, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Escape):
			m.stopEditing()
			return m, nil

		case key.Matches(keyMsg, m.keys.Next):
			m.focusedField = (m.focusedField + 1) % fieldCount
			m.updateFormFocus()
			return m, textinput.Blink

		case key.Matches(keyMsg, m.keys.Prev):
			m.focusedField = (m.focusedField - 1 + fieldCount) % fieldCount
			m.updateFormFocus()
			return m, textinput.Blink

		case key.Matches(keyMsg, m.keys.Submit):
			switch m.focusedField {
			case fieldCancel:
				m.stopEditing()
				return m, nil
			case fieldSubmit, fieldInterval:
				return m, m.submit()
			default:
				m.focusedField++
				m.updateFormFocus()
				return m, textinput.Blink
			}
		}
	}

	var cmd tea.Cmd
	switch m.focusedField {
	case fieldToken:
		m.tokenInput, cmd = m.tokenInput.Update(msg)
	case fieldBaseURL:
		m.baseURLInput, cmd = m.baseURLInput.Update(msg)
	case fieldInterval:
		m.intervalInput, cmd = m.intervalInput.Update(msg)
	}
	return m, cmd
}

// submit validates the form and emits a SaveConfigMsg.
func (m *Model) submit() tea.Cmd {
	if m.saving {
		return nil
	}

	interval, err := strconv.Atoi(strings.TrimSpace(m.intervalInput.Value()))
	if err != nil || interval < 1 {
		m.formError = fmt.Sprintf("refresh interval must be a whole number of minutes, got %q", m.intervalInput.Value())
		m.focusedField = fieldInterval
		m.updateFormFocus()
		return nil
	}

	baseURL := strings.TrimSpace(m.baseURLInput.Value())
	if baseURL == "" {
		m.formError = "base URL is required"
		m.focusedField = fieldBaseURL
		m.updateFormFocus()
		return nil
	}

	m.formError = ""
	m.saving = true
	save := app.SaveConfigMsg{
		AuthToken:              strings.TrimSpace(m.tokenInput.Value()),
		BaseURL:                baseURL,
		RefreshIntervalMinutes: interval,
	}
	return func() tea.Msg { return save }
}

// updateFormFocus updates which form field is focused.
func (m *Model) updateFormFocus() {
	m.tokenInput.Blur()
	m.baseURLInput.Blur()
	m.intervalInput.Blur()

	switch m.focusedField {
	case fieldToken:
		m.tokenInput.Focus()
	case fieldBaseURL:
		m.baseURLInput.Focus()
	case fieldInterval:
		m.intervalInput.Focus()
	}
}

// SetSize sets the available size for the settings tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.editing {
		return []key.Binding{m.keys.Next, m.keys.Submit, m.keys.Escape}
	}
	return []key.Binding{m.keys.Edit}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Edit, m.keys.Escape},
		{m.keys.Next, m.keys.Prev, m.keys.Submit},
		{m.keys.Up, m.keys.Down},
	}
}
