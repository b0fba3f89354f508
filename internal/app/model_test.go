package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/zai-usage-monitor/internal/config"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
	"github.com/j-veylop/zai-usage-monitor/internal/services"
	"github.com/j-veylop/zai-usage-monitor/internal/tray"
)

// fakeTab records the messages it receives.
type fakeTab struct {
	received  []tea.Msg
	capturing bool
}

func (f *fakeTab) Init() tea.Cmd { return nil }

func (f *fakeTab) Update(msg tea.Msg) (Tab, tea.Cmd) {
	f.received = append(f.received, msg)
	return f, nil
}

func (f *fakeTab) View() string { return "fake tab" }

func (f *fakeTab) SetSize(int, int) {}

func (f *fakeTab) ShortHelp() []key.Binding { return nil }

func (f *fakeTab) FullHelp() [][]key.Binding { return nil }

func (f *fakeTab) CapturingInput() bool { return f.capturing }

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func readyModel() *Model {
	model := NewModel(nil)
	model.ready = true
	model.width = 100
	model.height = 30
	return model
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)
	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if model.state == nil {
		t.Error("State should be initialized")
	}
	if model.activeTab != TabDashboard {
		t.Error("Default tab should be Dashboard")
	}
	if len(model.tabs) != 4 {
		t.Errorf("Should have 4 tab placeholders, got %d", len(model.tabs))
	}
	if model.eventChannel != nil {
		t.Error("No subscription expected without a manager")
	}
}

func TestNewModel_Subscribes(t *testing.T) {
	mgr := newTestManager(t)
	model := NewModel(mgr)
	if model.eventChannel == nil {
		t.Fatal("NewModel should subscribe to the manager")
	}
	if model.Init() == nil {
		t.Error("Init returned nil command")
	}
}

func TestModel_Init(t *testing.T) {
	model := NewModel(nil)
	if model.Init() == nil {
		t.Error("Init returned nil command")
	}
	notifs := model.state.GetNotifications()
	if len(notifs) != 1 || notifs[0].Type != NotificationLoading {
		t.Errorf("Init should show a loading notification, got %+v", notifs)
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	model := NewModel(nil)
	newModel, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	m, ok := newModel.(*Model)
	if !ok {
		t.Fatal("Update returned wrong model type")
	}
	if m.width != 100 || m.height != 50 {
		t.Errorf("size = %dx%d, want 100x50", m.width, m.height)
	}
	if !m.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
}

func TestModel_Update_TabSwitch(t *testing.T) {
	model := readyModel()

	model.Update(TabSwitchMsg{Tab: TabHistory})
	if model.activeTab != TabHistory {
		t.Errorf("ActiveTab = %v, want History", model.activeTab)
	}

	cmd, consumed := model.handleKeyMsg(runeKey('2'))
	if cmd == nil || !consumed {
		t.Fatal("Key '2' should return a consumed command")
	}
	msg, ok := cmd().(TabSwitchMsg)
	if !ok || msg.Tab != TabTools {
		t.Errorf("Key '2' produced %+v, want TabSwitchMsg{Tools}", msg)
	}

	cmd, _ = model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyTab})
	if msg := cmd().(TabSwitchMsg); msg.Tab != TabSettings {
		t.Errorf("next tab from History = %v, want Settings", msg.Tab)
	}

	model.activeTab = TabDashboard
	cmd, _ = model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyShiftTab})
	if msg := cmd().(TabSwitchMsg); msg.Tab != TabSettings {
		t.Errorf("prev tab from Dashboard = %v, want Settings", msg.Tab)
	}
}

func TestModel_TabSwitchReachesNewTab(t *testing.T) {
	model := readyModel()
	tabs := []Tab{&fakeTab{}, &fakeTab{}, &fakeTab{}, &fakeTab{}}
	model.SetTabs(tabs)

	model.Update(TabSwitchMsg{Tab: TabHistory})

	history := tabs[TabHistory].(*fakeTab)
	if len(history.received) != 1 {
		t.Fatalf("history tab received %d msgs, want 1", len(history.received))
	}
	if _, ok := history.received[0].(TabSwitchMsg); !ok {
		t.Errorf("history tab received %T, want TabSwitchMsg", history.received[0])
	}
}

func TestModel_InputCapture(t *testing.T) {
	model := readyModel()
	settings := &fakeTab{capturing: true}
	model.SetTabs([]Tab{&fakeTab{}, &fakeTab{}, &fakeTab{}, settings})
	model.activeTab = TabSettings

	for _, r := range "q1m?" {
		_, cmd := model.Update(runeKey(r))
		if cmd != nil {
			if _, ok := cmd().(tea.QuitMsg); ok {
				t.Fatalf("key %q quit while the tab captures input", r)
			}
		}
	}

	if model.activeTab != TabSettings {
		t.Error("tab switched while capturing input")
	}
	if model.showMenu || model.showHelp {
		t.Error("overlays opened while capturing input")
	}
	if len(settings.received) != 4 {
		t.Errorf("settings tab received %d keys, want 4", len(settings.received))
	}

	cmd, consumed := model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !consumed {
		t.Fatal("ctrl+c should always be handled")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}

func TestModel_Update_Tick(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(TickMsg{Time: time.Now()})
	if cmd == nil {
		t.Error("TickMsg should return a command (next tick)")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil)
	model.width = 80

	if view := model.View(); !strings.Contains(view, "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	model.ready = true
	model.height = 24

	view := model.View()
	for _, name := range []string{"Dashboard", "Tools", "History", "Settings"} {
		if !strings.Contains(view, name) {
			t.Errorf("View should show %s tab", name)
		}
	}
	if !strings.Contains(view, "not yet implemented") {
		t.Error("View should show placeholder text")
	}
}

func TestModel_Help(t *testing.T) {
	model := readyModel()

	model.Update(ToggleHelpMsg{})
	if !model.showHelp {
		t.Error("showHelp should be true")
	}
	if !strings.Contains(model.View(), "Keyboard Shortcuts") {
		t.Error("View should show help modal")
	}

	model.handleKeyMsg(runeKey('?'))
	if model.showHelp {
		t.Error("showHelp should be false after toggle")
	}

	model.showHelp = true
	model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEsc})
	if model.showHelp {
		t.Error("Esc should close help")
	}
}

func TestModel_Notifications(t *testing.T) {
	model := readyModel()

	model.Update(AddNotificationMsg{Message: "Test Note", Type: NotificationInfo})

	if len(model.state.GetNotifications()) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(model.state.GetNotifications()))
	}
	if !strings.Contains(model.View(), "Test Note") {
		t.Error("View should show notification")
	}

	model.Update(ClearNotificationsMsg{})
	if len(model.state.GetNotifications()) != 0 {
		t.Error("ClearNotificationsMsg should remove notifications")
	}
}

func TestModel_HandleServiceEvent_DataUpdated(t *testing.T) {
	model := NewModel(nil)
	model.state.SetLoadingNotification("Loading...")

	cmds := model.handleServiceEvent(services.RefreshingEvent{})
	if cmds != nil {
		t.Error("RefreshingEvent should not produce commands")
	}
	if !model.state.Loading.Usage {
		t.Error("RefreshingEvent should mark usage as loading")
	}

	projections := []models.Projection{{LimitType: "Token usage (5 Hour)", Status: models.ProjectionSafe}}
	cmds = model.handleServiceEvent(services.DataUpdatedEvent{
		Snapshot:    testSnapshot(42.6, 12),
		Tray:        tray.Display{Title: "T:43% M:12%"},
		Projections: projections,
		OK:          true,
	})
	if _, ok := model.state.GetProjection("Token usage (5 Hour)"); !ok {
		t.Error("projections should be stored with the snapshot")
	}
	if len(cmds) != 2 {
		t.Fatalf("DataUpdatedEvent should forward data and set the title, got %d cmds", len(cmds))
	}
	if _, ok := cmds[0]().(DataUpdatedMsg); !ok {
		t.Error("first command should forward DataUpdatedMsg")
	}
	if model.state.GetSnapshot() == nil {
		t.Error("snapshot should be stored")
	}
	if model.state.AnyLoading() {
		t.Errorf("loading should be finished, got %+v", model.state.Loading)
	}
	if len(model.state.GetNotifications()) != 0 {
		t.Error("loading notification should be cleared")
	}
}

func TestModel_HandleServiceEvent_Alert(t *testing.T) {
	model := NewModel(nil)

	tests := []struct {
		severity models.Severity
		want     NotificationType
	}{
		{models.SeverityWarning, NotificationWarning},
		{models.SeverityCritical, NotificationError},
	}
	for _, tt := range tests {
		cmds := model.handleServiceEvent(services.AlertEvent{
			TypeLabel:  "Token usage (5 Hour)",
			Severity:   tt.severity,
			Percentage: 91.25,
		})
		if len(cmds) != 1 {
			t.Fatalf("expected one command, got %d", len(cmds))
		}
		msg := cmds[0]().(AddNotificationMsg)
		if msg.Type != tt.want {
			t.Errorf("%s alert type = %v, want %v", tt.severity, msg.Type, tt.want)
		}
		if !strings.Contains(msg.Message, "Token usage (5 Hour)") {
			t.Errorf("alert message %q lacks the limit label", msg.Message)
		}
	}
}

func TestModel_HandleServiceEvent_Error(t *testing.T) {
	model := NewModel(nil)
	err := errors.New("http status 401")

	cmds := model.handleServiceEvent(services.ErrorEvent{Service: "usage", Error: err})
	if len(cmds) != 1 {
		t.Fatal("ErrorEvent should trigger a notification")
	}
	msg := cmds[0]().(AddNotificationMsg)
	if msg.Type != NotificationError || !strings.Contains(msg.Message, "401") {
		t.Errorf("notification = %+v", msg)
	}
	if !errors.Is(model.state.GetLastError(), err) {
		t.Error("usage errors should be recorded")
	}
	if model.state.IsInitialLoading() {
		t.Error("an error should end the initial loading phase")
	}

	model.handleServiceEvent(services.ErrorEvent{Service: "config", Error: errors.New("bad json")})
	if !errors.Is(model.state.GetLastError(), err) {
		t.Error("config errors should not replace the fetch error")
	}
}

func TestModel_HandleServiceEvent_ConfigChanged(t *testing.T) {
	model := NewModel(nil)
	cfg := config.Config{AuthToken: "abc", RefreshIntervalMinutes: 7}

	cmds := model.handleServiceEvent(services.ConfigChangedEvent{Config: cfg})
	if model.state.GetConfig() != cfg {
		t.Error("config should be stored")
	}
	if len(cmds) != 1 {
		t.Fatal("ConfigChangedEvent should forward a message")
	}
	if msg, ok := cmds[0]().(ConfigChangedMsg); !ok || msg.Config != cfg {
		t.Errorf("forwarded %+v", msg)
	}
}

func TestModel_ServiceEventRewaits(t *testing.T) {
	model := NewModel(nil)
	model.eventChannel = make(chan services.ServiceEvent, 1)

	cmds := model.handleAppMsg(ServiceEventMsg{Event: services.RefreshingEvent{}})
	if len(cmds) != 1 {
		t.Errorf("expected a wait command, got %d cmds", len(cmds))
	}
}

func TestModel_UsageLoaded(t *testing.T) {
	model := NewModel(nil)
	cfg := config.Config{AuthToken: "tok", RefreshIntervalMinutes: 5}

	model.Update(UsageLoadedMsg{Config: cfg})
	if model.state.GetConfig() != cfg {
		t.Error("config should be stored")
	}
	if !model.state.IsInitialLoading() {
		t.Error("initial loading should continue without a snapshot")
	}

	model.Update(UsageLoadedMsg{
		Snapshot: testSnapshot(1, 2),
		Tray:     tray.Display{Title: "T:1% M:2%"},
		OK:       true,
		Config:   cfg,
	})
	if model.state.IsInitialLoading() {
		t.Error("initial loading should end with a snapshot")
	}
}

func TestModel_Update_Messages(t *testing.T) {
	model := NewModel(nil)

	model.Update(StartLoadingMsg{Resource: "history"})
	if !model.state.Loading.History {
		t.Error("Loading.History should be true")
	}

	model.Update(StopLoadingMsg{Resource: "history"})
	if model.state.Loading.History {
		t.Error("Loading.History should be false")
	}

	// No manager: refresh is a no-op.
	model.Update(RefreshMsg{})
	if model.state.Loading.Usage {
		t.Error("RefreshMsg without a manager should not start loading")
	}

	model.Update(RefreshCompleteMsg{})
	notifs := model.state.GetNotifications()
	if len(notifs) == 0 || notifs[len(notifs)-1].Type != NotificationSuccess {
		t.Error("a successful refresh should add a success notification")
	}

	model.Update(ErrorMsg{Error: errors.New("fail"), Context: "history"})
	notifs = model.state.GetNotifications()
	if last := notifs[len(notifs)-1]; last.Type != NotificationError || last.Message != "history: fail" {
		t.Errorf("ErrorMsg notification = %+v", last)
	}

	model.Update(RemoveNotificationMsg{ID: "nonexistent"})
	model.Update(ClearExpiredNotificationsMsg{})
}

func TestModel_ConfigSaved(t *testing.T) {
	model := NewModel(nil)

	cmd := model.handleConfigSaved(ConfigSavedMsg{Error: errors.New("disk full")})
	msg := cmd().(AddNotificationMsg)
	if msg.Type != NotificationError {
		t.Errorf("failed save should notify an error, got %v", msg.Type)
	}

	cfg := config.Config{AuthToken: "new", RefreshIntervalMinutes: 2}
	if model.handleConfigSaved(ConfigSavedMsg{Config: cfg}) == nil {
		t.Fatal("successful save should return commands")
	}
	if model.state.GetConfig() != cfg {
		t.Error("saved config should be stored")
	}
}

func TestModel_TrayMenu(t *testing.T) {
	model := readyModel()

	model.Update(runeKey('m'))
	if !model.IsMenuOpen() {
		t.Fatal("'m' should open the tray menu")
	}
	items := model.menuItems()
	if items[model.menuCursor].ID != tray.ItemShow {
		t.Errorf("cursor starts on %q, want show", items[model.menuCursor].ID)
	}
	if !strings.Contains(model.View(), "Refresh Now") {
		t.Error("View should render the menu")
	}

	// Keys go to the menu, not to tab switching.
	model.Update(runeKey('2'))
	if model.activeTab != TabDashboard {
		t.Error("tab switched while the menu is open")
	}

	model.Update(tea.KeyMsg{Type: tea.KeyDown})
	if items[model.menuCursor].ID != tray.ItemHide {
		t.Errorf("cursor = %q, want hide", items[model.menuCursor].ID)
	}

	cmd, _ := model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEnter})
	if model.IsMenuOpen() {
		t.Error("enter should close the menu")
	}
	action, ok := cmd().(TrayActionMsg)
	if !ok || action.ID != tray.ItemHide {
		t.Fatalf("enter produced %+v, want hide action", action)
	}

	model.Update(action)
	if !model.IsCompact() {
		t.Fatal("hide should switch to the compact view")
	}
	if view := model.View(); !strings.Contains(view, "T:--% M:--%") || strings.Contains(view, "Dashboard") {
		t.Errorf("compact view = %q", view)
	}

	model.Update(TrayActionMsg{ID: tray.ItemShow})
	if model.IsCompact() {
		t.Error("show should restore the full view")
	}
}

func TestModel_TrayMenu_WithStats(t *testing.T) {
	model := readyModel()
	model.state.SetUsage(testSnapshot(80, 5), tray.Display{Title: "T:80% M:5%", MenuLabel: "Tokens: 80.0% | MCP: 5.0%"}, true)

	model.openMenu()
	items := model.menuItems()
	if items[0].ID != tray.ItemStats {
		t.Fatalf("first item = %q, want stats", items[0].ID)
	}
	if items[model.menuCursor].ID != tray.ItemShow {
		t.Errorf("cursor should skip the disabled stats row, got %q", items[model.menuCursor].ID)
	}

	model.moveMenuCursor(-1)
	if items[model.menuCursor].ID != tray.ItemQuit {
		t.Errorf("moving up from show should wrap to quit, got %q", items[model.menuCursor].ID)
	}

	model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.IsMenuOpen() {
		t.Error("esc should close the menu")
	}

	model.compact = true
	if view := model.View(); !strings.Contains(view, "T:80% M:5%") {
		t.Errorf("compact view should show the tray title, got %q", view)
	}
}

func TestModel_TrayActions(t *testing.T) {
	model := NewModel(nil)

	cmd := model.handleTrayAction(tray.ItemRefresh)
	if _, ok := cmd().(RefreshMsg); !ok {
		t.Error("refresh action should request a refresh")
	}

	cmd = model.handleTrayAction(tray.ItemQuit)
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit action should quit")
	}

	if model.handleTrayAction(tray.ItemStats) != nil {
		t.Error("stats row should do nothing")
	}
}

func TestModel_CompactIgnoresKeys(t *testing.T) {
	model := readyModel()
	model.compact = true

	cmd, consumed := model.handleKeyMsg(runeKey('2'))
	if cmd != nil || !consumed {
		t.Error("tab keys should be ignored in compact mode")
	}
	cmd, _ = model.handleKeyMsg(runeKey('q'))
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should still quit in compact mode")
	}
}

func TestModel_HandleSpinnerTick(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Spinner tick should return command")
	}
}

func TestTabID_String(t *testing.T) {
	tests := map[TabID]string{
		TabDashboard: "Dashboard",
		TabTools:     "Tools",
		TabHistory:   "History",
		TabSettings:  "Settings",
		TabID(999):   "Unknown",
	}
	for id, want := range tests {
		if got := id.String(); got != want {
			t.Errorf("TabID(%d).String() = %q, want %q", id, got, want)
		}
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(km.FullHelp()) != 4 {
		t.Errorf("FullHelp has %d groups, want 4", len(km.FullHelp()))
	}
}
