package app

import (
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/zai-usage-monitor/internal/config"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
	"github.com/j-veylop/zai-usage-monitor/internal/tray"
)

func testSnapshot(tokenPct, mcpPct float64) *models.AllUsageData {
	return &models.AllUsageData{
		QuotaLimits: []models.QuotaLimit{
			{Type: "Token usage (5 Hour)", Percentage: tokenPct},
			{Type: "MCP usage (1 Month)", Percentage: mcpPct},
		},
		Timestamp: time.Now().Unix(),
	}
}

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if s.GetSnapshot() != nil {
		t.Error("Snapshot should be nil")
	}
	if !s.Loading.Initial {
		t.Error("Initial loading should be true")
	}
	if s.GetConfig().BaseURL != config.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", s.GetConfig().BaseURL)
	}
}

func TestState_SetLoading(t *testing.T) {
	s := NewState()

	s.SetLoading("usage", true)
	if !s.Loading.Usage {
		t.Error("Usage loading should be true")
	}
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true")
	}

	s.SetLoading("usage", false)
	// Initial is still true
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true (Initial is true)")
	}

	s.SetLoading("initial", false)
	if s.AnyLoading() {
		t.Error("AnyLoading should be false")
	}

	s.SetLoading("history", true)
	if !s.AnyLoading() || !s.Loading.History {
		t.Error("history loading should be tracked")
	}
	s.SetLoading("history", false)

	s.SetLoading("bogus", true)
	if s.AnyLoading() {
		t.Error("unknown resource should be ignored")
	}
}

func TestState_SetUsage(t *testing.T) {
	s := NewState()
	s.SetLastError(errors.New("boom"))

	display := tray.Display{Title: "T:80% M:10%"}
	s.SetUsage(testSnapshot(80, 10), display, true)

	if s.IsInitialLoading() {
		t.Error("Initial loading should end with the first snapshot")
	}
	if s.GetLastError() != nil {
		t.Error("A snapshot should clear the last error")
	}
	if s.GetLastUpdated().IsZero() {
		t.Error("LastUpdated should be set")
	}
	got, ok := s.GetTray()
	if !ok || got.Title != display.Title {
		t.Errorf("GetTray = %+v, %v", got, ok)
	}

	alerts := s.GetAlerts()
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Severity != models.SeverityWarning {
		t.Errorf("Severity = %q, want warning", alerts[0].Severity)
	}

	// A nil snapshot must not replace the current one.
	s.SetUsage(nil, tray.Display{}, false)
	if s.GetSnapshot() == nil {
		t.Error("nil snapshot replaced the stored one")
	}
}

func TestState_LastError(t *testing.T) {
	s := NewState()
	err := errors.New("unauthorized")
	s.SetLastError(err)

	if !errors.Is(s.GetLastError(), err) {
		t.Errorf("GetLastError = %v, want %v", s.GetLastError(), err)
	}
	if s.IsInitialLoading() {
		t.Error("An error should end the initial loading phase")
	}
	if s.GetAlerts() != nil {
		t.Error("No alerts without a snapshot")
	}
}

func TestState_Projections(t *testing.T) {
	s := NewState()
	if _, ok := s.GetProjection("Token usage (5 Hour)"); ok {
		t.Error("no projection expected before the first fetch")
	}

	s.SetProjections([]models.Projection{
		{LimitType: "Token usage (5 Hour)", Status: models.ProjectionWarning},
		{LimitType: "MCP usage (1 Month)", Status: models.ProjectionSafe},
	})
	p, ok := s.GetProjection("Token usage (5 Hour)")
	if !ok || p.Status != models.ProjectionWarning {
		t.Errorf("GetProjection = %+v, %v", p, ok)
	}

	s.SetProjections(nil)
	if _, ok := s.GetProjection("Token usage (5 Hour)"); ok {
		t.Error("projections should be replaced, not merged")
	}
}

func TestState_Config(t *testing.T) {
	s := NewState()
	cfg := config.Config{AuthToken: "tok", BaseURL: "https://example", RefreshIntervalMinutes: 3}
	s.SetConfig(cfg)
	if s.GetConfig() != cfg {
		t.Errorf("GetConfig = %+v, want %+v", s.GetConfig(), cfg)
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationInfo, "Test", time.Minute)
	if id == "" {
		t.Error("AddNotification returned empty ID")
	}

	if n := s.GetNotifications(); len(n) != 1 || n[0].Message != "Test" {
		t.Errorf("GetNotifications = %+v", n)
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("Notification was not removed")
	}

	for range maxNotifications + 5 {
		s.AddNotification(NotificationInfo, "spam", 0)
	}
	if got := len(s.GetNotifications()); got != maxNotifications {
		t.Errorf("notification count = %d, want %d", got, maxNotifications)
	}

	s.ClearAllNotifications()
	if len(s.GetNotifications()) != 0 {
		t.Error("ClearAllNotifications left notifications")
	}
}

func TestState_ClearExpiredNotifications(t *testing.T) {
	s := NewState()

	s.AddNotification(NotificationInfo, "Short", time.Nanosecond)
	s.AddNotification(NotificationInfo, "Sticky", 0)

	time.Sleep(time.Millisecond)

	if n := s.GetNotifications(); len(n) != 1 || n[0].Message != "Sticky" {
		t.Errorf("GetNotifications should hide expired entries, got %+v", n)
	}

	s.ClearExpiredNotifications()
	s.mu.RLock()
	count := len(s.notifications)
	s.mu.RUnlock()
	if count != 1 {
		t.Errorf("ClearExpiredNotifications left %d entries, want 1", count)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("Loading...")
	s.SetLoadingNotification("Refreshing...")

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("expected a single loading notification, got %d", len(notifs))
	}
	if notifs[0].ID != LoadingNotificationID || notifs[0].Message != "Refreshing..." {
		t.Errorf("loading notification = %+v", notifs[0])
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("loading notification was not cleared")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		typ  NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationLoading, "loading"},
		{NotificationType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}
