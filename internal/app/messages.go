package app

import (
	"time"

	"github.com/j-veylop/zai-usage-monitor/internal/config"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
	"github.com/j-veylop/zai-usage-monitor/internal/services"
	"github.com/j-veylop/zai-usage-monitor/internal/tray"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// UsageLoadedMsg carries the manager's current snapshot and config.
type UsageLoadedMsg struct {
	Snapshot *models.AllUsageData
	Tray     tray.Display
	Config   config.Config
	OK       bool
}

// DataUpdatedMsg is forwarded to tabs after a new snapshot was stored.
type DataUpdatedMsg struct {
	Snapshot *models.AllUsageData
}

// ConfigChangedMsg is forwarded to tabs after the config changed.
type ConfigChangedMsg struct {
	Config config.Config
}

// RefreshMsg requests an immediate fetch.
type RefreshMsg struct{}

// RefreshCompleteMsg reports the outcome of a requested fetch.
type RefreshCompleteMsg struct {
	Error error
}

// SaveConfigMsg requests validating and persisting a new config.
type SaveConfigMsg struct {
	AuthToken              string
	BaseURL                string
	RefreshIntervalMinutes int
}

// ConfigSavedMsg reports the outcome of a SaveConfigMsg.
type ConfigSavedMsg struct {
	Error  error
	Config config.Config
}

// TrayActionMsg selects an entry of the tray menu.
type TrayActionMsg struct {
	ID string
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearNotificationsMsg requests clearing all notifications.
type ClearNotificationsMsg struct{}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
