package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/zai-usage-monitor/internal/services"
)

const (
	// DefaultTickInterval paces expiry of toasts and the refresh-age label.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is how long a toast stays up.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for informational toasts.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for errors the user should read.
	LongNotificationDuration = 10 * time.Second

	refreshTimeout = time.Minute
)

// notificationDuration returns how long a toast of type t stays up. Loading
// toasts stay until replaced.
func notificationDuration(t NotificationType) time.Duration {
	switch t {
	case NotificationError:
		return LongNotificationDuration
	case NotificationInfo:
		return QuickNotificationDuration
	case NotificationLoading:
		return 0
	default:
		return DefaultNotificationDuration
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// loadInitialData reads the manager's current snapshot and config without
// touching the network.
func loadInitialData(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		display, ok := mgr.TrayDisplay()
		return UsageLoadedMsg{
			Snapshot: mgr.Snapshot(),
			Tray:     display,
			OK:       ok,
			Config:   mgr.GetConfig(),
		}
	}
}

// refreshUsageCmd fetches a fresh snapshot. The data itself arrives as a
// service event; the returned message only reports completion.
func refreshUsageCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		_, err := mgr.GetUsageData(ctx)
		return RefreshCompleteMsg{Error: err}
	}
}

func saveConfigCmd(mgr *services.Manager, msg SaveConfigMsg) tea.Cmd {
	return func() tea.Msg {
		err := mgr.SaveConfig(msg.AuthToken, msg.BaseURL, msg.RefreshIntervalMinutes)
		return ConfigSavedMsg{
			Config: mgr.GetConfig(),
			Error:  err,
		}
	}
}

// waitForServiceEventCmd blocks on the next service event. A closed channel
// yields nil, which ends the wait loop.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifyCmd queues a toast with the default lifetime for its type.
func notifyCmd(t NotificationType, message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     t,
			Message:  message,
			Duration: notificationDuration(t),
		}
	}
}
