package services

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/zai-usage-monitor/internal/models"
)

// Notifier delivers desktop notifications.
type Notifier interface {
	Notify(title, body string) error
}

// DesktopNotifier sends notifications through the OS notification center.
type DesktopNotifier struct{}

// Notify implements Notifier.
func (DesktopNotifier) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) error { return nil }

func alertMessage(a models.Alert) (title, body string) {
	switch a.Severity {
	case models.SeverityCritical:
		title = "Critical usage: " + a.TypeLabel
	default:
		title = "High usage: " + a.TypeLabel
	}
	body = fmt.Sprintf("%s is at %.1f%% of its limit", a.TypeLabel, a.Percentage)
	return title, body
}

func severityRank(s models.Severity) int {
	switch s {
	case models.SeverityCritical:
		return 2
	case models.SeverityWarning:
		return 1
	default:
		return 0
	}
}
