package models

// Severity classifies how close a quota limit is to exhaustion.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert thresholds, inclusive.
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

// Alert is raised for a quota limit at or above the warning threshold.
type Alert struct {
	TypeLabel  string   `json:"type"`
	Severity   Severity `json:"severity"`
	Percentage float64  `json:"percentage"`
}

// ClassifySeverity maps a usage percentage to a severity.
func ClassifySeverity(percentage float64) Severity {
	switch {
	case percentage >= CriticalThreshold:
		return SeverityCritical
	case percentage >= WarningThreshold:
		return SeverityWarning
	default:
		return SeverityNone
	}
}

// EvaluateAlerts returns one alert per limit at or above the warning
// threshold, in limit order.
func EvaluateAlerts(limits []QuotaLimit) []Alert {
	var alerts []Alert
	for _, l := range limits {
		sev := ClassifySeverity(l.Percentage)
		if sev == SeverityNone {
			continue
		}
		alerts = append(alerts, Alert{
			TypeLabel:  l.Type,
			Percentage: l.Percentage,
			Severity:   sev,
		})
	}
	return alerts
}
