// Package models defines data structures and domain types.
package models

import "time"

// TimeRange represents the selected history time range.
type TimeRange int

const (
	// TimeRange24Hours shows data from the last 24 hours.
	TimeRange24Hours TimeRange = iota
	// TimeRange7Days shows data from the last 7 days.
	TimeRange7Days
	// TimeRange30Days shows data from the last 30 days.
	TimeRange30Days
	// TimeRangeAllTime shows all available historical data.
	TimeRangeAllTime
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange24Hours:
		return "24 Hours"
	case TimeRange7Days:
		return "7 Days"
	case TimeRange30Days:
		return "30 Days"
	case TimeRangeAllTime:
		return "All Time"
	default:
		return "Unknown"
	}
}

// Days returns the number of days for the time range (0 = unlimited).
func (t TimeRange) Days() int {
	switch t {
	case TimeRange24Hours:
		return 1
	case TimeRange7Days:
		return 7
	case TimeRange30Days:
		return 30
	case TimeRangeAllTime:
		return 0
	default:
		return 30
	}
}

// Since returns the start of the range relative to now (zero = unlimited).
func (t TimeRange) Since(now time.Time) time.Time {
	days := t.Days()
	if days == 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -days)
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 4
}

// QuotaSample is one recorded quota reading (DB model).
type QuotaSample struct {
	Timestamp     time.Time
	PollID        string
	LimitType     string
	ID            int64
	CurrentValue  int64
	Usage         int64
	NextResetTime int64
	Percentage    float64
}

// QuotaSeries is the sample history for one limit type.
type QuotaSeries struct {
	LimitType   string
	Samples     []QuotaSample
	Peak        float64
	Average     float64
	AlertsCount int
}

// Percentages returns the sample percentages in time order.
func (s *QuotaSeries) Percentages() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Percentage
	}
	return out
}

// HistoryStats contains the quota history shown in the history view.
type HistoryStats struct {
	FirstDataPoint time.Time
	LastDataPoint  time.Time
	Calls          *TotalStats
	Series         []QuotaSeries
	TotalPolls     int
	TimeRange      TimeRange
}

// HasData returns true if any samples were recorded.
func (h *HistoryStats) HasData() bool {
	if h == nil {
		return false
	}
	for _, s := range h.Series {
		if len(s.Samples) > 0 {
			return true
		}
	}
	return false
}

// PeakSeries returns the limit type with the highest peak percentage.
func (h *HistoryStats) PeakSeries() (limitType string, peak float64) {
	if h == nil || len(h.Series) == 0 {
		return "Unknown", 0
	}
	for _, s := range h.Series {
		if limitType == "" || s.Peak > peak {
			limitType = s.LimitType
			peak = s.Peak
		}
	}
	return limitType, peak
}

// BuildSeries groups samples by limit type, preserving the order in which
// each type first appears. Samples must be sorted by time.
func BuildSeries(samples []QuotaSample) []QuotaSeries {
	var order []string
	byType := make(map[string]*QuotaSeries)

	for _, smp := range samples {
		s, ok := byType[smp.LimitType]
		if !ok {
			s = &QuotaSeries{LimitType: smp.LimitType}
			byType[smp.LimitType] = s
			order = append(order, smp.LimitType)
		}
		s.Samples = append(s.Samples, smp)
	}

	out := make([]QuotaSeries, 0, len(order))
	for _, name := range order {
		s := byType[name]
		var sum float64
		for _, smp := range s.Samples {
			sum += smp.Percentage
			if smp.Percentage > s.Peak {
				s.Peak = smp.Percentage
			}
			if ClassifySeverity(smp.Percentage) != SeverityNone {
				s.AlertsCount++
			}
		}
		s.Average = sum / float64(len(s.Samples))
		out = append(out, *s)
	}
	return out
}
