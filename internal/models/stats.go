// Package models defines data structures and domain types.
package models

import "time"

// HourlyStats represents API call statistics grouped by hour.
type HourlyStats struct {
	Hour          time.Time
	TotalCalls    int
	TotalBytes    int64
	AvgDurationMs float64
	ErrorCount    int
}

// TotalStats represents overall aggregated API call statistics.
type TotalStats struct {
	LastCall      time.Time
	TotalCalls    int
	TotalPolls    int
	TotalBytes    int64
	AvgDurationMs float64
	ErrorCount    int
}

// ErrorRate returns the share of failed calls in percent.
func (s *TotalStats) ErrorRate() float64 {
	if s == nil || s.TotalCalls == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.TotalCalls) * 100
}
