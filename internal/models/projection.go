package models

import (
	"math"
	"time"
)

// ProjectionStatus indicates urgency level for quota exhaustion.
type ProjectionStatus string

const (
	ProjectionSafe     ProjectionStatus = "SAFE"
	ProjectionWarning  ProjectionStatus = "WARNING"
	ProjectionCritical ProjectionStatus = "CRITICAL"
	ProjectionUnknown  ProjectionStatus = "UNKNOWN"
)

const (
	lowConfThreshold = 6
	medConfThreshold = 24

	// windowResetDrop is the fall in percentage between two samples that
	// marks the start of a new quota window.
	windowResetDrop = 5.0

	// maxHoursLeft is the furthest depletion time a time.Duration can hold.
	maxHoursLeft = float64(math.MaxInt64) / float64(time.Hour)
)

// Projection estimates when a quota limit is used up at the current rate.
type Projection struct {
	LimitType         string
	CurrentPercent    float64          // Current quota used %
	Rate              float64          // Consumption in percentage points per hour
	HoursLeft         float64          // Hours until 100% at Rate, +Inf when idle
	DepleteAt         time.Time        // Zero when idle or beyond maxHoursLeft
	ResetTime         time.Time        // Zero when the limit has no reset time
	TimeUntilReset    time.Duration
	WillDepleteBefore bool             // Reaches 100% before ResetTime
	Status            ProjectionStatus // SAFE, WARNING, CRITICAL, UNKNOWN
	Confidence        string           // "low", "medium", "high"
	DataPoints        int
}

// CurrentWindow returns the trailing run of samples after the last window
// reset. samples must be ordered oldest first and belong to one limit.
func CurrentWindow(samples []QuotaSample) []QuotaSample {
	start := 0
	for i := 1; i < len(samples); i++ {
		if samples[i].Percentage < samples[i-1].Percentage-windowResetDrop {
			start = i
		}
	}
	return samples[start:]
}

// ConsumptionRate returns percentage points consumed per hour between the
// first and last sample. It is never negative.
func ConsumptionRate(samples []QuotaSample) float64 {
	if len(samples) < 2 {
		return 0
	}
	first, last := samples[0], samples[len(samples)-1]
	hours := last.Timestamp.Sub(first.Timestamp).Hours()
	if hours <= 0 {
		return 0
	}
	return max((last.Percentage-first.Percentage)/hours, 0)
}

// Project builds the projection for l from samples of the same limit,
// ordered oldest first.
func Project(l QuotaLimit, samples []QuotaSample, now time.Time) Projection {
	window := CurrentWindow(samples)

	p := Projection{
		LimitType:      l.Type,
		CurrentPercent: l.Percentage,
		Rate:           ConsumptionRate(window),
		HoursLeft:      math.Inf(1),
		Status:         ProjectionUnknown,
		DataPoints:     len(window),
	}

	switch {
	case p.DataPoints < lowConfThreshold:
		p.Confidence = "low"
	case p.DataPoints < medConfThreshold:
		p.Confidence = "medium"
	default:
		p.Confidence = "high"
	}

	reset, hasReset := l.ResetTime()
	if hasReset {
		p.ResetTime = reset
		p.TimeUntilReset = max(reset.Sub(now), 0)
	}

	if l.Percentage >= 100 {
		p.HoursLeft = 0
		p.DepleteAt = now
		p.WillDepleteBefore = hasReset
		p.Status = ProjectionCritical
		return p
	}

	if p.Rate > 0 {
		p.HoursLeft = (100 - l.Percentage) / p.Rate
		if p.HoursLeft < maxHoursLeft {
			p.DepleteAt = now.Add(time.Duration(p.HoursLeft * float64(time.Hour)))
		}
	}

	switch {
	case p.DataPoints < 2:
		// Not enough samples to tell.
	case p.DepleteAt.IsZero():
		p.Status = ProjectionSafe
	case hasReset && p.DepleteAt.Before(reset):
		p.WillDepleteBefore = true
		p.Status = ProjectionWarning
		if p.HoursLeft < 1 {
			p.Status = ProjectionCritical
		}
	case hasReset:
		p.Status = ProjectionSafe
	}

	return p
}
