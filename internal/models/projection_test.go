package models

import (
	"math"
	"testing"
	"time"
)

func samplesAt(start time.Time, step time.Duration, percents ...float64) []QuotaSample {
	out := make([]QuotaSample, len(percents))
	for i, p := range percents {
		out[i] = QuotaSample{
			Timestamp:  start.Add(time.Duration(i) * step),
			LimitType:  "Token usage (5 Hour)",
			Percentage: p,
		}
	}
	return out
}

func TestProjectionStatus_Constants(t *testing.T) {
	statuses := []ProjectionStatus{
		ProjectionSafe,
		ProjectionWarning,
		ProjectionCritical,
		ProjectionUnknown,
	}

	seen := make(map[ProjectionStatus]bool)
	for _, s := range statuses {
		if seen[s] {
			t.Errorf("duplicate status %q", s)
		}
		seen[s] = true
	}
}

func TestCurrentWindow(t *testing.T) {
	start := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		percent []float64
		want    int
	}{
		{"empty", nil, 0},
		{"single", []float64{10}, 1},
		{"rising", []float64{10, 20, 30}, 3},
		{"small dip kept", []float64{10, 20, 17, 30}, 4},
		{"reset", []float64{60, 80, 2, 5}, 2},
		{"two resets", []float64{60, 1, 40, 3, 4}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CurrentWindow(samplesAt(start, time.Minute, tt.percent...))
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestConsumptionRate(t *testing.T) {
	start := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

	if got := ConsumptionRate(samplesAt(start, 30*time.Minute, 10, 20, 30)); got != 20 {
		t.Errorf("rate = %v, want 20 per hour", got)
	}
	if got := ConsumptionRate(samplesAt(start, time.Hour, 30)); got != 0 {
		t.Errorf("single sample rate = %v, want 0", got)
	}
	if got := ConsumptionRate(samplesAt(start, time.Hour, 30, 28)); got != 0 {
		t.Errorf("falling rate = %v, want 0", got)
	}
	if got := ConsumptionRate(samplesAt(start, 0, 10, 20)); got != 0 {
		t.Errorf("zero span rate = %v, want 0", got)
	}
}

func TestProject(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	resetIn := func(d time.Duration) *int64 {
		ms := now.Add(d).UnixMilli()
		return &ms
	}

	tests := []struct {
		name       string
		limit      QuotaLimit
		samples    []QuotaSample
		wantStatus ProjectionStatus
		wantBefore bool
		wantConf   string
	}{
		{
			name:       "no samples",
			limit:      QuotaLimit{Type: "Token usage (5 Hour)", Percentage: 40, NextResetTime: resetIn(time.Hour)},
			wantStatus: ProjectionUnknown,
			wantConf:   "low",
		},
		{
			// 10 points per hour, 60 left, reset in 2h
			name:       "safe",
			limit:      QuotaLimit{Type: "Token usage (5 Hour)", Percentage: 40, NextResetTime: resetIn(2 * time.Hour)},
			samples:    samplesAt(now.Add(-2*time.Hour), time.Hour, 20, 30, 40),
			wantStatus: ProjectionSafe,
			wantConf:   "low",
		},
		{
			// 30 points per hour, 20 left, reset in 3h
			name:       "critical",
			limit:      QuotaLimit{Type: "Token usage (5 Hour)", Percentage: 80, NextResetTime: resetIn(3 * time.Hour)},
			samples:    samplesAt(now.Add(-2*time.Hour), time.Hour, 20, 50, 80),
			wantStatus: ProjectionCritical,
			wantBefore: true,
			wantConf:   "low",
		},
		{
			// 20 points per hour, 60 left, reset in 4h
			name:       "warning",
			limit:      QuotaLimit{Type: "Token usage (5 Hour)", Percentage: 40, NextResetTime: resetIn(4 * time.Hour)},
			samples:    samplesAt(now.Add(-time.Hour), 30*time.Minute, 20, 30, 40),
			wantStatus: ProjectionWarning,
			wantBefore: true,
			wantConf:   "low",
		},
		{
			name:       "idle",
			limit:      QuotaLimit{Type: "Token usage (5 Hour)", Percentage: 40},
			samples:    samplesAt(now.Add(-time.Hour), 10*time.Minute, 40, 40, 40, 40, 40, 40, 40),
			wantStatus: ProjectionSafe,
			wantConf:   "medium",
		},
		{
			name:       "exhausted",
			limit:      QuotaLimit{Type: "Token usage (5 Hour)", Percentage: 100, NextResetTime: resetIn(time.Hour)},
			wantStatus: ProjectionCritical,
			wantBefore: true,
			wantConf:   "low",
		},
		{
			// 0.01 points over 29 days on a monthly limit, reset in a day
			name:       "nearly idle month",
			limit:      QuotaLimit{Type: "MCP usage (1 Month)", Percentage: 1.01, NextResetTime: resetIn(24 * time.Hour)},
			samples:    samplesAt(now.Add(-29*24*time.Hour), 29*24*time.Hour, 1.00, 1.01),
			wantStatus: ProjectionSafe,
			wantConf:   "low",
		},
		{
			name:       "consuming without reset time",
			limit:      QuotaLimit{Type: "Token usage (5 Hour)", Percentage: 40},
			samples:    samplesAt(now.Add(-time.Hour), time.Hour, 20, 40),
			wantStatus: ProjectionUnknown,
			wantConf:   "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project(tt.limit, tt.samples, now)
			if p.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", p.Status, tt.wantStatus)
			}
			if p.WillDepleteBefore != tt.wantBefore {
				t.Errorf("WillDepleteBefore = %v, want %v", p.WillDepleteBefore, tt.wantBefore)
			}
			if p.Confidence != tt.wantConf {
				t.Errorf("Confidence = %s, want %s", p.Confidence, tt.wantConf)
			}
			if p.LimitType != tt.limit.Type {
				t.Errorf("LimitType = %q", p.LimitType)
			}
		})
	}
}

func TestProject_Depletion(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	limit := QuotaLimit{Type: "Token usage (5 Hour)", Percentage: 50}

	p := Project(limit, samplesAt(now.Add(-time.Hour), time.Hour, 25, 50), now)
	if p.Rate != 25 {
		t.Fatalf("Rate = %v, want 25", p.Rate)
	}
	if p.HoursLeft != 2 {
		t.Errorf("HoursLeft = %v, want 2", p.HoursLeft)
	}
	if !p.DepleteAt.Equal(now.Add(2 * time.Hour)) {
		t.Errorf("DepleteAt = %v", p.DepleteAt)
	}

	idle := Project(limit, nil, now)
	if !math.IsInf(idle.HoursLeft, 1) || !idle.DepleteAt.IsZero() {
		t.Errorf("idle projection = %+v", idle)
	}
}

func TestProject_UsesCurrentWindow(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	limit := QuotaLimit{Type: "Token usage (5 Hour)", Percentage: 10}

	// The climb to 90 belongs to the previous window.
	p := Project(limit, samplesAt(now.Add(-3*time.Hour), time.Hour, 30, 90, 5, 10), now)
	if p.DataPoints != 2 {
		t.Errorf("DataPoints = %d, want 2", p.DataPoints)
	}
	if p.Rate != 5 {
		t.Errorf("Rate = %v, want 5", p.Rate)
	}
}

func TestProject_DepletionBeyondDurationRange(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	samples := samplesAt(now.Add(-29*24*time.Hour), 29*24*time.Hour, 1.00, 1.01)

	for _, l := range []QuotaLimit{
		{Type: "MCP usage (1 Month)", Percentage: 1.01},
		{Type: "MCP usage (1 Month)", Percentage: 1.01, NextResetTime: func() *int64 {
			ms := now.Add(24 * time.Hour).UnixMilli()
			return &ms
		}()},
	} {
		p := Project(l, samples, now)
		if p.Rate <= 0 || p.HoursLeft < maxHoursLeft || math.IsInf(p.HoursLeft, 1) {
			t.Fatalf("Rate = %v, HoursLeft = %v, want a tiny rate far beyond range", p.Rate, p.HoursLeft)
		}
		if !p.DepleteAt.IsZero() {
			t.Errorf("DepleteAt = %v, want zero", p.DepleteAt)
		}
		if p.WillDepleteBefore || p.Status != ProjectionSafe {
			t.Errorf("Status = %s, WillDepleteBefore = %v, want SAFE and false", p.Status, p.WillDepleteBefore)
		}
	}
}
