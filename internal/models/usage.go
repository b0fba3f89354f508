// Package models defines data structures and domain types.
package models

import (
	"strings"
	"time"
)

// AllModelsLabel is the model name of the single aggregate model-usage item.
const AllModelsLabel = "All Models"

// ModelUsageItem is one row of model token usage.
type ModelUsageItem struct {
	Model        string `json:"model"`
	TokenCount   int64  `json:"token_count"`
	RequestCount int64  `json:"request_count"`
}

// ModelUsageTimeSeries holds parallel per-bucket series. A nil entry is a
// bucket with no data and is distinct from zero.
type ModelUsageTimeSeries struct {
	XTime          []string `json:"x_time"`
	ModelCallCount []*int64 `json:"modelCallCount"`
	TokensUsage    []*int64 `json:"tokensUsage"`
}

// Len returns the number of time buckets.
func (s *ModelUsageTimeSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.XTime)
}

// ModelUsageResult is the normalized model-usage response.
type ModelUsageResult struct {
	Timeseries *ModelUsageTimeSeries `json:"timeseries"`
	Items      []ModelUsageItem      `json:"items"`
}

// ToolUsageItem is one row of tool usage.
type ToolUsageItem struct {
	ToolName   string `json:"tool_name"`
	UsageCount int64  `json:"usage_count"`
}

// UsageDetail is a per-tool breakdown inside a quota limit.
type UsageDetail struct {
	ToolName string `json:"tool_name"`
	Usage    int64  `json:"usage"`
}

// QuotaLimit is one quota record. Type carries the relabeled display name.
type QuotaLimit struct {
	Usage         *int64        `json:"usage"`
	CurrentValue  *int64        `json:"currentValue"`
	Remaining     *int64        `json:"remaining"`
	NextResetTime *int64        `json:"nextResetTime"`
	Type          string        `json:"type"`
	UsageDetails  []UsageDetail `json:"usageDetails"`
	Unit          int64         `json:"unit"`
	Number        int64         `json:"number"`
	Percentage    float64       `json:"percentage"`
}

// Quota window unit codes.
const (
	UnitHour  = 3
	UnitMonth = 5
)

// Window returns the length of the quota window, or 0 for an unknown unit.
// A month counts as 30 days.
func (l QuotaLimit) Window() time.Duration {
	switch l.Unit {
	case UnitHour:
		return time.Duration(l.Number) * time.Hour
	case UnitMonth:
		return time.Duration(l.Number) * 30 * 24 * time.Hour
	default:
		return 0
	}
}

// ResetTime returns the next reset instant. NextResetTime is in epoch
// milliseconds.
func (l QuotaLimit) ResetTime() (time.Time, bool) {
	if l.NextResetTime == nil || *l.NextResetTime <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(*l.NextResetTime), true
}

// AllUsageData is one complete usage snapshot.
type AllUsageData struct {
	ModelUsageTimeseries *ModelUsageTimeSeries `json:"model_usage_timeseries"`
	ModelUsage           []ModelUsageItem      `json:"model_usage"`
	ToolUsage            []ToolUsageItem       `json:"tool_usage"`
	QuotaLimits          []QuotaLimit          `json:"quota_limits"`
	Timestamp            int64                 `json:"timestamp"`
}

// FindLimit returns the first quota limit whose type contains substr.
func (d *AllUsageData) FindLimit(substr string) (QuotaLimit, bool) {
	if d == nil {
		return QuotaLimit{}, false
	}
	for _, l := range d.QuotaLimits {
		if strings.Contains(l.Type, substr) {
			return l, true
		}
	}
	return QuotaLimit{}, false
}

// TotalTokens sums token counts across model usage items.
func (d *AllUsageData) TotalTokens() int64 {
	if d == nil {
		return 0
	}
	var total int64
	for _, m := range d.ModelUsage {
		total += m.TokenCount
	}
	return total
}

// TotalRequests sums request counts across model usage items.
func (d *AllUsageData) TotalRequests() int64 {
	if d == nil {
		return 0
	}
	var total int64
	for _, m := range d.ModelUsage {
		total += m.RequestCount
	}
	return total
}

// Clone returns a deep copy so callers can never mutate shared state.
func (d *AllUsageData) Clone() *AllUsageData {
	if d == nil {
		return nil
	}
	out := &AllUsageData{
		ModelUsage:           append([]ModelUsageItem(nil), d.ModelUsage...),
		ToolUsage:            append([]ToolUsageItem(nil), d.ToolUsage...),
		ModelUsageTimeseries: d.ModelUsageTimeseries.Clone(),
		Timestamp:            d.Timestamp,
	}
	if d.QuotaLimits != nil {
		out.QuotaLimits = make([]QuotaLimit, len(d.QuotaLimits))
		for i, l := range d.QuotaLimits {
			out.QuotaLimits[i] = l.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the series.
func (s *ModelUsageTimeSeries) Clone() *ModelUsageTimeSeries {
	if s == nil {
		return nil
	}
	return &ModelUsageTimeSeries{
		XTime:          append([]string(nil), s.XTime...),
		ModelCallCount: clonePtrSlice(s.ModelCallCount),
		TokensUsage:    clonePtrSlice(s.TokensUsage),
	}
}

// Clone returns a deep copy of the limit.
func (l QuotaLimit) Clone() QuotaLimit {
	out := l
	out.Usage = clonePtr(l.Usage)
	out.CurrentValue = clonePtr(l.CurrentValue)
	out.Remaining = clonePtr(l.Remaining)
	out.NextResetTime = clonePtr(l.NextResetTime)
	if l.UsageDetails != nil {
		out.UsageDetails = append([]UsageDetail(nil), l.UsageDetails...)
	}
	return out
}

func clonePtr(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func clonePtrSlice(in []*int64) []*int64 {
	if in == nil {
		return nil
	}
	out := make([]*int64, len(in))
	for i, p := range in {
		out[i] = clonePtr(p)
	}
	return out
}
