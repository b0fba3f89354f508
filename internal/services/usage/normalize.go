package usage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/j-veylop/zai-usage-monitor/internal/models"
)

// Vendor limit codes and their display labels.
const (
	LimitCodeTokens = "TOKENS_LIMIT"
	LimitCodeTime   = "TIME_LIMIT"

	LimitLabelTokens = "Token usage (5 Hour)"
	LimitLabelTime   = "MCP usage (1 Month)"
)

var limitLabels = map[string]string{
	LimitCodeTokens: LimitLabelTokens,
	LimitCodeTime:   LimitLabelTime,
}

// RelabelLimitType maps known vendor limit codes to display labels. Unknown
// codes, including already relabeled ones, are returned unchanged.
func RelabelLimitType(code string) string {
	if label, ok := limitLabels[code]; ok {
		return label
	}
	return code
}

// envelope is the common response wrapper of the monitoring endpoints.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Msg     string          `json:"msg"`
	Code    any             `json:"code"`
	Success bool            `json:"success"`
}

type modelUsageData struct {
	TotalUsage     *modelTotalUsage `json:"totalUsage"`
	XTime          []string         `json:"x_time"`
	ModelCallCount []*int64         `json:"modelCallCount"`
	TokensUsage    []*int64         `json:"tokensUsage"`
}

type modelTotalUsage struct {
	TotalModelCallCount *int64 `json:"totalModelCallCount"`
	TotalTokensUsage    *int64 `json:"totalTokensUsage"`
}

type toolUsageData struct {
	TotalUsage *toolTotalUsage `json:"totalUsage"`
	// Extra keeps every other top-level field of the payload.
	Extra map[string]json.RawMessage `json:"-"`
}

type toolTotalUsage struct {
	TotalNetworkSearchCount *int64       `json:"totalNetworkSearchCount"`
	TotalWebReadMcpCount    *int64       `json:"totalWebReadMcpCount"`
	TotalZreadMcpCount      *int64       `json:"totalZreadMcpCount"`
	TotalSearchMcpCount     *int64       `json:"totalSearchMcpCount"`
	ToolDetails             []toolDetail `json:"toolDetails"`
}

type toolDetail struct {
	ModelName       *string `json:"modelName"`
	TotalUsageCount *int64  `json:"totalUsageCount"`
}

type quotaLimitData struct {
	Limits []quotaLimit `json:"limits"`
}

type quotaLimit struct {
	Type          *string       `json:"type"`
	Unit          *int64        `json:"unit"`
	Number        *int64        `json:"number"`
	Usage         *int64        `json:"usage"`
	CurrentValue  *int64        `json:"currentValue"`
	Remaining     *int64        `json:"remaining"`
	Percentage    *float64      `json:"percentage"`
	NextResetTime *int64        `json:"nextResetTime"`
	UsageDetails  []usageDetail `json:"usageDetails"`
}

type usageDetail struct {
	ModelCode *string `json:"modelCode"`
	Usage     *int64  `json:"usage"`
}

var errMissingData = errors.New("missing data")

func decodeData(body []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		if env.Msg != "" {
			return fmt.Errorf("%w: %s", errMissingData, env.Msg)
		}
		return errMissingData
	}
	return json.Unmarshal(env.Data, v)
}

func missing(field string) error {
	return fmt.Errorf("missing field %q", field)
}

// ParseModelUsage normalizes a model-usage response into a single aggregate
// item plus the per-bucket time series.
func ParseModelUsage(body []byte) (*models.ModelUsageResult, error) {
	var data modelUsageData
	if err := decodeData(body, &data); err != nil {
		return nil, err
	}

	switch {
	case data.TotalUsage == nil:
		return nil, missing("totalUsage")
	case data.TotalUsage.TotalTokensUsage == nil:
		return nil, missing("totalUsage.totalTokensUsage")
	case data.TotalUsage.TotalModelCallCount == nil:
		return nil, missing("totalUsage.totalModelCallCount")
	case data.XTime == nil:
		return nil, missing("x_time")
	case data.ModelCallCount == nil:
		return nil, missing("modelCallCount")
	case data.TokensUsage == nil:
		return nil, missing("tokensUsage")
	}

	return &models.ModelUsageResult{
		Items: []models.ModelUsageItem{{
			Model:        models.AllModelsLabel,
			TokenCount:   *data.TotalUsage.TotalTokensUsage,
			RequestCount: *data.TotalUsage.TotalModelCallCount,
		}},
		Timeseries: &models.ModelUsageTimeSeries{
			XTime:          data.XTime,
			ModelCallCount: data.ModelCallCount,
			TokensUsage:    data.TokensUsage,
		},
	}, nil
}

// ParseToolUsage normalizes a tool-usage response. Unknown top-level fields
// are tolerated.
func ParseToolUsage(body []byte) ([]models.ToolUsageItem, error) {
	data, err := decodeToolUsage(body)
	if err != nil {
		return nil, err
	}

	if data.TotalUsage == nil {
		return nil, missing("totalUsage")
	}
	if data.TotalUsage.ToolDetails == nil {
		return nil, missing("totalUsage.toolDetails")
	}

	items := make([]models.ToolUsageItem, 0, len(data.TotalUsage.ToolDetails))
	for i, d := range data.TotalUsage.ToolDetails {
		if d.ModelName == nil {
			return nil, missing(fmt.Sprintf("toolDetails[%d].modelName", i))
		}
		if d.TotalUsageCount == nil {
			return nil, missing(fmt.Sprintf("toolDetails[%d].totalUsageCount", i))
		}
		items = append(items, models.ToolUsageItem{
			ToolName:   *d.ModelName,
			UsageCount: *d.TotalUsageCount,
		})
	}
	return items, nil
}

func decodeToolUsage(body []byte) (*toolUsageData, error) {
	var raw map[string]json.RawMessage
	if err := decodeData(body, &raw); err != nil {
		return nil, err
	}

	data := &toolUsageData{Extra: make(map[string]json.RawMessage, len(raw))}
	for k, v := range raw {
		if k == "totalUsage" {
			if string(v) == "null" {
				continue
			}
			var total toolTotalUsage
			if err := json.Unmarshal(v, &total); err != nil {
				return nil, fmt.Errorf("totalUsage: %w", err)
			}
			data.TotalUsage = &total
			continue
		}
		data.Extra[k] = v
	}
	return data, nil
}

// ParseQuotaLimits normalizes a quota/limit response. Limit codes are
// relabeled and every other field passes through.
func ParseQuotaLimits(body []byte) ([]models.QuotaLimit, error) {
	var data quotaLimitData
	if err := decodeData(body, &data); err != nil {
		return nil, err
	}
	if data.Limits == nil {
		return nil, missing("limits")
	}

	limits := make([]models.QuotaLimit, 0, len(data.Limits))
	for i, l := range data.Limits {
		ql, err := l.normalize()
		if err != nil {
			return nil, fmt.Errorf("limits[%d]: %w", i, err)
		}
		limits = append(limits, ql)
	}
	return limits, nil
}

func (l quotaLimit) normalize() (models.QuotaLimit, error) {
	switch {
	case l.Type == nil:
		return models.QuotaLimit{}, missing("type")
	case l.Unit == nil:
		return models.QuotaLimit{}, missing("unit")
	case l.Number == nil:
		return models.QuotaLimit{}, missing("number")
	case l.Percentage == nil:
		return models.QuotaLimit{}, missing("percentage")
	}

	out := models.QuotaLimit{
		Type:          RelabelLimitType(*l.Type),
		Unit:          *l.Unit,
		Number:        *l.Number,
		Usage:         l.Usage,
		CurrentValue:  l.CurrentValue,
		Remaining:     l.Remaining,
		Percentage:    *l.Percentage,
		NextResetTime: l.NextResetTime,
	}

	if l.UsageDetails != nil {
		out.UsageDetails = make([]models.UsageDetail, 0, len(l.UsageDetails))
		for i, d := range l.UsageDetails {
			if d.ModelCode == nil || d.Usage == nil {
				return models.QuotaLimit{}, missing(fmt.Sprintf("usageDetails[%d]", i))
			}
			out.UsageDetails = append(out.UsageDetails, models.UsageDetail{
				ToolName: *d.ModelCode,
				Usage:    *d.Usage,
			})
		}
	}
	return out, nil
}
