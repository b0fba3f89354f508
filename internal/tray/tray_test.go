package tray

import (
	"testing"
	"time"

	"github.com/j-veylop/zai-usage-monitor/internal/models"
)

var syncTime = time.Date(2024, 3, 15, 9, 7, 0, 0, time.UTC)

func TestRender(t *testing.T) {
	tests := []struct {
		name        string
		limits      []models.QuotaLimit
		wantTitle   string
		wantTooltip string
	}{
		{
			name: "BothLimits",
			limits: []models.QuotaLimit{
				{Type: "Token usage (5 Hour)", Percentage: 42.46},
				{Type: "MCP usage (1 Month)", Percentage: 7.5},
			},
			wantTitle:   "T:42% M:8%",
			wantTooltip: "Tokens: 42.5% | MCP: 7.5%\nUpdated: 09:07",
		},
		{
			name:        "NoLimits",
			limits:      nil,
			wantTitle:   "T:0% M:0%",
			wantTooltip: "Tokens: 0.0% | MCP: 0.0%\nUpdated: 09:07",
		},
		{
			name: "OnlyMCP",
			limits: []models.QuotaLimit{
				{Type: "CUSTOM_LIMIT", Percentage: 99},
				{Type: "MCP usage (1 Month)", Percentage: 100},
			},
			wantTitle:   "T:0% M:100%",
			wantTooltip: "Tokens: 0.0% | MCP: 100.0%\nUpdated: 09:07",
		},
		{
			name: "FirstMatchWins",
			limits: []models.QuotaLimit{
				{Type: "Token usage (5 Hour)", Percentage: 10},
				{Type: "Token usage (1 Week)", Percentage: 90},
			},
			wantTitle:   "T:10% M:0%",
			wantTooltip: "Tokens: 10.0% | MCP: 0.0%\nUpdated: 09:07",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &models.AllUsageData{QuotaLimits: tt.limits, Timestamp: 1}
			d, ok := Render(snap, syncTime)
			if !ok {
				t.Fatal("Render() should succeed for a snapshot")
			}
			if d.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", d.Title, tt.wantTitle)
			}
			if d.Tooltip != tt.wantTooltip {
				t.Errorf("Tooltip = %q, want %q", d.Tooltip, tt.wantTooltip)
			}
			wantLabel := tt.wantTooltip[:len(tt.wantTooltip)-len("\nUpdated: 09:07")]
			if d.MenuLabel != wantLabel {
				t.Errorf("MenuLabel = %q, want %q", d.MenuLabel, wantLabel)
			}
		})
	}
}

func TestRenderUsesSyncTime(t *testing.T) {
	snap := &models.AllUsageData{Timestamp: time.Date(2020, 1, 1, 1, 1, 0, 0, time.UTC).Unix()}
	d, _ := Render(snap, syncTime)
	if d.Tooltip[len(d.Tooltip)-5:] != "09:07" {
		t.Errorf("Tooltip = %q, should use sync time", d.Tooltip)
	}
}

func TestRenderNilSnapshot(t *testing.T) {
	d, ok := Render(nil, syncTime)
	if ok {
		t.Error("Render(nil) should report no-op")
	}
	if d != (Display{}) {
		t.Errorf("Render(nil) = %+v, want zero", d)
	}
}

func TestMenu(t *testing.T) {
	d, ok := Render(&models.AllUsageData{}, syncTime)
	items := Menu(d, ok)

	wantIDs := []string{ItemStats, "", ItemShow, ItemHide, ItemRefresh, "", ItemQuit}
	if len(items) != len(wantIDs) {
		t.Fatalf("got %d items, want %d", len(items), len(wantIDs))
	}
	for i, id := range wantIDs {
		if items[i].ID != id {
			t.Errorf("items[%d].ID = %q, want %q", i, items[i].ID, id)
		}
		if (id == "") != items[i].Separator {
			t.Errorf("items[%d] separator = %v", i, items[i].Separator)
		}
	}
	if items[0].Label != d.MenuLabel || !items[0].Disabled {
		t.Errorf("stats item = %+v", items[0])
	}
	if items[4].Label != "Refresh Now" {
		t.Errorf("refresh label = %q", items[4].Label)
	}

	empty := Menu(Display{}, false)
	if len(empty) != 5 || empty[0].ID != ItemShow {
		t.Errorf("menu without snapshot = %+v", empty)
	}
}
