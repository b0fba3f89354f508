// Package tray derives tray title, tooltip and menu content from a usage
// snapshot. It holds no widget state; a GUI shell binds the results.
package tray

import (
	"fmt"
	"math"
	"time"

	"github.com/j-veylop/zai-usage-monitor/internal/models"
)

// Label fragments used to locate the two headline limits.
const (
	TokenFragment = "Token"
	MCPFragment   = "MCP"
)

// Display holds the strings shown by the tray icon and menu.
type Display struct {
	Title     string
	Tooltip   string
	MenuLabel string
	TokenPct  float64
	MCPPct    float64
}

// Render projects snapshot into tray strings stamped with now. It returns
// false when there is no snapshot, in which case nothing should change.
func Render(snapshot *models.AllUsageData, now time.Time) (Display, bool) {
	if snapshot == nil {
		return Display{}, false
	}

	var tokenPct, mcpPct float64
	if l, ok := snapshot.FindLimit(TokenFragment); ok {
		tokenPct = l.Percentage
	}
	if l, ok := snapshot.FindLimit(MCPFragment); ok {
		mcpPct = l.Percentage
	}

	label := fmt.Sprintf("Tokens: %.1f%% | MCP: %.1f%%", tokenPct, mcpPct)

	return Display{
		Title:     fmt.Sprintf("T:%d%% M:%d%%", int64(math.Round(tokenPct)), int64(math.Round(mcpPct))),
		Tooltip:   label + "\nUpdated: " + now.Format("15:04"),
		MenuLabel: label,
		TokenPct:  tokenPct,
		MCPPct:    mcpPct,
	}, true
}

// Menu item IDs.
const (
	ItemStats   = "stats"
	ItemShow    = "show"
	ItemHide    = "hide"
	ItemRefresh = "refresh"
	ItemQuit    = "quit"
)

// MenuItem is one entry of the tray menu. Separator entries have no ID.
type MenuItem struct {
	ID        string
	Label     string
	Separator bool
	Disabled  bool
}

// Menu returns the tray menu. The stats row is present only once a
// snapshot has been rendered.
func Menu(d Display, ok bool) []MenuItem {
	var items []MenuItem
	if ok {
		items = append(items,
			MenuItem{ID: ItemStats, Label: d.MenuLabel, Disabled: true},
			MenuItem{Separator: true},
		)
	}
	return append(items,
		MenuItem{ID: ItemShow, Label: "Show"},
		MenuItem{ID: ItemHide, Label: "Hide"},
		MenuItem{ID: ItemRefresh, Label: "Refresh Now"},
		MenuItem{Separator: true},
		MenuItem{ID: ItemQuit, Label: "Quit"},
	)
}
