package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Loading")
	if s.label != "Loading" {
		t.Error("Spinner label mismatch")
	}
}

func TestSpinner_Methods(t *testing.T) {
	s := NewSpinner("Init")

	s.SetLabel("Loading")
	if s.Label() != "Loading" {
		t.Errorf("Label = %s, want Loading", s.Label())
	}

	if s.View() == "" {
		t.Error("View returned empty")
	}
	if !strings.Contains(s.ViewWithLabel(), "Loading") {
		t.Error("ViewWithLabel should contain the label")
	}
	if s.Init() == nil {
		t.Error("Init should return command")
	}

	_, cmd := s.Update(s.Spinner().Tick())
	if cmd == nil {
		t.Error("Update should return command for tick")
	}

	if s.Tick() == nil {
		t.Error("Tick should return command")
	}
	if s.Spinner().Spinner.Frames == nil {
		t.Error("Spinner accessor failed")
	}
}

func TestSpinner_Elapsed(t *testing.T) {
	s := NewSpinner("Fetching usage...")
	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	if got := s.Elapsed(start); got != 0 {
		t.Errorf("Elapsed before Start = %v, want 0", got)
	}

	s.Start(start)
	if got := s.Elapsed(start.Add(2500 * time.Millisecond)); got != 2*time.Second {
		t.Errorf("Elapsed = %v, want 2s", got)
	}
	if got := s.Elapsed(start.Add(-time.Second)); got != 0 {
		t.Errorf("Elapsed before start time = %v, want 0", got)
	}

	if view := s.ViewWithElapsed(start.Add(500 * time.Millisecond)); strings.Contains(view, "(") {
		t.Errorf("no elapsed time expected under a second, got %q", view)
	}
	if view := s.ViewWithElapsed(start.Add(3 * time.Second)); !strings.Contains(view, "(3s)") {
		t.Errorf("ViewWithElapsed = %q, want it to contain (3s)", view)
	}
}

func TestRenderSpinnerCentered(t *testing.T) {
	s := NewSpinner("Loading...")
	view := RenderSpinnerCentered(s, 20, 5)
	if !strings.Contains(view, "Loading...") {
		t.Error("RenderSpinnerCentered should contain the label")
	}
}

func TestRenderLineChart(t *testing.T) {
	s := RenderLineChart([]float64{1, 2, 3, 4}, 20, 5, "Test")
	if !strings.Contains(s, "Test") {
		t.Error("RenderLineChart should contain the caption")
	}

	if s := RenderLineChart(nil, 20, 5, "Empty"); !strings.Contains(s, "No data") {
		t.Errorf("RenderLineChart(nil) = %q, want no data message", s)
	}
}

func TestSeriesColor(t *testing.T) {
	if SeriesColor(0) != SeriesColor(len(seriesLegendColors)) {
		t.Error("SeriesColor should cycle")
	}
	if len(seriesLegendColors) != len(seriesColors) {
		t.Error("legend colors must match chart colors")
	}
}

func TestRenderMultiLineChart(t *testing.T) {
	s := RenderMultiLineChart([][]float64{{1, 2, 3}, {3, 2}}, 20, 5, "Title")
	if !strings.Contains(s, "Title") {
		t.Error("RenderMultiLineChart should contain the caption")
	}

	if s := RenderMultiLineChart([][]float64{nil, {}}, 20, 5, ""); !strings.Contains(s, "No data") {
		t.Errorf("RenderMultiLineChart(empty) = %q, want no data message", s)
	}
}

func TestNullableSeries(t *testing.T) {
	v := int64(7)
	out, missing := NullableSeries([]*int64{&v, nil, &v})
	if len(out) != 3 || out[0] != 7 || out[1] != 0 || out[2] != 7 {
		t.Errorf("NullableSeries() = %v", out)
	}
	if missing != 1 {
		t.Errorf("missing = %d, want 1", missing)
	}
}

func TestRenderBarChart(t *testing.T) {
	s := RenderBarChart([]float64{10, 2000}, []string{"A", "B"}, 40)
	lines := strings.Split(s, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "2k") {
		t.Errorf("line = %q, want compact value", lines[1])
	}

	if RenderBarChart(nil, nil, 20) != "" {
		t.Error("RenderBarChart(nil) should be empty")
	}
}

func TestRenderHourlyHeatmap(t *testing.T) {
	s := RenderHourlyHeatmap(make([]float64, 24))
	if !strings.HasPrefix(s, "00 ") || !strings.HasSuffix(s, " 23") {
		t.Errorf("RenderHourlyHeatmap() = %q", s)
	}

	// Short input is padded.
	if RenderHourlyHeatmap([]float64{1}) == "" {
		t.Error("RenderHourlyHeatmap returned empty")
	}
}

func TestRenderSparkline(t *testing.T) {
	s := RenderSparkline([]float64{0, 50, 100}, 10)
	if s != "▁▄█" {
		t.Errorf("RenderSparkline() = %q, want ▁▄█", s)
	}
	if RenderSparkline(nil, 10) != "" {
		t.Error("RenderSparkline(nil) should be empty")
	}
}

func TestRenderUsageSparkline(t *testing.T) {
	s := RenderUsageSparkline([]float64{10, 75, 95}, 10)
	if s == "" {
		t.Error("RenderUsageSparkline returned empty")
	}
}

func TestRenderLegend(t *testing.T) {
	items := []LegendItem{
		{Label: "A", Color: lipgloss.Color("#ffffff")},
		{Label: "B", Color: ChartMCPColor},
	}
	s := RenderLegend(items)
	if !strings.Contains(s, "A") || !strings.Contains(s, "B") {
		t.Errorf("RenderLegend() = %q", s)
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Errorf("FormatCount() = %q", got)
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{12345, "12.3k"},
		{2500000, "2.5M"},
	}

	for _, tt := range tests {
		if got := FormatCompact(tt.in); got != tt.want {
			t.Errorf("FormatCompact(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	if got := FormatBytes(1500); got != "1.5 kB" {
		t.Errorf("FormatBytes() = %q", got)
	}
	if got := FormatBytes(-1); got != "0 B" {
		t.Errorf("FormatBytes(-1) = %q", got)
	}
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := FormatAgo(time.Time{}, now); got != "never" {
		t.Errorf("FormatAgo(zero) = %q", got)
	}
	if got := FormatAgo(now.Add(-3*time.Minute), now); got != "3 minutes ago" {
		t.Errorf("FormatAgo() = %q", got)
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "now"},
		{-time.Minute, "now"},
		{2*time.Hour + 5*time.Minute, "2h 05m"},
		{3*24*time.Hour + 4*time.Hour, "3d 04h"},
	}

	for _, tt := range tests {
		if got := FormatCountdown(tt.in); got != tt.want {
			t.Errorf("FormatCountdown(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatResetTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	if got := FormatResetTime(now.Add(6*time.Hour), now); got != "today at 15:00" {
		t.Errorf("FormatResetTime(today) = %q", got)
	}
	if got := FormatResetTime(now.Add(48*time.Hour), now); got != "Jan 3 09:00" {
		t.Errorf("FormatResetTime(later) = %q", got)
	}
}
