package projection

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/zai-usage-monitor/internal/db"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
)

const tokenLimit = "Token usage (5 Hour)"

func newTestService(t *testing.T) (*Service, *db.DB) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(database), database
}

func resetAt(ts time.Time) *int64 {
	ms := ts.UnixMilli()
	return &ms
}

type failingStore struct{}

func (failingStore) GetQuotaSamples(time.Time) ([]models.QuotaSample, error) {
	return nil, errors.New("database locked")
}

func TestCalculateProjections_NoData(t *testing.T) {
	svc, _ := newTestService(t)

	now := time.Now().UTC()
	projections, err := svc.CalculateProjections([]models.QuotaLimit{
		{Type: tokenLimit, Unit: models.UnitHour, Number: 5, Percentage: 40, NextResetTime: resetAt(now.Add(time.Hour))},
	})
	if err != nil {
		t.Fatalf("CalculateProjections failed: %v", err)
	}
	if len(projections) != 1 {
		t.Fatalf("got %d projections, want 1", len(projections))
	}
	if projections[0].Status != models.ProjectionUnknown {
		t.Errorf("Status = %s, want UNKNOWN without samples", projections[0].Status)
	}
	if projections[0].Confidence != "low" {
		t.Errorf("Confidence = %s, want low", projections[0].Confidence)
	}
}

func TestCalculateProjections_WithData(t *testing.T) {
	svc, database := newTestService(t)

	now := time.Now().UTC().Truncate(time.Second)
	svc.now = func() time.Time { return now }

	// Samples from before the current window must be ignored.
	var samples []models.QuotaSample
	samples = append(samples, models.QuotaSample{
		Timestamp: now.Add(-6 * time.Hour), LimitType: tokenLimit, Percentage: 99,
	})
	for i := range 3 {
		samples = append(samples, models.QuotaSample{
			Timestamp:  now.Add(time.Duration(i-2) * time.Hour),
			LimitType:  tokenLimit,
			Percentage: float64(20 + 30*i),
		})
	}
	samples = append(samples, models.QuotaSample{
		Timestamp: now.Add(-time.Hour), LimitType: "MCP usage (1 Month)", Percentage: 3,
	})
	if err := database.InsertQuotaSamples(samples); err != nil {
		t.Fatalf("InsertQuotaSamples failed: %v", err)
	}

	projections, err := svc.CalculateProjections([]models.QuotaLimit{
		{Type: tokenLimit, Unit: models.UnitHour, Number: 5, Percentage: 80, NextResetTime: resetAt(now.Add(3 * time.Hour))},
	})
	if err != nil {
		t.Fatalf("CalculateProjections failed: %v", err)
	}

	p := projections[0]
	if p.DataPoints != 3 {
		t.Errorf("DataPoints = %d, want 3", p.DataPoints)
	}
	if p.Rate != 30 {
		t.Errorf("Rate = %v, want 30", p.Rate)
	}
	if !p.WillDepleteBefore || p.Status != models.ProjectionCritical {
		t.Errorf("expected critical depletion before reset, got %+v", p)
	}

	cached, ok := svc.GetCachedProjection(tokenLimit)
	if !ok || cached.Rate != p.Rate {
		t.Errorf("cached projection = %+v, %v", cached, ok)
	}
	if _, ok := svc.GetCachedProjection("MCP usage (1 Month)"); ok {
		t.Error("only projected limits should be cached")
	}
}

func TestCalculateProjections_ReplacesCache(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.CalculateProjections([]models.QuotaLimit{{Type: "a"}, {Type: "b"}}); err != nil {
		t.Fatal(err)
	}
	if got := len(svc.GetAllProjections()); got != 2 {
		t.Fatalf("cache size = %d, want 2", got)
	}

	if _, err := svc.CalculateProjections([]models.QuotaLimit{{Type: "a"}}); err != nil {
		t.Fatal(err)
	}
	all := svc.GetAllProjections()
	if len(all) != 1 {
		t.Errorf("cache size = %d, want 1", len(all))
	}
	if _, ok := all["a"]; !ok {
		t.Error("limit a should stay cached")
	}
}

func TestCalculateProjections_Empty(t *testing.T) {
	svc := New(failingStore{})
	projections, err := svc.CalculateProjections(nil)
	if err != nil || projections != nil {
		t.Errorf("empty limits = %v, %v", projections, err)
	}
}

func TestCalculateProjections_StoreError(t *testing.T) {
	svc := New(failingStore{})
	if _, err := svc.CalculateProjections([]models.QuotaLimit{{Type: tokenLimit}}); err == nil {
		t.Error("expected an error from the store")
	}
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	l := models.QuotaLimit{Unit: models.UnitHour, Number: 5, NextResetTime: resetAt(now.Add(2 * time.Hour))}
	if got := windowStart(l, now); !got.Equal(now.Add(-3 * time.Hour)) {
		t.Errorf("windowStart = %v, want 3h ago", got)
	}

	noReset := models.QuotaLimit{Unit: models.UnitHour, Number: 5}
	if got := windowStart(noReset, now); !got.Equal(now.Add(-fallbackLookback)) {
		t.Errorf("windowStart without reset = %v", got)
	}
}
