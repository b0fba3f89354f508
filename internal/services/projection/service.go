// Package projection estimates quota exhaustion from recorded samples.
package projection

import (
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/zai-usage-monitor/internal/db"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
)

// fallbackLookback is the sample window used for limits without a known
// window start.
const fallbackLookback = 24 * time.Hour

// SampleStore reads recorded quota samples. *db.DB implements it.
type SampleStore interface {
	GetQuotaSamples(since time.Time) ([]models.QuotaSample, error)
}

var _ SampleStore = (*db.DB)(nil)

type Service struct {
	mu    sync.RWMutex
	store SampleStore
	now   func() time.Time

	projectionCache map[string]models.Projection
}

func New(store SampleStore) *Service {
	return &Service{
		store:           store,
		now:             time.Now,
		projectionCache: make(map[string]models.Projection),
	}
}

// windowStart returns when the current window of l began.
func windowStart(l models.QuotaLimit, now time.Time) time.Time {
	reset, ok := l.ResetTime()
	window := l.Window()
	if !ok || window <= 0 {
		return now.Add(-fallbackLookback)
	}
	return reset.Add(-window)
}

// CalculateProjections projects every limit from the samples recorded since
// its current window began. The results replace the cached projections and
// are returned in the order of limits.
func (s *Service) CalculateProjections(limits []models.QuotaLimit) ([]models.Projection, error) {
	if len(limits) == 0 {
		return nil, nil
	}

	now := s.now()
	since := now
	starts := make([]time.Time, len(limits))
	for i, l := range limits {
		starts[i] = windowStart(l, now)
		if starts[i].Before(since) {
			since = starts[i]
		}
	}

	samples, err := s.store.GetQuotaSamples(since)
	if err != nil {
		return nil, fmt.Errorf("failed to load quota samples: %w", err)
	}

	byType := make(map[string][]models.QuotaSample)
	for _, sample := range samples {
		byType[sample.LimitType] = append(byType[sample.LimitType], sample)
	}

	out := make([]models.Projection, len(limits))
	cache := make(map[string]models.Projection, len(limits))
	for i, l := range limits {
		var inWindow []models.QuotaSample
		for _, sample := range byType[l.Type] {
			if !sample.Timestamp.Before(starts[i]) {
				inWindow = append(inWindow, sample)
			}
		}
		out[i] = models.Project(l, inWindow, now)
		cache[l.Type] = out[i]
	}

	s.mu.Lock()
	s.projectionCache = cache
	s.mu.Unlock()

	return out, nil
}

// GetCachedProjection returns the last projection for a limit type.
func (s *Service) GetCachedProjection(limitType string) (models.Projection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projectionCache[limitType]
	return p, ok
}

func (s *Service) GetAllProjections() map[string]models.Projection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]models.Projection, len(s.projectionCache))
	for k, v := range s.projectionCache {
		result[k] = v
	}
	return result
}
