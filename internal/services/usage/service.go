package usage

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/zai-usage-monitor/internal/config"
	"github.com/j-veylop/zai-usage-monitor/internal/logger"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
)

// Config holds configuration for the usage service.
type Config struct {
	HTTPClient    *http.Client
	Resolver      *Resolver
	Observer      CallObserver
	MaxConcurrent int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 3,
	}
}

// Service runs orchestrated fetches of all three usage endpoints.
type Service struct {
	client   *Client
	resolver *Resolver
	fetchSem chan struct{}
	now      func() time.Time
}

// New creates a new usage service.
func New(cfg Config) *Service {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.Resolver == nil {
		cfg.Resolver = NewResolver()
	}

	client := NewClient(cfg.HTTPClient)
	client.SetObserver(cfg.Observer)

	return &Service{
		client:   client,
		resolver: cfg.Resolver,
		fetchSem: make(chan struct{}, cfg.MaxConcurrent),
		now:      time.Now,
	}
}

// FetchAll resolves the endpoint once, then fetches model usage, tool usage
// and quota limits concurrently over one shared window. The first error
// wins and no partial snapshot is returned. A failed fetch does not cancel
// its siblings. Calls are tagged with the poll ID from ctx, or a new one.
func (s *Service) FetchAll(ctx context.Context, cfg config.Config) (*models.AllUsageData, error) {
	domain, err := s.resolver.Resolve(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	req := Request{
		Domain: domain,
		Token:  cfg.AuthToken,
		Window: WindowAt(s.now()),
	}

	pollID := PollIDFromContext(ctx)
	if pollID == "" {
		pollID = uuid.NewString()
		ctx = WithPollID(ctx, pollID)
	}
	started := time.Now()

	var (
		modelRes *models.ModelUsageResult
		tools    []models.ToolUsageItem
		limits   []models.QuotaLimit
	)

	var g errgroup.Group
	g.Go(func() error {
		return s.withSlot(ctx, EndpointModelUsage, func() error {
			res, err := s.client.FetchModelUsage(ctx, req)
			modelRes = res
			return err
		})
	})
	g.Go(func() error {
		return s.withSlot(ctx, EndpointToolUsage, func() error {
			res, err := s.client.FetchToolUsage(ctx, req)
			tools = res
			return err
		})
	})
	g.Go(func() error {
		return s.withSlot(ctx, EndpointQuotaLimit, func() error {
			res, err := s.client.FetchQuotaLimits(ctx, req)
			limits = res
			return err
		})
	})

	if err := g.Wait(); err != nil {
		logger.Warn("usage fetch failed", "poll_id", pollID, "domain", domain, "error", err)
		return nil, err
	}

	logger.Info("usage fetched",
		"poll_id", pollID, "domain", domain, "limits", len(limits), "duration", time.Since(started))

	return &models.AllUsageData{
		ModelUsage:           modelRes.Items,
		ModelUsageTimeseries: modelRes.Timeseries,
		ToolUsage:            tools,
		QuotaLimits:          limits,
		Timestamp:            s.now().Unix(),
	}, nil
}

// withSlot runs fn while holding a slot of the fetch semaphore.
func (s *Service) withSlot(ctx context.Context, ep Endpoint, fn func() error) error {
	select {
	case s.fetchSem <- struct{}{}:
	case <-ctx.Done():
		return &TransportError{Endpoint: ep, Err: ctx.Err()}
	}
	defer func() { <-s.fetchSem }()
	return fn()
}
