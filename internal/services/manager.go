// Package services provides service orchestration for the TUI and CLI.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/j-veylop/zai-usage-monitor/internal/config"
	"github.com/j-veylop/zai-usage-monitor/internal/db"
	"github.com/j-veylop/zai-usage-monitor/internal/logger"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
	"github.com/j-veylop/zai-usage-monitor/internal/services/projection"
	"github.com/j-veylop/zai-usage-monitor/internal/services/usage"
	"github.com/j-veylop/zai-usage-monitor/internal/tray"
)

const (
	pollTimeout          = time.Minute
	historyRetentionDays = 90
	vacuumAfterRows      = 1000 // removed rows that trigger a VACUUM
	resetDropPercent     = 20.0
)

type (
	// RefreshingEvent is emitted when a fetch starts.
	RefreshingEvent struct{}

	// DataUpdatedEvent is emitted after a successful fetch.
	DataUpdatedEvent struct {
		Snapshot    *models.AllUsageData
		Tray        tray.Display
		Projections []models.Projection
		OK          bool
	}

	// AlertEvent is emitted for every quota limit at or above the warning
	// threshold, once per successful fetch.
	AlertEvent struct {
		TypeLabel  string
		Severity   models.Severity
		Percentage float64
	}

	// ConfigChangedEvent is emitted when the config is saved or reloaded.
	ConfigChangedEvent struct {
		Config config.Config
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (RefreshingEvent) isServiceEvent()    {}
func (DataUpdatedEvent) isServiceEvent()   {}
func (AlertEvent) isServiceEvent()         {}
func (ConfigChangedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()         {}

// Options configures a Manager.
type Options struct {
	Notifier     Notifier
	HTTPClient   *http.Client
	Resolver     *usage.Resolver
	ConfigPath   string
	DatabasePath string
	Config       config.Config
	// MaxConcurrent bounds in-flight endpoint requests per fetch.
	MaxConcurrent int
	// WatchConfig reloads the config file when it changes on disk.
	WatchConfig bool
}

// OptionsFrom builds manager options from runtime options and a loaded config.
func OptionsFrom(rt *config.Options, cfg config.Config) Options {
	opts := Options{
		Config:        cfg,
		ConfigPath:    rt.ConfigPath,
		DatabasePath:  rt.DatabasePath,
		MaxConcurrent: rt.MaxConcurrent,
		HTTPClient:    &http.Client{Timeout: rt.HTTPTimeout},
	}
	if rt.Notifications {
		opts.Notifier = DesktopNotifier{}
	}
	return opts
}

// Manager orchestrates fetching, persistence and event routing.
type Manager struct {
	mu          sync.RWMutex
	state       *State
	usage       *usage.Service
	projections *projection.Service
	database    *db.DB
	watcher     *config.Watcher
	notifier    Notifier
	configPath  string
	stopChan    chan struct{}
	resetChan   chan time.Duration
	subscribers []chan<- ServiceEvent
	previous    map[string]float64
	now         func() time.Time
	closed      bool
	startOnce   sync.Once
	closeOnce   sync.Once
	fetchMu     sync.RWMutex
}

// NewManager creates a new service manager. Polling does not begin until
// Start is called.
func NewManager(opts Options) (*Manager, error) {
	m := &Manager{
		state:      NewState(opts.Config),
		notifier:   opts.Notifier,
		configPath: opts.ConfigPath,
		stopChan:   make(chan struct{}),
		resetChan:  make(chan time.Duration, 1),
		previous:   make(map[string]float64),
		now:        time.Now,
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	if m.configPath == "" {
		m.configPath = config.DefaultPath()
	}

	if opts.DatabasePath != "" {
		var err error
		m.database, err = db.New(opts.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		m.projections = projection.New(m.database)
	}

	usageConfig := usage.DefaultConfig()
	usageConfig.HTTPClient = opts.HTTPClient
	usageConfig.Resolver = opts.Resolver
	usageConfig.Observer = m.recordCall
	if opts.MaxConcurrent > 0 {
		usageConfig.MaxConcurrent = opts.MaxConcurrent
	}
	m.usage = usage.New(usageConfig)

	if opts.WatchConfig {
		w, err := config.NewWatcher(m.configPath)
		if err != nil {
			logger.Warn("config watcher disabled", "error", err)
		} else {
			m.watcher = w
			go m.routeEvents()
		}
	}

	return m, nil
}

// Start fetches once immediately and then on every refresh interval.
// Only the first call has an effect.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		if m.database != nil {
			go m.cleanupHistory()
		}
		go m.pollLoop()
	})
}

// routeEvents applies config reloads from the file watcher.
func (m *Manager) routeEvents() {
	for {
		select {
		case event, ok := <-m.watcher.Events():
			if !ok {
				return
			}
			m.handleWatchEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleWatchEvent(event config.WatchEvent) {
	if event.Error != nil {
		m.broadcast(ErrorEvent{Service: "config", Error: event.Error})
		return
	}
	if event.Config == m.state.Config() {
		return
	}
	logger.Info("config reloaded from disk", "path", m.configPath)
	m.applyConfig(event.Config)
}

func (m *Manager) pollLoop() {
	m.poll()

	ticker := time.NewTicker(m.state.Config().RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.poll()
		case d := <-m.resetChan:
			ticker.Reset(d)
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()
	go func() {
		select {
		case <-m.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := m.GetUsageData(ctx); err != nil {
		logger.Debug("scheduled poll failed", "error", err)
	}
}

// reschedule replaces any pending interval change with d.
func (m *Manager) reschedule(d time.Duration) {
	for {
		select {
		case m.resetChan <- d:
			return
		default:
		}
		select {
		case <-m.resetChan:
		default:
		}
	}
}

// GetUsageData fetches a fresh snapshot with the current config. On success
// the snapshot replaces the latest one, alerts are evaluated and a
// DataUpdatedEvent is broadcast. On failure the previous snapshot is kept.
func (m *Manager) GetUsageData(ctx context.Context) (*models.AllUsageData, error) {
	m.fetchMu.RLock()
	defer m.fetchMu.RUnlock()

	m.broadcast(RefreshingEvent{})

	pollID := uuid.NewString()
	ctx = usage.WithPollID(ctx, pollID)

	data, err := m.usage.FetchAll(ctx, m.state.Config())
	if err != nil {
		err = fmt.Errorf("failed to fetch data: %w", err)
		m.broadcast(ErrorEvent{Service: "usage", Error: err})
		return nil, err
	}

	m.state.SetSnapshot(data)

	alerts := models.EvaluateAlerts(data.QuotaLimits)
	for _, a := range alerts {
		m.broadcast(AlertEvent{
			TypeLabel:  a.TypeLabel,
			Severity:   a.Severity,
			Percentage: a.Percentage,
		})
	}
	m.checkNotifications(data.QuotaLimits)
	m.recordSamples(pollID, data)
	projections := m.project(data.QuotaLimits)

	display, ok := tray.Render(data, m.now())
	m.state.SetTray(display, ok)

	m.broadcast(DataUpdatedEvent{
		Snapshot:    data.Clone(),
		Tray:        display,
		Projections: projections,
		OK:          ok,
	})

	return data, nil
}

// checkNotifications sends a desktop notification when a limit escalates to
// a higher severity or drops sharply after a reset.
func (m *Manager) checkNotifications(limits []models.QuotaLimit) {
	m.mu.Lock()
	type note struct{ title, body string }
	var notes []note
	for _, l := range limits {
		old, seen := m.previous[l.Type]
		m.previous[l.Type] = l.Percentage
		if !seen {
			if sev := models.ClassifySeverity(l.Percentage); sev != models.SeverityNone {
				title, body := alertMessage(models.Alert{TypeLabel: l.Type, Severity: sev, Percentage: l.Percentage})
				notes = append(notes, note{title, body})
			}
			continue
		}

		oldSev := models.ClassifySeverity(old)
		newSev := models.ClassifySeverity(l.Percentage)
		if severityRank(newSev) > severityRank(oldSev) {
			title, body := alertMessage(models.Alert{TypeLabel: l.Type, Severity: newSev, Percentage: l.Percentage})
			notes = append(notes, note{title, body})
		}

		if old-l.Percentage > resetDropPercent {
			notes = append(notes, note{
				title: "Quota Reset: " + l.Type,
				body:  fmt.Sprintf("Usage dropped to %.1f%%", l.Percentage),
			})
		}
	}
	m.mu.Unlock()

	for _, n := range notes {
		if err := m.notifier.Notify(n.title, n.body); err != nil {
			logger.Debug("notification failed", "error", err)
		}
	}
}

// recordCall is the usage client's observer; it logs every request.
func (m *Manager) recordCall(_ context.Context, call models.APICall) {
	if m.database == nil {
		return
	}
	if err := m.database.InsertAPICall(&call); err != nil {
		logger.Warn("failed to record api call", "endpoint", call.Endpoint, "error", err)
	}
}

func (m *Manager) recordSamples(pollID string, data *models.AllUsageData) {
	if m.database == nil || len(data.QuotaLimits) == 0 {
		return
	}

	ts := time.Unix(data.Timestamp, 0)
	samples := make([]models.QuotaSample, 0, len(data.QuotaLimits))
	for _, l := range data.QuotaLimits {
		s := models.QuotaSample{
			Timestamp:  ts,
			PollID:     pollID,
			LimitType:  l.Type,
			Percentage: l.Percentage,
		}
		if l.CurrentValue != nil {
			s.CurrentValue = *l.CurrentValue
		}
		if l.Usage != nil {
			s.Usage = *l.Usage
		}
		if l.NextResetTime != nil {
			s.NextResetTime = *l.NextResetTime
		}
		samples = append(samples, s)
	}

	if err := m.database.InsertQuotaSamples(samples); err != nil {
		logger.Warn("failed to record quota samples", "poll_id", pollID, "error", err)
	}
}

// project refreshes exhaustion projections from the recorded samples.
func (m *Manager) project(limits []models.QuotaLimit) []models.Projection {
	if m.projections == nil {
		return nil
	}
	out, err := m.projections.CalculateProjections(limits)
	if err != nil {
		logger.Warn("failed to project quota usage", "error", err)
		return nil
	}
	return out
}

// Projections returns the latest projection per limit type.
func (m *Manager) Projections() map[string]models.Projection {
	if m.projections == nil {
		return nil
	}
	return m.projections.GetAllProjections()
}

func (m *Manager) cleanupHistory() {
	n, err := m.database.CleanupOldSamples(historyRetentionDays)
	if err != nil {
		logger.Warn("history cleanup failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("history cleanup", "removed", n)
	}
	if n >= vacuumAfterRows {
		if err := m.database.Vacuum(); err != nil {
			logger.Warn("history vacuum failed", "error", err)
		}
	}
}

// Refresh triggers an immediate fetch in the background.
func (m *Manager) Refresh() {
	go m.poll()
}

// GetConfig returns the current config.
func (m *Manager) GetConfig() config.Config {
	return m.state.Config()
}

// SaveConfig validates, persists and applies a new config. A change in the
// refresh interval reschedules the poll loop.
func (m *Manager) SaveConfig(authToken, baseURL string, refreshIntervalMinutes int) error {
	cfg := config.Config{
		AuthToken:              authToken,
		BaseURL:                baseURL,
		RefreshIntervalMinutes: refreshIntervalMinutes,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(m.configPath, cfg); err != nil {
		return err
	}
	m.applyConfig(cfg)
	return nil
}

func (m *Manager) applyConfig(cfg config.Config) {
	old := m.state.SetConfig(cfg)
	m.broadcast(ConfigChangedEvent{Config: cfg})
	if old.RefreshInterval() != cfg.RefreshInterval() {
		m.reschedule(cfg.RefreshInterval())
	}
}

// Snapshot returns a copy of the latest snapshot, or nil before the first
// successful fetch.
func (m *Manager) Snapshot() *models.AllUsageData {
	return m.state.Snapshot()
}

// TrayDisplay returns the tray text for the latest snapshot.
func (m *Manager) TrayDisplay() (tray.Display, bool) {
	return m.state.Tray()
}

var errNoDatabase = errors.New("database not initialized")

// GetHistory retrieves recorded quota history for a time range.
func (m *Manager) GetHistory(timeRange models.TimeRange) (*models.HistoryStats, error) {
	if m.database == nil {
		return nil, errNoDatabase
	}
	return m.database.GetHistoryStats(timeRange, m.now())
}

// GetRecentCalls returns the most recent logged API calls.
func (m *Manager) GetRecentCalls(limit int) ([]models.APICall, error) {
	if m.database == nil {
		return nil, errNoDatabase
	}
	return m.database.GetRecentAPICalls(limit)
}

// GetHourlyStats returns API call statistics per hour for the last hours.
func (m *Manager) GetHourlyStats(hours int) ([]models.HourlyStats, error) {
	if m.database == nil {
		return nil, errNoDatabase
	}
	return m.database.GetHourlyStats(hours)
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return
	}
	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close stops polling and releases the watcher and database.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		m.closed = true
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.watcher != nil {
			if err := m.watcher.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		// Wait for in-flight fetches so nothing writes to a closed database.
		m.fetchMu.Lock()
		defer m.fetchMu.Unlock()

		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	if len(errs) > 0 {
		return fmt.Errorf("errors closing manager: %v", errs)
	}
	return nil
}
