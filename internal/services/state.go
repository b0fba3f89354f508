package services

import (
	"sync"

	"github.com/j-veylop/zai-usage-monitor/internal/config"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
	"github.com/j-veylop/zai-usage-monitor/internal/tray"
)

// State owns the current config and the latest snapshot. Every read returns
// a copy and every write replaces the value; the lock is never held across
// I/O.
type State struct {
	snapshot *models.AllUsageData
	config   config.Config
	display  tray.Display
	hasTray  bool
	mu       sync.Mutex
}

// NewState creates state seeded with cfg and no snapshot.
func NewState(cfg config.Config) *State {
	return &State{config: cfg}
}

// Config returns the current config.
func (s *State) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// SetConfig replaces the current config and returns the previous one.
func (s *State) SetConfig(cfg config.Config) config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.config
	s.config = cfg
	return old
}

// Snapshot returns a deep copy of the latest snapshot, or nil.
func (s *State) Snapshot() *models.AllUsageData {
	s.mu.Lock()
	snap := s.snapshot
	s.mu.Unlock()
	return snap.Clone()
}

// SetSnapshot replaces the latest snapshot with a copy of data.
func (s *State) SetSnapshot(data *models.AllUsageData) {
	c := data.Clone()
	s.mu.Lock()
	s.snapshot = c
	s.mu.Unlock()
}

// Tray returns the last rendered tray display.
func (s *State) Tray() (tray.Display, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display, s.hasTray
}

// SetTray stores the tray display rendered for the latest snapshot.
func (s *State) SetTray(d tray.Display, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = d
	s.hasTray = ok
}
