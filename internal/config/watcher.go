package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/zai-usage-monitor/internal/logger"
)

const debounceInterval = 100 * time.Millisecond

// WatchEvent reports a reloaded config file or a load failure.
type WatchEvent struct {
	Error  error
	Config Config
}

// Watcher reloads the config file whenever it changes on disk.
type Watcher struct {
	watcher       *fsnotify.Watcher
	debounceTimer *time.Timer
	eventChan     chan WatchEvent
	stopChan      chan struct{}
	path          string
	mu            sync.Mutex
	closeOnce     sync.Once
}

// NewWatcher starts watching the directory that holds path.
func NewWatcher(path string) (*Watcher, error) {
	dir := filepath.Dir(path)
	if err := ensureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory (to catch atomic renames)
	if err := fw.Add(dir); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		watcher:   fw,
		path:      path,
		eventChan: make(chan WatchEvent, 10),
		stopChan:  make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Events returns the reload event channel.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.eventChan
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.mu.Lock()
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, w.handleFileChange)
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendEvent(WatchEvent{Error: err})

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handleFileChange() {
	cfg, err := Load(w.path)
	if err != nil {
		logger.Warn("failed to reload config", "path", w.path, "error", err)
		w.sendEvent(WatchEvent{Error: err})
		return
	}
	logger.Debug("config reloaded", "path", w.path)
	w.sendEvent(WatchEvent{Config: cfg})
}

// sendEvent sends an event to the event channel non-blocking.
func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case <-w.stopChan:
		return
	default:
	}
	select {
	case w.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-w.eventChan:
		default:
		}
		select {
		case w.eventChan <- event:
		default:
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stopChan)

		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()

		err = w.watcher.Close()
	})
	return err
}
