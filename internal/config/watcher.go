// internal/config/watcher.go
package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/grantio/grantscraper/internal/utils"
)

// Watcher reloads the source catalog when the file changes, so
// long-running scheduled deployments pick up new sources without a
// restart. A rewrite that fails to load or validate is logged and
// skipped; callbacks only ever see a loadable catalog.
type Watcher struct {
	watcher    *fsnotify.Watcher
	configPath string
	logger     utils.Logger
	callbacks  []func(*Config)
	mu         sync.RWMutex
	stopped    bool
}

func NewWatcher(configPath string, logger utils.Logger) (*Watcher, error) {
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		watcher:    watcher,
		configPath: configPath,
		logger:     logger,
	}

	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch catalog file: %w", err)
	}

	// Editors often replace the file instead of writing in place;
	// watching the directory catches the recreate.
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		logger.Warnf("failed to watch catalog directory: %v", err)
	}

	go w.watch()

	return w, nil
}

// OnChange registers a callback invoked with each reloaded catalog.
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name == w.configPath && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("catalog watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	w.mu.RLock()
	if w.stopped {
		w.mu.RUnlock()
		return
	}
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	cfg, err := LoadFromFile(w.configPath)
	if err != nil {
		w.logger.Errorf("catalog reload failed, keeping the previous one: %v", err)
		return
	}

	w.logger.WithField("sources", len(cfg.Sources)).Info("catalog reloaded")
	for _, callback := range callbacks {
		callback(cfg)
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	return w.watcher.Close()
}
