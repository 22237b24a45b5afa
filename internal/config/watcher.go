package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"simfleet/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the config file for changes and reloads the logging
// configuration live. The TUI registers a callback to pick up UI-relevant
// changes (debounce delay, dark mode) without a restart.
type Watcher struct {
	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	path      string
	onChange  func(*Config)
	lastEvent time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}
	running   bool
}

// NewWatcher creates a watcher for the given config path. onChange may be
// nil; logging config is reloaded regardless.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		path:     path,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the watch loop runs in a goroutine.
// Watches the parent directory because editors replace files on save.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		// Directory may not exist yet; config is then all defaults anyway
		logging.Get(logging.CategoryBoot).Warn("config watcher: initial watch failed: %v", err)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryBoot).Error("config watcher: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	// Editors fire several events per save; collapse bursts.
	w.mu.Lock()
	if time.Since(w.lastEvent) < 200*time.Millisecond {
		w.mu.Unlock()
		return
	}
	w.lastEvent = time.Now()
	onChange := w.onChange
	w.mu.Unlock()

	if err := logging.ReloadConfig(); err != nil {
		logging.Get(logging.CategoryBoot).Warn("config watcher: logging reload failed: %v", err)
	}

	if onChange != nil {
		cfg, err := Load(w.path)
		if err != nil {
			logging.Get(logging.CategoryBoot).Warn("config watcher: reload failed: %v", err)
			return
		}
		onChange(cfg)
	}
}
