package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	appLog "memlcd/internal/log"
)

// Watcher reloads a config file when it changes on disk and hands every
// valid revision to the registered handlers. Invalid revisions are logged
// and skipped so a half-edited file never reaches the panel.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	mu       sync.RWMutex
	config   *Config
	handlers []func(*Config)
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher loads path and prepares to watch it. The containing
// directory is watched because Save replaces the file by rename.
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		path:    filepath.Clean(path),
		watcher: fw,
		config:  cfg,
		done:    make(chan struct{}),
	}, nil
}

// Start starts watching for config file changes.
func (w *Watcher) Start() {
	go w.watch()
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

// OnReload registers a handler called with each reloaded config.
func (w *Watcher) OnReload(handler func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Get returns the current config.
func (w *Watcher) Get() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			appLog.Error("config watcher error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		appLog.Error("config reload failed", err, "path", w.path)
		return
	}
	if err := cfg.Validate(); err != nil {
		appLog.Error("config reload rejected", err, "path", w.path)
		return
	}

	w.mu.Lock()
	w.config = cfg
	handlers := make([]func(*Config), len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	appLog.Info("config reloaded", "path", w.path)
	for _, handler := range handlers {
		handler(cfg)
	}
}
