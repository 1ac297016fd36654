package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watcher reloads the config file when it changes on disk.
type Watcher struct {
	mu     sync.Mutex
	logger *slog.Logger
	path   string

	onChange func(*Config)

	fsw    *fsnotify.Watcher
	doneCh chan struct{}

	running bool
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	if path == "" {
		path = ConfigPath()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: path, logger: logger}
}

// SetChangeCallback sets the callback invoked with each successfully
// reloaded config. Invalid files are logged and skipped.
func (w *Watcher) SetChangeCallback(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = callback
}

// Start begins watching. The parent directory is watched because editors
// usually replace the file instead of writing it in place.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.fsw = fsw
	w.doneCh = make(chan struct{})
	w.running = true
	go w.watchLoop(ctx, fsw, w.doneCh)

	w.logger.Debug("config watcher started", "path", w.path)
	return nil
}

// Stop stops watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	fsw, done := w.fsw, w.doneCh
	w.mu.Unlock()

	_ = fsw.Close()
	<-done
	w.logger.Debug("config watcher stopped")
}

func (w *Watcher) watchLoop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	var debounce <-chan time.Time
	name := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				debounce = time.After(reloadDebounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		case <-debounce:
			debounce = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.logger.Warn("ignoring invalid config change", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path)
	if callback != nil {
		callback(cfg)
	}
}
