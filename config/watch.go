package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a configuration file when it changes on disk and hands the
// fresh Config to a callback. Callers use it to rebuild registry-derived
// state and drop memoized lookups whenever connection parameters change.
type Watcher struct {
	path     string
	onChange func(*Config)
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher starts watching path. onChange runs on every successful reload;
// parse failures are logged and the previous configuration stays in effect.
func NewWatcher(path string, onChange func(*Config), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}
	// Watch the directory: editors commonly replace the file wholesale,
	// which drops a watch registered on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		logger:   logger.With("component", "ConfigWatcher"),
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			cfg, err := LoadFromFile(w.path)
			if err != nil {
				w.logger.Warn("Config changed but reload failed, keeping previous", "path", w.path, "error", err)
				continue
			}
			w.logger.Info("Config reloaded", "path", w.path)
			w.onChange(cfg)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", "error", err)
		}
	}
}
