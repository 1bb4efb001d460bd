package config

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"selectrate/modules/currency"
)

const reloadDebounce = 200 * time.Millisecond

// Watcher serves the preferences from a config file and reloads them when the file changes.
// An edit that fails to load is logged and the previous preferences stay in effect.
type Watcher struct {
	path    string
	logger  log.Logger
	current atomic.Pointer[Config]
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

var _ currency.PreferencesSource = (*Watcher)(nil)

func NewWatcher(path string, initial *Config, logger log.Logger) (*Watcher, error) {
	if initial == nil {
		return nil, errors.New("config watcher needs an initial config")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Editors often replace the file, so the directory is watched instead.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w := &Watcher{
		path:    filepath.Clean(path),
		logger:  log.With(logger, "component", "config_watcher"),
		watcher: fw,
	}
	w.current.Store(initial)
	return w, nil
}

func (w *Watcher) Config() *Config {
	return w.current.Load()
}

func (w *Watcher) Preferences() currency.Preferences {
	return w.current.Load().CurrencyPreferences()
}

// Run processes file events until ctx is done, then closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			level.Warn(w.logger).Log("msg", "watch error", "err", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, func() { w.Reload() })
}

// Reload reads the file now. It reports whether the new config was applied.
func (w *Watcher) Reload() bool {
	cfg, err := Load(w.path)
	if err != nil {
		level.Warn(w.logger).Log("msg", "ignoring invalid config", "path", w.path, "err", err)
		return false
	}
	var previous string
	if prev := w.current.Swap(cfg); prev != nil {
		previous = prev.Preferences.TargetCurrency
	}
	level.Info(w.logger).Log(
		"msg", "preferences reloaded",
		"target", cfg.Preferences.TargetCurrency,
		"aliases", len(cfg.Preferences.Aliases),
		"previous_target", previous,
	)
	return true
}
