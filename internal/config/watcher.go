// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG WATCHER
// =============================================================================

// Watcher reloads the configuration when the config file changes on disk.
// Editors typically fire several events per save, so changes are debounced.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(*Config)

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// NewWatcher creates a watcher on the given config directory. onChange is
// invoked with the freshly loaded config after each settled change; reloads
// that fail validation are dropped and the previous config stays in effect.
func NewWatcher(dir string, onChange func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dir:      dir,
		debounce: 250 * time.Millisecond,
		onChange: onChange,
		watcher:  fsw,
	}, nil
}

// Watch starts watching. It returns after wiring the directory; event
// processing runs in a background goroutine until Close.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	go w.processEvents(ctx)
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	return w.watcher.Close()
}

// processEvents debounces write events on the config files and reloads.
func (w *Watcher) processEvents(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			cfg, err := LoadFrom(w.dir)
			if err != nil {
				continue
			}
			w.onChange(cfg)

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// relevant filters events down to writes of the config files themselves.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(ev.Name)
	return name == "config.toml" || name == "config.json"
}
