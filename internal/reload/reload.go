// Package reload watches profile and policy files and triggers hot-reload.
package reload

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// debounceDelay is how long to wait after the last write before reloading.
const debounceDelay = 500 * time.Millisecond

// Watcher watches configuration files and invokes a reload callback after
// writes settle.
type Watcher struct {
	watcher *fsnotify.Watcher
	reload  func() error
	logger  zerolog.Logger
	paths   []string
}

// New creates a file watcher over the given paths. Empty or missing paths
// are skipped. The callback runs after each debounced change burst.
func New(paths []string, logger zerolog.Logger, reloadFn func() error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	var watched []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := fsw.Add(p); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %q: %w", p, err)
		}
		watched = append(watched, p)
	}

	return &Watcher{
		watcher: fsw,
		reload:  reloadFn,
		logger:  logger,
		paths:   watched,
	}, nil
}

// Paths returns the files actually being watched.
func (w *Watcher) Paths() []string { return w.paths }

// Run watches for file changes and reloads. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, func() {
					if err := w.reload(); err != nil {
						w.logger.Error().Err(err).Msg("hot-reload failed")
					} else {
						w.logger.Info().Msg("hot-reload: configuration reloaded")
					}
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("file watcher error")
		}
	}
}
