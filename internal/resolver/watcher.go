package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces bursts of filesystem events (editors write
// certificate files in several operations) into one recompute.
const debounceWindow = 250 * time.Millisecond

// Watch monitors the local certificate file for changes and pushes a
// fresh health snapshot to subscribers whenever it is rewritten,
// created, or removed. It blocks until the context is cancelled.
// When no local certificate is configured there is nothing to watch
// and Watch returns immediately.
func (r *Resolver) Watch(ctx context.Context) error {
	if r.opts.LocalCertFile == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent directory: replace-by-rename is the common way
	// certificate files get rotated, and a watch on the file itself
	// would be lost on rename.
	dir := filepath.Dir(r.opts.LocalCertFile)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(r.opts.LocalCertFile)

	var timer *time.Timer

	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed")
			}

			if filepath.Clean(event.Name) != target {
				continue
			}

			r.logger.Debug("local certificate changed", slog.String("op", event.Op.String()))

			if timer != nil {
				timer.Stop()
			}

			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			r.notify()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed")
			}

			r.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
