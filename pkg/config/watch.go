package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fluxorio/threadshare/pkg/logging"
	"github.com/fluxorio/threadshare/pkg/share"
)

// settleDelay lets a writer finish before the file is reread
const settleDelay = 20 * time.Millisecond

// Watch reloads path with LoadFile whenever it changes and publishes the
// result to live. Files that fail to load or validate are logged and
// skipped, leaving the previous configuration in place. Watch blocks until
// ctx is done and returns ctx.Err().
func Watch(ctx context.Context, path string, live *share.LockedCell[Config], logger logging.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files by rename, so watch the directory
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("config watcher: %v", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			drain(watcher.Events, settleDelay)
			reload(target, live, logger)
		}
	}
}

// drain discards events until none arrive for delay
func drain(events <-chan fsnotify.Event, delay time.Duration) {
	for {
		select {
		case <-events:
		case <-time.After(delay):
			return
		}
	}
}

func reload(path string, live *share.LockedCell[Config], logger logging.Logger) {
	cfg, err := LoadFile(path)
	if err != nil {
		logger.Warnf("config reload from %s skipped: %v", path, err)
		return
	}
	if cfg == live.Get() {
		return
	}
	live.Set(cfg)
	logger.Infof("config reloaded from %s", path)
}
