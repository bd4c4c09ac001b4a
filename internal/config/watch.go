package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 200 * time.Millisecond

// Watch reloads path whenever it is written and hands the new config to
// apply. Invalid files are logged and ignored. The parent directory is
// watched so editors that replace the file are picked up. Blocks until ctx
// is cancelled.
func Watch(ctx context.Context, path string, log *slog.Logger, apply func(*Config)) error {
	if path == "" {
		path = DefaultPath()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	name := filepath.Clean(path)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", "err", err)
		case <-timer.C:
			cfg, err := Load(path)
			if err != nil {
				log.Warn("config reload failed", "path", path, "err", err)
				continue
			}
			log.Info("config reloaded", "path", path)
			apply(cfg)
		}
	}
}
