package rules

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the engine whenever its rules file is written, created,
// renamed or removed. It blocks until ctx is done. The parent directory is
// watched so editors that replace the file atomically are picked up.
func Watch(ctx context.Context, engine *Engine, logger *slog.Logger) error {
	if engine == nil || engine.Path() == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create rules watcher: %w", err)
	}
	defer watcher.Close()

	path := filepath.Clean(engine.Path())
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}
	logger.Info("watching rules file", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if err := engine.Reload(); err != nil {
				logger.Error("failed to reload rules, keeping previous set", "error", err, "path", path)
				continue
			}
			logger.Info("rules reloaded", "path", path, "rules", engine.Len())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("rules watcher error", "error", err)
		}
	}
}
