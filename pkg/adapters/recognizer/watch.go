package recognizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchFile calls reload with the new content of path each time it is written.
// The directory is watched so editors that replace the file are followed too.
// It blocks until ctx is done.
func watchFile(ctx context.Context, path string, logger *slog.Logger, reload func([]byte) error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch dir %q: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			data, err := os.ReadFile(abs)
			if err != nil {
				logger.Warn("Failed to read changed file", "path", abs, "err", err)
				continue
			}
			if err := reload(data); err != nil {
				logger.Error("Reload rejected, keeping previous version", "path", abs, "err", err)
				continue
			}
			logger.Info("Reloaded", "path", abs)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "err", err)
		}
	}
}
