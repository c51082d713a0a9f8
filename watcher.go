package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
)

const watchSettleDelay = 150 * time.Millisecond

// watchPaths calls onChange for every input file that is written or
// recreated until ctx is done. Parent directories are watched so editors
// that replace files atomically are still seen. Bursts of events for the
// same file collapse into one call.
func watchPaths(ctx context.Context, paths []string, logger *slog.Logger, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]string, len(paths))
	watchedDirs := make(map[string]struct{})
	for _, path := range paths {
		absolutePath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		watched[absolutePath] = path

		dir := filepath.Dir(absolutePath)
		if _, ok := watchedDirs[dir]; ok {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		watchedDirs[dir] = struct{}{}
	}

	settle := time.NewTimer(watchSettleDelay)
	settle.Stop()
	defer settle.Stop()

	pending := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path, ok := watched[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			logger.Debug("input changed", "path", path, "op", event.Op.String())
			pending[path] = struct{}{}
			settle.Reset(watchSettleDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)
		case <-settle.C:
			changed := lo.Keys(pending)
			slices.Sort(changed)
			clear(pending)
			for _, path := range changed {
				onChange(path)
			}
		}
	}
}
