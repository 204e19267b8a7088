package rules

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates the rule cache when rule files change on disk, so a
// running service picks up edited rules without a restart.
type Watcher struct {
	dirs   []string
	cache  *Cache
	logger *slog.Logger
}

// NewWatcher creates a watcher over the directories containing the given glob
// patterns. Patterns are reduced to their static directory prefix; the watch
// is recursive only insofar as fsnotify watches the listed directories.
func NewWatcher(patterns []string, cache *Cache, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	seen := make(map[string]bool)
	var dirs []string
	for _, p := range patterns {
		dir := staticPrefix(p)
		if dir == "" {
			dir = "."
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return &Watcher{dirs: dirs, cache: cache, logger: logger}
}

// Run watches until ctx is cancelled. Watch errors are logged, not fatal: the
// cache TTL still bounds staleness when watching fails.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			w.logger.Warn("Cannot watch rule directory", "dir", dir, "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Info("Rule file changed, invalidating cache",
				"path", event.Name, "op", event.Op.String())
			w.cache.Invalidate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Rule watcher error", "error", err)
		}
	}
}

// staticPrefix returns the directory part of a glob pattern up to the first
// meta character.
func staticPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		pattern = pattern[:i]
	}
	return filepath.Dir(pattern)
}
