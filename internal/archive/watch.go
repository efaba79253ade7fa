package archive

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"evtrace/internal/logging"
)

// Event reports a change Watch observed in the live archive.
type Event struct {
	// NewLocations holds any locations discovered since the last Event.
	NewLocations []*Location
	// ChunkRollover is set to a location's directory when one of its chunk
	// files changed (new chunk sealed, active chunk grew).
	ChunkRollover string
}

// Watch follows a still-growing archive directory, notifying onEvent of new
// locations (a manifest rewrite) and chunk-file changes, until ctx is
// cancelled.
func Watch(ctx context.Context, a *Archive, logger *slog.Logger, onEvent func(Event)) error {
	logger = logging.Default(logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(a.Root); err != nil {
		return err
	}
	for _, loc := range a.Locations {
		if err := watcher.Add(loc.Dir); err != nil {
			logger.Warn("failed to watch location directory", "dir", loc.Dir, "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleWatchEvent(ctx, a, watcher, logger, ev, onEvent)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("fsnotify error", "error", err)
		}
	}
}

func handleWatchEvent(ctx context.Context, a *Archive, watcher *fsnotify.Watcher, logger *slog.Logger, ev fsnotify.Event, onEvent func(Event)) {
	switch {
	case ev.Name == manifestOrRootPath(a) && ev.Has(fsnotify.Write):
		fresh, err := Reopen(ctx, a)
		if err != nil {
			logger.Warn("failed to reopen archive after manifest change", "error", err)
			return
		}
		for _, loc := range fresh {
			if err := watcher.Add(loc.Dir); err != nil {
				logger.Warn("failed to watch new location directory", "dir", loc.Dir, "error", err)
			}
		}
		if len(fresh) > 0 {
			onEvent(Event{NewLocations: fresh})
		}

	case ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create):
		for _, loc := range a.Locations {
			if isWithinDir(loc.Dir, ev.Name) {
				onEvent(Event{ChunkRollover: loc.Dir})
				return
			}
		}
	}
}

func manifestOrRootPath(a *Archive) string {
	return filepath.Join(a.Root, manifestFileName)
}

func isWithinDir(dir, path string) bool {
	return filepath.Dir(path) == filepath.Clean(dir)
}
