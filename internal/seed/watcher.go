package seed

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/dealroom/internal/clientstore"
)

// ReloadFunc receives a freshly parsed seed.
type ReloadFunc func(clientstore.Seed)

const reloadDebounce = 200 * time.Millisecond

// Watch watches the seed file at path and calls fn with the re-parsed seed
// each time it changes, until ctx is cancelled. The parent directory is
// watched rather than the file itself so that editors which save by
// renaming a temp file over the original are picked up. Bursts of events are
// debounced; a seed that fails to parse is logged and skipped.
func Watch(ctx context.Context, path string, logger *slog.Logger, fn ReloadFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("seed watcher: started", slog.String("path", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("seed watcher: stopped")
			return nil

		case <-reloadCh:
			s, loadErr := Load(abs)
			if loadErr != nil {
				logger.Warn("seed watcher: reload failed", slog.String("path", abs), slog.String("error", loadErr.Error()))
				continue
			}
			logger.Info("seed watcher: reloaded", slog.String("path", abs))
			fn(s)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("seed watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
