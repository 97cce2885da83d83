package roster

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the roster whenever its file changes, until ctx is cancelled.
// The parent directory is watched rather than the file itself because
// editors and atomic writers replace the file by rename, which would
// otherwise drop the watch.
func (s *Store) Watch(ctx context.Context, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("roster watcher: started", slog.String("path", s.path))

	// Debounce bursts of events from editors that write in several steps.
	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time
	schedule := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("roster watcher: stopped")
			return nil

		case <-reloadCh:
			if err := s.Reload(); err != nil {
				logger.Warn("roster reload failed", slog.String("error", err.Error()))
				continue
			}
			snap := s.Snapshot()
			logger.Info("roster reloaded",
				slog.Int("day_shift", len(snap.DayShift)),
				slog.Int("night_shift", len(snap.NightShift)))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != s.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("roster watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
