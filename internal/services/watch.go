package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"yarnpull/internal/config"
)

// DefaultWatchDebounce is how long a parent folder must stay quiet before a run starts.
// The rig writes a recording in several chunks.
const DefaultWatchDebounce = 2 * time.Second

// Watch re-runs the batch workflow on parent whenever a data file appears or changes
// below it, after debounce of quiet. onRun receives the outcome of each run. Watch
// blocks until ctx is cancelled.
//
// fsnotify is not recursive, so the parent, its series folders and their measurement
// folders are watched individually; folders created later are added as they appear.
// Plot folders are never watched, which keeps the runs from triggering themselves.
func (s *AnalysisService) Watch(ctx context.Context, parent string, debounce time.Duration, onRun func(*RunResult, error)) error {
	if err := s.validator.ValidateInputDirectory(parent); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := s.watchTree(watcher, parent, 2); err != nil {
		return err
	}
	s.logger.Info("Watching for new recordings",
		slog.String("parent", parent),
		slog.Duration("debounce", debounce))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !s.relevant(watcher, parent, event) {
				continue
			}
			s.logger.Debug("Change detected",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Stop()
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			result, err := s.RunBatch(ctx, parent)
			if err != nil && ctx.Err() != nil {
				return nil
			}
			if err != nil {
				s.logger.Error("Batch run failed", slog.String("error", err.Error()))
			}
			if onRun != nil {
				onRun(result, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("Watcher error", slog.String("error", err.Error()))
		}
	}
}

// relevant reports whether event should trigger a run. New folders are added to the
// watch list on the way.
func (s *AnalysisService) relevant(watcher *fsnotify.Watcher, parent string, event fsnotify.Event) bool {
	rel, err := filepath.Rel(parent, event.Name)
	if err != nil || isPlotPath(rel) {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// series folders sit at depth 1, measurement folders at depth 2
			depth := strings.Count(filepath.ToSlash(rel), "/") + 1
			if depth <= 2 {
				if err := s.watchTree(watcher, event.Name, 2-depth); err != nil {
					s.logger.Warn("Failed to watch new folder",
						slog.String("path", event.Name),
						slog.String("error", err.Error()))
				}
			}
			// a folder moved in whole brings its files along without events
			return true
		}
	}
	return strings.HasSuffix(event.Name, s.cfg.Input.FileSuffix)
}

// watchTree adds dir and its subfolders down to depth levels, skipping plot folders
func (s *AnalysisService) watchTree(watcher *fsnotify.Watcher, dir string, depth int) error {
	if err := watcher.Add(dir); err != nil {
		return err
	}
	if depth == 0 {
		return nil
	}
	subdirs, err := s.discovery.FindSeries(dir)
	if err != nil {
		return err
	}
	for _, sub := range subdirs {
		if err := s.watchTree(watcher, sub.Path, depth-1); err != nil {
			return err
		}
	}
	return nil
}

func isPlotPath(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == config.PlotsDirName || part == config.CombinedPlotsDirName {
			return true
		}
	}
	return false
}
