// Package watch implements `canopy watch`: a companion to `canopy
// update` that re-runs it on a debounce whenever the source tree
// changes (SPEC_FULL.md §3.15). It only decides *when* to rerun; what
// actually reruns is still decided by internal/changes' content-hash
// classification inside the update it triggers.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/canopy-docs/canopy/internal/discovery"
	"github.com/canopy-docs/canopy/internal/logging"
)

// Watcher watches root for filesystem changes and invokes onTrigger once
// per debounce window, after events stop arriving for debounce.
type Watcher struct {
	root      string
	debounce  time.Duration
	ignore    *discovery.Matcher
	onTrigger func()
	logger    *logging.Logger
	fsWatcher *fsnotify.Watcher
}

// New constructs a Watcher. ignore is typically built from
// config.DiscoveryConfig.Exclude the same way internal/discovery.Walk
// uses it, so watch skips exactly the directories canopy itself never
// documents.
func New(root string, debounce time.Duration, ignore *discovery.Matcher, onTrigger func(), logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if ignore == nil {
		ignore = discovery.NewMatcher(nil)
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:      root,
		debounce:  debounce,
		ignore:    ignore,
		onTrigger: onTrigger,
		logger:    logger,
		fsWatcher: fsWatcher,
	}
	if err := w.addDirs(); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// addDirs recursively registers root and every non-ignored subdirectory
// with the underlying fsnotify watcher.
func (w *Watcher) addDirs() error {
	return filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root {
			rel, relErr := filepath.Rel(w.root, path)
			if relErr == nil && w.ignore.Match(rel, true) {
				return filepath.SkipDir
			}
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Warn("watch: failed to add directory", "path", path, "error", err.Error())
		}
		return nil
	})
}

// Run blocks, dispatching debounced onTrigger calls until ctx is
// cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if w.shouldIgnore(event.Name) {
				continue
			}
			w.logger.Debug("watch: event observed", "path", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch: fsnotify error", "error", err.Error())
		case <-timerCh:
			timerCh = nil
			w.logger.Info("watch: debounce elapsed, triggering update")
			if w.onTrigger != nil {
				w.onTrigger()
			}
		}
	}
}

func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	info, statErr := os.Stat(path)
	isDir := statErr == nil && info.IsDir()
	return w.ignore.Match(rel, isDir)
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
