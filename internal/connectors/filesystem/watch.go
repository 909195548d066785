package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/policyhelper/internal/logger"
)

// DefaultDebounce is how long the watcher waits for a burst of changes to settle.
const DefaultDebounce = 2 * time.Second

// Watch blocks until ctx is cancelled, calling onChange once after each
// settled burst of create, write, remove or rename events on accepted files.
func (s *Source) Watch(ctx context.Context, onChange func()) error {
	debounce := s.debounce
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := s.addDirs(watcher); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && s.recursive {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !isHidden(fi.Name()) {
					_ = watcher.Add(ev.Name)
				}
			}
			if isHidden(filepath.Base(ev.Name)) || !s.accept(ev.Name) {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("filesystem: %s %s", ev.Op, ev.Name)
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(debounce)
			pending = true

		case <-timer.C:
			pending = false
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("filesystem: watch error: %v", err)
		}
	}
}

func (s *Source) addDirs(w *fsnotify.Watcher) error {
	if err := w.Add(s.rootPath); err != nil {
		return fmt.Errorf("watch %s: %w", s.rootPath, err)
	}
	if !s.recursive {
		return nil
	}
	return filepath.WalkDir(s.rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == s.rootPath {
			return err
		}
		if isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
