package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatcherConfig struct {
	Debounce time.Duration
	OnChange func()
	Root     string
}

/*
Watcher calls OnChange once things have been quiet for Debounce after
files under Root change. New directories are picked up as they appear.
*/
type Watcher struct {
	debounce time.Duration
	onChange func()
	root     string
	watcher  *fsnotify.Watcher
}

func NewWatcher(config WatcherConfig) (*Watcher, error) {
	var (
		err     error
		watcher *fsnotify.Watcher
	)

	if config.Debounce <= 0 {
		config.Debounce = 2 * time.Second
	}

	if watcher, err = fsnotify.NewWatcher(); err != nil {
		return nil, fmt.Errorf("error creating library watcher: %w", err)
	}

	result := &Watcher{
		debounce: config.Debounce,
		onChange: config.OnChange,
		root:     config.Root,
		watcher:  watcher,
	}

	if err = result.addTree(config.Root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return result, nil
}

func (w *Watcher) Run(ctx context.Context) {
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)

	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}

			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !w.relevant(event) {
				continue
			}

			if event.Has(fsnotify.Create) {
				_ = w.addTree(event.Name)
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}

			pending = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			slog.Error("library watcher error", "error", err)

		case <-pending:
			pending = nil
			slog.Info("library changed, re-indexing...", "root", w.root)
			w.onChange()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}

	return !strings.HasPrefix(filepath.Base(event.Name), ".")
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if p != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		if err = w.watcher.Add(p); err != nil {
			return fmt.Errorf("error watching '%s': %w", p, err)
		}

		return nil
	})
}
