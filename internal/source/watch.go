package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned by Next after Close.
var ErrWatcherClosed = errors.New("watcher closed")

// Watcher reports writes to one file. It watches the file's directory so
// editors that replace the file on save are noticed too.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	dir     string
}

// Watch starts watching path.
func Watch(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Info("fsnotify watching dir", "dir", dir)
	return &Watcher{watcher: w, path: abs, dir: dir}, nil
}

// Next blocks until the file is written or created.
func (w *Watcher) Next(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return nil
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			log.Debug("fsnotify error", "dir", w.dir, "error", err)
		}
	}
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
