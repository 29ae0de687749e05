package page

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce is how long the watcher waits after the last write before reloading.
const reloadDebounce = 200 * time.Millisecond

// FileWatcher reloads a document whenever its backing file changes on disk,
// turning edits to the served file into mutation records.
type FileWatcher struct {
	doc      *Document
	path     string
	debounce time.Duration
	onError  func(error)
}

// NewFileWatcher creates a watcher for path. onError may be nil.
func NewFileWatcher(doc *Document, path string, onError func(error)) *FileWatcher {
	if onError == nil {
		onError = func(error) {}
	}
	return &FileWatcher{
		doc:      doc,
		path:     filepath.Clean(path),
		debounce: reloadDebounce,
		onError:  onError,
	}
}

// Run watches the file's directory so editors that replace the file by
// rename are still seen. Blocks until ctx is cancelled.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.path, err)
	}

	// Single debounce timer, initialized stopped; first event starts it.
	debounce := time.NewTimer(w.debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounce.C:
			if err := w.reload(); err != nil {
				w.onError(err)
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.onError(fmt.Errorf("file watcher: %w", err))
		}
	}
}

func (w *FileWatcher) reload() error {
	f, err := os.Open(w.path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", w.path, err)
	}
	defer f.Close()
	return w.doc.Reload(f)
}
