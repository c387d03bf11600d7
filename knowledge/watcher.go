package knowledge

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/kbchat/logging"
)

// Watcher monitors a knowledge directory and reports document mutations so
// callers can reload the combined knowledge base. It does not reload
// anything itself.
type Watcher struct {
	watcher *fsnotify.Watcher
	exts    map[string]struct{}
	logger  logging.Logger
}

// NewWatcher creates a watcher for the given document extensions (defaults
// to .md and .txt when empty).
func NewWatcher(extensions []string, logger logging.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = []string{".md", ".txt"}
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &Watcher{watcher: w, exts: exts, logger: logger}, nil
}

// Watch starts monitoring dir and emits the path of each created, modified
// or removed document until ctx is cancelled. The returned channel is
// closed when watching stops.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}
	changes := make(chan string, 16)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isDocument(event.Name) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case changes <- event.Name:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("knowledge watcher error", "error", err)
			}
		}
	}()
	return changes, nil
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) isDocument(path string) bool {
	_, ok := w.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}
