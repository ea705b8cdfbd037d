// Package dropwatch reports files dropped into a directory.
package dropwatch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher emits the path of every created or rewritten file whose extension
// is accepted.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
}

func New(extensions []string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher failed: %w", err)
	}
	return &Watcher{watcher: w, extensions: normalize(extensions)}, nil
}

// Watch calls onFile for each accepted file in dir until ctx is done or the
// watcher is stopped. onErr receives watcher errors and may be nil.
func (w *Watcher) Watch(ctx context.Context, dir string, onFile func(path string), onErr func(error)) error {
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s failed: %w", dir, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if !w.Accepts(event.Name) {
					continue
				}
				onFile(event.Name)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				if onErr != nil {
					onErr(err)
				}
			}
		}
	}()
	return nil
}

func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// Accepts reports whether path has one of the watched extensions, ignoring
// case. An empty extension list accepts everything.
func (w *Watcher) Accepts(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func normalize(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
