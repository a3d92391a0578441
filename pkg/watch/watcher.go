// Package watch re-runs a callback when watched dataset files change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-logr/logr"
	"gopkg.in/fsnotify.v1"
)

// DefaultDebounce is how long the watcher waits for events to settle.
const DefaultDebounce = 200 * time.Millisecond

// ChangeFunc is called once per settled burst of file events.
type ChangeFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   logr.Logger
}

// Watcher watches the directories holding a set of files and reports
// changes to those files only.
type Watcher struct {
	files    map[string]bool
	dirs     []string
	debounce time.Duration
	onChange ChangeFunc
	logger   logr.Logger
	watcher  *fsnotify.Watcher
}

// New starts watching the directories containing paths. Events are only
// delivered once Run is called.
func New(paths []string, onChange ChangeFunc, options Options) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if onChange == nil {
		return nil, fmt.Errorf("no change callback configured")
	}

	files := make(map[string]bool, len(paths))
	dirSet := make(map[string]bool)
	for _, path := range paths {
		absolute, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		files[absolute] = true
		dirSet[filepath.Dir(absolute)] = true
	}
	dirs := make([]string, 0, len(dirSet))
	for dir := range dirSet {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	debounce := options.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := options.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	return &Watcher{
		files:    files,
		dirs:     dirs,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		watcher:  watcher,
	}, nil
}

// Dirs returns the watched directories.
func (w *Watcher) Dirs() []string {
	return append([]string(nil), w.dirs...)
}

// Run delivers change notifications until ctx is done, then releases the
// underlying watcher. Callback and fsnotify errors are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		debounceTimer *time.Timer
		settled       <-chan time.Time
	)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.V(1).Info("dataset changed", "file", event.Name, "op", event.Op.String())

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			settled = debounceTimer.C

		case <-settled:
			settled = nil
			if err := w.onChange(ctx); err != nil {
				w.logger.Error(err, "refresh after change failed")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err, "file watch error")
		}
	}
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	absolute, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[absolute]
}
