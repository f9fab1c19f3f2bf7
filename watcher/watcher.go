// Package watcher reports changes to files and directories, collapsing bursts
// of filesystem events into a single callback.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	"github.com/vcnkl/areamap/debounce"
	"github.com/vcnkl/areamap/logger"
)

const DefaultWait = 100 * time.Millisecond

type Options struct {
	Wait   time.Duration
	Clock  clockwork.Clock
	Logger logger.Logger
}

// Watcher follows files by watching their parent directory, so editors that
// replace a file through a rename are still noticed.
type Watcher struct {
	files     map[string]bool
	dirs      map[string]bool
	fsw       *fsnotify.Watcher
	debouncer *debounce.Debouncer[string]
	log       logger.Logger

	mu       sync.Mutex
	onChange func(path string)
}

func NewWatcher(paths []string, opts Options) (*Watcher, error) {
	if opts.Wait == 0 {
		opts.Wait = DefaultWait
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	w := &Watcher{
		files: make(map[string]bool),
		dirs:  make(map[string]bool),
		log:   opts.Logger,
	}

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			w.dirs[abs] = true
			continue
		}
		w.files[abs] = true
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsw = fsw
	w.debouncer = debounce.New(w.fire, opts.Wait, debounce.WithClock(opts.Clock))

	return w, nil
}

func (w *Watcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is done. A change still waiting out the quiet
// period when ctx ends is dropped.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.watchDirs() {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch path %s: %w", dir, err)
		}
	}

	defer w.debouncer.Cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if w.matches(event.Name) {
				w.debouncer.Trigger(event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", logger.Err(err))
		}
	}
}

func (w *Watcher) Stop() {
	w.debouncer.Cancel()
	w.fsw.Close()
}

func (w *Watcher) watchDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	for dir := range w.dirs {
		add(dir)
	}
	for file := range w.files {
		add(filepath.Dir(file))
	}
	return dirs
}

func (w *Watcher) matches(path string) bool {
	path = filepath.Clean(path)
	if w.files[path] {
		return true
	}
	return w.dirs[filepath.Dir(path)]
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	fn := w.onChange
	w.mu.Unlock()

	w.log.Debug("file changed", logger.String("path", path))
	if fn != nil {
		fn(path)
	}
}
