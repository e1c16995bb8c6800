package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherClosed is returned by Watch after Close.
var ErrWatcherClosed = errors.New("watcher closed")

// Reload reports that a watched shape file was written or replaced.
type Reload struct {
	Path string
	Op   fsnotify.Op
}

// Watcher delivers Reload events for watched files. It watches each file's
// directory so editors that save by rename are still seen. Events arrive on
// a channel; consumers apply them on their own goroutine.
type Watcher struct {
	fs     *fsnotify.Watcher
	events chan Reload
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
	log    *zap.Logger

	mu     sync.Mutex
	files  map[string]struct{}
	dirs   map[string]struct{}
	closed bool
}

// NewWatcher starts a watcher with no files.
func NewWatcher(log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		fs:     fsWatch,
		events: make(chan Reload, 16),
		errors: make(chan error, 4),
		done:   make(chan struct{}),
		log:    log,
		files:  make(map[string]struct{}),
		dirs:   make(map[string]struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Watch starts watching path. Builtin references are ignored.
func (w *Watcher) Watch(path string) error {
	if IsBuiltin(path) {
		return nil
	}
	key := Key(path)
	dir := filepath.Dir(key)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if _, ok := w.dirs[dir]; !ok {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.dirs[dir] = struct{}{}
	}
	w.files[key] = struct{}{}
	w.log.Debug("watching shape", zap.String("path", key))
	return nil
}

// Events returns the reload channel. It is closed by Close.
func (w *Watcher) Events() <-chan Reload {
	return w.events
}

// Errors returns watcher errors. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and closes both channels.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()

		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
		close(w.events)
		close(w.errors)
	})
	return err
}

func (w *Watcher) watched(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[filepath.Clean(name)]
	return ok
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !w.watched(e.Name) {
				continue
			}
			w.log.Debug("shape changed", zap.String("path", e.Name), zap.Stringer("op", e.Op))
			select {
			case w.events <- Reload{Path: filepath.Clean(e.Name), Op: e.Op}:
			case <-w.done:
				return
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", zap.Error(err))
			select {
			case w.errors <- err:
			default:
			}

		case <-w.done:
			return
		}
	}
}
