package hotreload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"shadersmith/internal/diag"
	"shadersmith/internal/trace"
)

// ErrWatcherClosed is returned by Register after Close.
var ErrWatcherClosed = errors.New("hotreload: watcher closed")

// Watcher tracks registered files and raises one shared dirty flag when
// any of them changes. It is safe for concurrent use; one instance is
// meant to be shared by every handle of a process.
//
// Files are observed through their parent directories (non-recursive),
// so editors that save by rename keep being followed.
type Watcher struct {
	ctx      context.Context
	reporter diag.Reporter

	dirty atomic.Bool

	mu     sync.Mutex
	fs     *fsnotify.Watcher
	files  map[string]struct{}
	dirs   map[string]struct{}
	closed bool
	done   chan struct{}
}

// NewWatcher returns a watcher whose OS resources are allocated on the
// first Register. Trace events go to the tracer carried by ctx and
// watch errors to reporter (which may be nil).
func NewWatcher(ctx context.Context, reporter diag.Reporter) *Watcher {
	if ctx == nil {
		ctx = context.Background()
	}
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Watcher{
		ctx:      ctx,
		reporter: reporter,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
	}
}

// Register starts watching every path. Registering a path twice is a
// no-op.
func (w *Watcher) Register(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.fs == nil {
		fs, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("hotreload: start watcher: %w", err)
		}
		w.fs = fs
		w.done = make(chan struct{})
		go w.loop(fs, w.done)
	}

	var errs []error
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := w.files[abs]; ok {
			continue
		}
		dir := filepath.Dir(abs)
		if _, ok := w.dirs[dir]; !ok {
			if err := w.fs.Add(dir); err != nil {
				errs = append(errs, fmt.Errorf("watch %s: %w", dir, err))
				continue
			}
			w.dirs[dir] = struct{}{}
		}
		w.files[abs] = struct{}{}
		trace.Point(w.ctx, trace.ScopeDetail, "watch.add", abs)
	}
	return errors.Join(errs...)
}

// Watching reports whether path is registered.
func (w *Watcher) Watching(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[abs]
	return ok
}

// PollAndClear reports whether any registered file changed since the
// previous call, and resets the flag.
func (w *Watcher) PollAndClear() bool {
	return w.dirty.Swap(false)
}

// Close stops the event loop and releases OS resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	fs, done := w.fs, w.done
	w.mu.Unlock()

	if fs == nil {
		return nil
	}
	err := fs.Close()
	<-done
	return err
}

func (w *Watcher) loop(fs *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-fs.Errors:
			if !ok {
				return
			}
			w.reporter.Report(diag.New(diag.SevWarning, diag.HotWatchFailed, "", err.Error()))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	name := filepath.Clean(ev.Name)
	w.mu.Lock()
	_, ok := w.files[name]
	w.mu.Unlock()
	if !ok {
		return
	}
	w.dirty.Store(true)
	trace.Point(w.ctx, trace.ScopeDetail, "watch.event", ev.Op.String()+" "+name)
}
