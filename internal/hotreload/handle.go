// Package hotreload serves compiled shaders that recompile themselves
// when one of their source files changes on disk.
//
// A Handle is created from a build artifact. The first Data call
// registers the artifact's sources with a shared Watcher; every call
// compares the sources' modification times against a baseline and
// recompiles synchronously when they differ. A failed recompilation is
// reported and the previous binary keeps being served.
//
// Recompiling on the read path keeps the model simple: the reader that
// first observes a change pays for the compile while other readers of
// the same handle wait on its lock. Readers never see a half-updated
// binary.
package hotreload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"shadersmith/internal/build"
	"shadersmith/internal/diag"
	"shadersmith/internal/options"
	"shadersmith/internal/trace"
)

// Config wires a Handle.
type Config struct {
	// Artifact is the build-time result. Its first source is the
	// primary file that gets re-read on reload.
	Artifact build.Artifact
	Options  options.BuildOptions
	Builder  *build.Builder
	// Watcher may be shared by many handles. Nil disables registration;
	// staleness checks still run on every access.
	Watcher *Watcher
	// Sink receives reload failures. Nil discards them.
	Sink diag.Reporter
	// Context carries the tracer used for reload spans.
	Context context.Context
}

// Handle is safe for concurrent use.
type Handle struct {
	builder *build.Builder
	watcher *Watcher
	sink    diag.Reporter
	ctx     context.Context
	opts    options.BuildOptions

	mu         sync.Mutex
	static     []uint32
	live       []uint32
	sources    []string
	baseline   map[string]time.Time
	registered bool
	reloads    int
}

// New returns a handle serving cfg.Artifact. The baseline timestamps are
// taken now.
func New(cfg Config) (*Handle, error) {
	if len(cfg.Artifact.Sources) == 0 {
		return nil, errors.New("hotreload: artifact has no primary source")
	}
	if len(cfg.Artifact.Binary) == 0 {
		return nil, errors.New("hotreload: artifact has no binary")
	}
	if cfg.Builder == nil {
		return nil, errors.New("hotreload: no builder configured")
	}
	sink := cfg.Sink
	if sink == nil {
		sink = diag.NopReporter{}
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	sources := append([]string(nil), cfg.Artifact.Sources...)
	return &Handle{
		builder:  cfg.Builder,
		watcher:  cfg.Watcher,
		sink:     sink,
		ctx:      ctx,
		opts:     cfg.Options.Clone(),
		static:   append([]uint32(nil), cfg.Artifact.Binary...),
		sources:  sources,
		baseline: stamps(sources),
	}, nil
}

// Data returns the current binary, recompiling first if a source changed.
// The returned slice is owned by the caller.
func (h *Handle) Data() []uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.registered {
		h.register(h.sources)
		h.registered = true
	}
	h.refreshIfStale()

	cur := h.live
	if cur == nil {
		cur = h.static
	}
	return append([]uint32(nil), cur...)
}

// StaticBinary returns the binary the handle was created with.
func (h *Handle) StaticBinary() []uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint32(nil), h.static...)
}

// Sources returns the current dependency list, primary first.
func (h *Handle) Sources() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.sources...)
}

// Reloads returns the number of successful recompilations.
func (h *Handle) Reloads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reloads
}

func (h *Handle) register(paths []string) {
	if h.watcher == nil {
		return
	}
	if err := h.watcher.Register(paths...); err != nil {
		h.sink.Report(diag.New(diag.SevWarning, diag.HotWatchFailed, paths[0], err.Error()))
	}
}

// refreshIfStale must be called with h.mu held.
func (h *Handle) refreshIfStale() {
	observed := stamps(h.sources)
	if equalStamps(observed, h.baseline) {
		return
	}

	primary := h.sources[0]
	span, ctx := trace.StartSpan(h.ctx, trace.ScopeBuild, "reload")
	span.WithExtra("path", primary)

	art, err := h.rebuild(ctx, primary)
	if err != nil {
		span.End("error")
		h.builder.Metrics().Reload(false)
		// Advance the baseline so a broken edit is reported once.
		h.baseline = observed
		cause := diag.FromError(err)
		h.sink.Report(diag.New(diag.SevError, diag.HotReloadFailed, primary, "reload failed, serving previous binary").
			WithNote(cause.String()))
		return
	}

	span.End(fmt.Sprintf("%d words", len(art.Binary)))
	h.builder.Metrics().Reload(true)
	h.live = art.Binary
	h.reloads++

	var added []string
	next := make(map[string]time.Time, len(art.Sources))
	for _, p := range art.Sources {
		if t, ok := observed[p]; ok {
			next[p] = t
			continue
		}
		if _, ok := next[p]; !ok {
			next[p] = modTime(p)
			added = append(added, p)
		}
	}
	h.sources = append([]string(nil), art.Sources...)
	h.baseline = next
	if h.registered && len(added) > 0 {
		h.register(added)
	}
}

func (h *Handle) rebuild(ctx context.Context, primary string) (build.Artifact, error) {
	src, err := os.ReadFile(primary)
	if err != nil {
		return build.Artifact{}, &build.LoadError{Path: primary, Err: err}
	}
	return h.builder.Build(ctx, src, primary, h.opts)
}

// modTime returns the zero time for files that cannot be stat'ed, so a
// deleted file counts as a change and its return counts as another.
func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

func stamps(paths []string) map[string]time.Time {
	m := make(map[string]time.Time, len(paths))
	for _, p := range paths {
		if _, ok := m[p]; !ok {
			m[p] = modTime(p)
		}
	}
	return m
}

func equalStamps(a, b map[string]time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for p, t := range a {
		u, ok := b[p]
		if !ok || !t.Equal(u) {
			return false
		}
	}
	return true
}
