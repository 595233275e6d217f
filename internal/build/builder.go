// Package build composes fingerprinting, the cache and the compiler
// backend into a single build operation.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shadersmith/internal/backend"
	"shadersmith/internal/cache"
	"shadersmith/internal/metrics"
	"shadersmith/internal/observ"
	"shadersmith/internal/options"
	"shadersmith/internal/trace"
)

// Artifact is an immutable build result.
type Artifact struct {
	// Sources is the primary path followed by every include in
	// resolution order.
	Sources []string
	// Binary is never empty.
	Binary []uint32
	// Cached is set when the binary came from the cache.
	Cached  bool
	Timings Timings
}

// Config wires a Builder. Only Adapter is required.
type Config struct {
	Adapter  *backend.Adapter
	Cache    *cache.Cache
	Metrics  *metrics.Collector
	Timer    *observ.Timer
	Progress ProgressSink
}

// Builder is safe for concurrent use.
type Builder struct {
	cfg Config
}

func New(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

// WithProgress returns a builder sharing b's configuration that reports
// to sink.
func (b *Builder) WithProgress(sink ProgressSink) *Builder {
	cfg := b.cfg
	cfg.Progress = sink
	return &Builder{cfg: cfg}
}

// Cache returns the configured cache, possibly nil.
func (b *Builder) Cache() *cache.Cache { return b.cfg.Cache }

// Metrics returns the configured collector, possibly nil.
func (b *Builder) Metrics() *metrics.Collector { return b.cfg.Metrics }

func (b *Builder) emit(file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if b.cfg.Progress == nil {
		return
	}
	b.cfg.Progress.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

// Build compiles src, whose file is primaryPath, with opts. The path may
// be synthetic for inline sources; relative includes resolve against its
// directory. Compile errors are returned unchanged and never retried.
func (b *Builder) Build(ctx context.Context, src []byte, primaryPath string, opts options.BuildOptions) (Artifact, error) {
	if b.cfg.Adapter == nil {
		return Artifact{}, fmt.Errorf("build: no compiler backend configured")
	}
	primary, err := filepath.Abs(primaryPath)
	if err != nil {
		return Artifact{}, fmt.Errorf("build: resolve %s: %w", primaryPath, err)
	}

	span, ctx := trace.StartSpan(ctx, trace.ScopeBuild, "build")
	span.WithExtra("path", primary)
	art, err := b.build(ctx, src, primary, opts)
	if err != nil {
		span.End("error")
		b.cfg.Metrics.Build(false)
		b.emit(primary, StageCompile, StatusError, err, 0)
		return Artifact{}, err
	}
	span.End(fmt.Sprintf("%d words, cached=%t", len(art.Binary), art.Cached))
	b.cfg.Metrics.Build(true)
	return art, nil
}

func (b *Builder) build(ctx context.Context, src []byte, primary string, opts options.BuildOptions) (Artifact, error) {
	var timings Timings
	keyOpts := opts
	if k, ok := opts.ResolveKind(primary); ok {
		keyOpts.Kind = k
	}
	key := cache.Fingerprint(src, b.cfg.Adapter.IncludeBase(), keyOpts)

	if b.cfg.Cache != nil {
		span, _ := trace.StartSpan(ctx, trace.ScopeStage, string(StageLookup))
		span.WithExtra("key", key.String())
		b.emit(primary, StageLookup, StatusWorking, nil, 0)
		entry, status, err := b.cfg.Cache.Lookup(key, primary)
		if err != nil {
			trace.Point(ctx, trace.ScopeDetail, "cache.error", err.Error())
		}
		dur := span.End(status.String())
		timings.Set(StageLookup, dur)
		b.cfg.Timer.Add(string(StageLookup), dur)
		b.cfg.Metrics.CacheLookup(status.String())
		if status == cache.Hit {
			b.emit(primary, StageLookup, StatusCached, nil, dur)
			return Artifact{Sources: entry.Sources, Binary: entry.Words, Cached: true, Timings: timings}, nil
		}
	}

	span, cctx := trace.StartSpan(ctx, trace.ScopeStage, string(StageCompile))
	b.emit(primary, StageCompile, StatusWorking, nil, 0)
	out, err := b.cfg.Adapter.Compile(cctx, src, primary, opts)
	dur := span.End("")
	timings.Set(StageCompile, dur)
	b.cfg.Timer.Add(string(StageCompile), dur)
	b.cfg.Metrics.ObserveCompile(dur)
	if err != nil {
		return Artifact{}, err
	}
	b.emit(primary, StageCompile, StatusDone, nil, dur)

	if b.cfg.Cache != nil {
		span, _ := trace.StartSpan(ctx, trace.ScopeStage, string(StageStore))
		// Caching is an optimization; failures only show up in traces
		// and metrics.
		if err := b.cfg.Cache.Store(key, out.Words, out.Sources); err != nil {
			trace.Point(ctx, trace.ScopeDetail, "cache.error", err.Error())
			b.cfg.Metrics.CacheStoreFailed()
			span.End("failed")
		} else {
			dur := span.End("")
			timings.Set(StageStore, dur)
			b.cfg.Timer.Add(string(StageStore), dur)
		}
	}

	return Artifact{Sources: out.Sources, Binary: out.Words, Timings: timings}, nil
}

// BuildFile reads path and builds it.
func (b *Builder) BuildFile(ctx context.Context, path string, opts options.BuildOptions) (Artifact, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		lerr := &LoadError{Path: path, Err: err}
		b.emit(path, StageLookup, StatusError, lerr, 0)
		return Artifact{}, lerr
	}
	return b.Build(ctx, src, path, opts)
}
