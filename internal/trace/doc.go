// Package trace records the timeline of shader builds and reloads.
//
// Tracing is off unless a command enables it:
//
//	shadersmith build --trace=- --trace-level=stage shaders/
//
// # Tracers
//
//   - Nop: zero-overhead tracer used when tracing is disabled
//   - StreamTracer: writes each event immediately (file or stderr)
//   - RingTracer: keeps the last N events for dumping after a failure
//   - MultiTracer: fans out to several tracers
//
// # Levels and scopes
//
// A Level admits every event whose Scope is at least as coarse:
//
//   - LevelCommand: CLI command boundaries
//   - LevelBuild: one span per shader build or reload
//   - LevelStage: cache lookup, compile and cache store inside a build
//   - LevelDebug: everything, including watcher events
//
// # Context propagation
//
// The tracer and the active span travel through context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span, ctx := trace.StartSpan(ctx, trace.ScopeBuild, "build")
//	defer span.End("")
package trace
