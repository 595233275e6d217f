// Package diag defines the diagnostic model shared by the build engine and
// the hot-reload runtime.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity: Info, Warning or Error.
//   - Code: compact numeric identifier (see codes.go) with a stable string
//     form such as INC1001 or CMP2002.
//   - Message: human oriented text. Compiler output is passed through
//     verbatim, so messages may span several lines.
//   - Path and Line: optional location of the offending file or directive.
//   - Notes: optional extra context lines.
//
// Typed errors produced by the build layers implement Diagnoser, and
// FromError turns any error into a Diagnostic.
//
// # Emitting diagnostics
//
// Consumers take a Reporter. Build-time failures are returned as errors to
// whoever invoked the build; run-time recompilation failures are routed to
// a Reporter instead and never propagate to the host application.
//
// Implementations:
//
//   - WriterReporter: renders to an io.Writer, colored when asked to.
//   - BagReporter: collects into a Bag, used by tests and batch builds.
//   - DedupReporter: drops repeats of an identical diagnostic.
//   - NopReporter: discards everything.
package diag
