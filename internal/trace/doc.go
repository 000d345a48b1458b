// Package trace records what the linter is doing while it runs.
//
// It exists to answer two questions that logs answer poorly: where the time
// of a theme run went, and which check is stuck when a run never finishes.
// Checks have no timeout of their own, so a hung check shows up as a
// "check" span that began and never ended while heartbeats keep arriving.
//
// # Usage
//
//	themecheck check --trace=- --trace-level=check ./theme
//
// # Tracers
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes every event immediately (file or stderr)
//   - RingTracer: keeps the last N events, dumped when a check fails
//   - MultiTracer: fans out to several tracers
//
// # Scopes and levels
//
// Scopes go from coarse to fine: ScopeRun (one theme run or one LSP
// analysis), ScopeDocument, ScopeCheck and ScopeNode. A Level admits every
// scope up to its own granularity: LevelRun admits runs, LevelDocument adds
// documents, LevelCheck adds per-check spans, LevelDebug admits everything.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeDocument, uri)
//	defer span.End("")
package trace
