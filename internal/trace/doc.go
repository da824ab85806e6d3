// Package trace records what deprecdoc is doing while it walks a corpus.
//
// Spans and point events are emitted at four scopes:
//
//   - ScopeRun: the whole extraction run
//   - ScopePhase: discover, parse and emit phases
//   - ScopeFile: one source document
//   - ScopeDirective: directive and resolver decisions
//
// Levels filter by scope: phase keeps run and phase events, detail adds
// files, debug keeps everything.
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, "library/os.rst", 0)
//	defer span.End("")
//
// Enable from the command line:
//
//	deprecdoc --trace=- --trace-level=detail Doc/
package trace
