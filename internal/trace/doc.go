// Package trace is the structured event log of the smartcast toolchain.
//
// Events are grouped into spans (begin/end pairs) and instant points, tagged
// with a scope describing their granularity. A Tracer is carried through
// the call chain in a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeUnit, "unit:sample", 0)
//	defer span.End("")
//
// # Levels
//
//   - LevelOff: nothing
//   - LevelError: only inconsistencies reported via Point with ScopeError
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: per-unit events
//   - LevelDebug: everything, including individual queries
//
// # Tracers
//
//   - Nop: zero-overhead default
//   - StreamTracer: writes text or NDJSON immediately
//   - RingTracer: keeps the last N events for a dump on panic
//   - MultiTracer: fan-out
package trace
