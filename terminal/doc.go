// Package terminal implements the terminal execution subsystem: it lets a
// remote agent run shell commands inside the host environment, captures
// their output under a bounded byte budget, detects completion despite
// unreliable or absent completion signals, supports cooperative
// cancellation, and releases resources deterministically.
//
// Components:
//   - Store: per-terminal ring of output chunks with tail-truncation: the
//     most recent output is always retained in full, truncation removes
//     history, never the live edge.
//   - Tracker: per-terminal exit-status state plus a waiter queue, resolved
//     by whichever completion signal arrives first; later signals are no-ops.
//   - idleMonitor: advisory "no output for N seconds" flag for hosts with
//     no authoritative completion event. Logged only, never acted on.
//   - Registry: the authoritative id -> handle map plus a session index for
//     bulk cleanup.
//   - Manager: the public create/output/wait/kill/release operations
//     orchestrating all of the above over a host.Capability.
//
// Lifecycle per terminal:
//
//	Running -> Completed (authoritative exit reported)
//	Running -> Killed    (interrupt requested)
//	{Completed|Killed} -> Released (resources freed; terminal state)
//
// A handle is created once per Create call and never reused. After release
// every operation on the id degrades to "not found" instead of failing;
// callers race releases against polls by design.
//
// Kill is a soft kill: the host capability exposes no process-termination
// primitive, only the terminal's input channel, so Kill writes the Ctrl-C
// control sequence and records the requested signal. Callers needing hard
// cancellation pair Kill with Release.
package terminal
