// Package logging provides structured logging built on zap.
//
// Production builds emit JSON; development builds emit colorized console
// output with stacktraces. Subsystems receive a *Logger by injection and
// attach stable fields (terminal_id, session_id) at the call site.
package logging
