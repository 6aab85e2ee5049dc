// Package host defines the terminal capability the SDK consumes from its
// host environment, plus a local PTY-backed implementation for running
// headless (tests, CI, command-line use).
//
// Editor integrations implement Capability over their native terminal
// widget. The Events descriptor carries optional subscriptions because not
// every host version reports shell execution end or terminal close; the
// subsystem must work, degraded, with only a subset.
package host
