package terminal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBridge/host"
	"github.com/GriffinCanCode/AgentBridge/internal/id"
	"github.com/GriffinCanCode/AgentBridge/logging"
)

// Subsystem defaults, negotiable per call or via Options.
const (
	DefaultOutputByteLimit = 64 * 1024
	DefaultWaitTimeout     = 30 * time.Second
	DefaultIdleThreshold   = 5 * time.Second
)

// SignalInterrupt is the signal reported for a soft kill with no explicit
// signal. interruptSequence is the control byte written to the terminal's
// input (the Ctrl-C equivalent).
const (
	SignalInterrupt   = "SIGINT"
	interruptSequence = "\x03"
)

// ErrHostUnavailable is returned by Create when no host terminal capability
// was provided; nothing useful can proceed without one.
var ErrHostUnavailable = errors.New("host terminal capability is unavailable")

// Options configures a Manager.
type Options struct {
	// OutputByteLimit is the default per-terminal retained-output budget,
	// used when a create request does not negotiate one.
	OutputByteLimit int
	// IdleThreshold and IdleCheckInterval tune the advisory idle monitor.
	// Zero values use DefaultIdleThreshold and half the threshold.
	IdleThreshold     time.Duration
	IdleCheckInterval time.Duration
	// Logger defaults to a no-op logger.
	Logger *logging.Logger
	// Registerer receives the subsystem's Prometheus metrics. Nil keeps
	// them on a private registry.
	Registerer prometheus.Registerer
}

func (o *Options) applyDefaults() {
	if o.OutputByteLimit <= 0 {
		o.OutputByteLimit = DefaultOutputByteLimit
	}
	if o.IdleThreshold <= 0 {
		o.IdleThreshold = DefaultIdleThreshold
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
}

// CreateRequest is an immutable snapshot of what the agent asked to run.
type CreateRequest struct {
	SessionID       string
	Command         string
	Args            []string
	Cwd             string
	Env             map[string]string
	OutputByteLimit int
}

// OutputSnapshot is the result of polling a terminal's output. ExitStatus
// is nil while the terminal is still running.
type OutputSnapshot struct {
	Output     string
	Truncated  bool
	ExitStatus *ExitStatus
}

// Manager implements the terminal execution subsystem: it owns the registry,
// output buffer store and completion tracker, and orchestrates the host
// terminal capability. One Manager serves many sessions.
type Manager struct {
	host     host.Capability
	store    *Store
	tracker  *Tracker
	registry *Registry
	metrics  *Metrics
	logger   *logging.Logger
	opts     Options
}

// NewManager creates a terminal manager over the given host capability.
func NewManager(capability host.Capability, opts Options) *Manager {
	opts.applyDefaults()
	return &Manager{
		host:     capability,
		store:    NewStore(),
		tracker:  NewTracker(),
		registry: NewRegistry(),
		metrics:  NewMetrics(opts.Registerer),
		logger:   opts.Logger.Named("terminal"),
		opts:     opts,
	}
}

// Create registers a new terminal, asks the host to spawn the command, and
// returns the fresh terminal id. The spawn itself is fire-and-forget: a
// command that fails to start surfaces later as an abnormal completion with
// no exit status, not as a create-time error. Only a missing host
// capability fails the call.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (string, error) {
	if m.host == nil {
		return "", ErrHostUnavailable
	}
	if req.Command == "" {
		return "", errors.New("command is required")
	}

	terminalID := id.NewTerminalID().String()
	limit := req.OutputByteLimit
	if limit <= 0 {
		limit = m.opts.OutputByteLimit
	}

	m.store.Init(terminalID, limit)
	m.tracker.Register(terminalID)

	h := &Handle{
		ID:              terminalID,
		SessionID:       req.SessionID,
		Command:         req.Command,
		Args:            req.Args,
		Cwd:             req.Cwd,
		Env:             req.Env,
		OutputByteLimit: limit,
		CreatedAt:       time.Now(),
		state:           StateRunning,
	}
	m.registry.Insert(h)
	m.metrics.TerminalsCreated.Inc()
	m.metrics.TerminalsActive.Set(float64(m.registry.Count()))

	ht, events, err := m.host.Create(ctx, host.CreateOptions{
		Name:      fmt.Sprintf("agent: %s", req.Command),
		ShellPath: req.Command,
		ShellArgs: req.Args,
		Cwd:       req.Cwd,
		Env:       req.Env,
	})
	if err != nil {
		m.logger.Warn("host failed to spawn command",
			zap.String("terminal_id", terminalID),
			zap.String("command", req.Command),
			zap.Error(err),
		)
		m.complete(terminalID, StateCompleted, nil)
		return terminalID, nil
	}
	h.setTerminal(ht)

	if events.OnData != nil {
		unsub := events.OnData(func(data string) {
			m.guard(terminalID, func() {
				if m.store.Append(terminalID, data) {
					m.metrics.Truncations.Inc()
				}
				m.metrics.OutputBytes.Add(float64(len(data)))
			})
		})
		h.addUnsubscribe(unsub)
	}
	if events.OnExecutionEnded != nil {
		unsub := events.OnExecutionEnded(func(exitCode *int) {
			m.guard(terminalID, func() {
				m.complete(terminalID, StateCompleted, &ExitStatus{ExitCode: exitCode})
			})
		})
		h.addUnsubscribe(unsub)
	}
	if events.OnClosed != nil {
		unsub := events.OnClosed(func() {
			m.guard(terminalID, func() {
				m.complete(terminalID, StateCompleted, nil)
			})
		})
		h.addUnsubscribe(unsub)
	}
	if events.OnExecutionEnded == nil && events.OnClosed == nil {
		m.logger.Warn("host exposes no completion events; relying on waits timing out",
			zap.String("terminal_id", terminalID),
		)
	}

	h.setIdle(newIdleMonitor(terminalID, m.store, m.tracker,
		m.opts.IdleThreshold, m.opts.IdleCheckInterval, m.logger))

	m.logger.Info("terminal created",
		zap.String("terminal_id", terminalID),
		zap.String("session_id", req.SessionID),
		zap.String("command", req.Command),
		zap.Int("output_byte_limit", limit),
	)
	return terminalID, nil
}

// Output reads a terminal's retained output and, once completion has been
// observed, its exit status. Unknown or released ids read as empty rather
// than failing: callers race releases against polls by design.
func (m *Manager) Output(terminalID string) OutputSnapshot {
	snap := m.store.Read(terminalID)
	out := OutputSnapshot{
		Output:    snap.Output,
		Truncated: snap.Truncated,
	}
	if status, resolved := m.tracker.Status(terminalID); resolved {
		out.ExitStatus = status
	}
	return out
}

// WaitForExit blocks until the terminal completes, the timeout fires, or
// ctx is cancelled. timeout <= 0 waits indefinitely. A timeout yields
// (nil, nil), a defined outcome rather than an error, and never affects the
// terminal or other waiters.
func (m *Manager) WaitForExit(ctx context.Context, terminalID string, timeout time.Duration) (*ExitStatus, error) {
	status, err := m.tracker.Wait(ctx, terminalID, timeout)
	if err != nil {
		return nil, err
	}
	if status == nil {
		if _, resolved := m.tracker.Status(terminalID); !resolved {
			if _, ok := m.registry.Get(terminalID); ok {
				m.metrics.WaitTimeouts.Inc()
				m.logger.Debug("wait for exit timed out",
					zap.String("terminal_id", terminalID),
					zap.Duration("timeout", timeout),
				)
			}
		}
	}
	return status, nil
}

// Kill requests a soft kill: the host capability exposes no direct process
// termination, only the terminal's input channel, so Kill writes the
// interrupt control sequence, optimistically transitions to Killed, and
// records the signal as the exit status. Best effort: success means the
// interrupt was delivered, not that the process terminated. A failed send
// leaves the terminal unchanged so the caller can retry.
func (m *Manager) Kill(terminalID, signal string) bool {
	h, ok := m.registry.Get(terminalID)
	if !ok {
		return false
	}
	ht := h.terminal()
	if ht == nil {
		return false
	}

	if err := ht.SendText(interruptSequence, false); err != nil {
		m.logger.Warn("failed to deliver interrupt",
			zap.String("terminal_id", terminalID),
			zap.Error(err),
		)
		return false
	}

	if signal == "" {
		signal = SignalInterrupt
	}
	status := &ExitStatus{Signal: &signal}
	if m.tracker.Resolve(terminalID, status) {
		h.markCompleted(StateKilled, status, time.Now())
		h.stopIdle()
		m.metrics.Kills.Inc()
		m.logger.Info("terminal killed",
			zap.String("terminal_id", terminalID),
			zap.String("signal", signal),
		)
	}
	return true
}

// Release frees everything the terminal owns: idle monitor, host-side
// terminal object, output buffer, completion entry, registry and session
// index rows. Idempotent: releasing an unknown or already-released id
// reports false without panicking.
func (m *Manager) Release(terminalID string) bool {
	h, ok := m.registry.Remove(terminalID)
	if !ok {
		return false
	}

	h.stopIdle()
	for _, unsub := range h.takeUnsubscribes() {
		m.guard(terminalID, unsub)
	}
	if ht := h.terminal(); ht != nil {
		m.guard(terminalID, ht.Dispose)
	}
	m.store.Dispose(terminalID)
	m.tracker.Dispose(terminalID)
	h.markReleased()

	m.metrics.Releases.Inc()
	m.metrics.TerminalsActive.Set(float64(m.registry.Count()))
	m.logger.Info("terminal released",
		zap.String("terminal_id", terminalID),
		zap.String("session_id", h.SessionID),
	)
	return true
}

// DisposeSession releases every terminal registered under a session and
// returns how many were released. Used for bulk cleanup when a logical
// conversation ends.
func (m *Manager) DisposeSession(sessionID string) int {
	released := 0
	for _, terminalID := range m.registry.BySession(sessionID) {
		if m.Release(terminalID) {
			released++
		}
	}
	if released > 0 {
		m.logger.Info("session disposed",
			zap.String("session_id", sessionID),
			zap.Int("terminals_released", released),
		)
	}
	return released
}

// Handle looks up a live handle by terminal id.
func (m *Manager) Handle(terminalID string) (*Handle, bool) {
	return m.registry.Get(terminalID)
}

// complete records the first completion observation for a terminal. Later
// signals are no-ops; events arriving after release are dropped.
func (m *Manager) complete(terminalID string, to State, status *ExitStatus) {
	h, ok := m.registry.Get(terminalID)
	if !ok {
		return
	}
	if !m.tracker.Resolve(terminalID, status) {
		return
	}
	h.markCompleted(to, status, time.Now())
	h.stopIdle()

	fields := []zap.Field{zap.String("terminal_id", terminalID)}
	if status != nil && status.ExitCode != nil {
		fields = append(fields, zap.Int("exit_code", *status.ExitCode))
	}
	m.logger.Info("terminal completed", fields...)
}

// guard isolates host callback faults: a panic inside one terminal's event
// handler is logged and swallowed so it cannot corrupt sibling terminals.
func (m *Manager) guard(terminalID string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("host event handler panicked",
				zap.String("terminal_id", terminalID),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}
