package terminal

import (
	"sync"
	"time"
)

// State is the lifecycle state of a terminal handle.
type State int

const (
	// StateRunning means the command has been handed to the host and no
	// completion signal has been observed.
	StateRunning State = iota
	// StateCompleted means an authoritative completion signal arrived.
	StateCompleted
	// StateKilled means an interrupt was requested before completion.
	StateKilled
	// StateReleased means resources were freed. Terminal and irreversible.
	StateReleased
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateKilled:
		return "killed"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// ExitStatus reports how a command finished. Both fields may be nil, e.g.
// when a terminal was closed externally with no reported status.
type ExitStatus struct {
	ExitCode *int    `json:"exitCode,omitempty"`
	Signal   *string `json:"signal,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate stored status.
func (s *ExitStatus) Clone() *ExitStatus {
	if s == nil {
		return nil
	}
	out := &ExitStatus{}
	if s.ExitCode != nil {
		code := *s.ExitCode
		out.ExitCode = &code
	}
	if s.Signal != nil {
		sig := *s.Signal
		out.Signal = &sig
	}
	return out
}

// Handle is one live or recently-completed command execution. The identity
// and request snapshot fields are immutable after creation; state and exit
// status are guarded by mu.
type Handle struct {
	ID        string
	SessionID string

	Command string
	Args    []string
	Cwd     string
	Env     map[string]string

	OutputByteLimit int
	CreatedAt       time.Time

	mu          sync.Mutex
	state       State
	exitStatus  *ExitStatus
	completedAt time.Time

	hostTerminal hostTerminal
	idle         *idleMonitor
	unsubscribe  []func()
}

// hostTerminal is the subset of the host capability a handle holds onto.
// Declared locally so the core has no import cycle with package host.
type hostTerminal interface {
	SendText(text string, execute bool) error
	Dispose()
}

// State returns the handle's current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// ExitStatus returns a copy of the recorded exit status, nil while running.
func (h *Handle) ExitStatus() *ExitStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitStatus.Clone()
}

// CompletedAt returns when the handle left Running, zero while running.
func (h *Handle) CompletedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.completedAt
}

// markCompleted records the first completion observation. Reports whether
// this call was the one that performed the transition.
func (h *Handle) markCompleted(to State, status *ExitStatus, at time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateRunning {
		return false
	}
	h.state = to
	h.exitStatus = status.Clone()
	h.completedAt = at
	return true
}

// markReleased transitions to Released. Reports whether the transition
// happened (false if already released).
func (h *Handle) markReleased() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateReleased {
		return false
	}
	h.state = StateReleased
	return true
}

// Wiring accessors. Host callbacks can fire while Create is still
// attaching the terminal, subscriptions, and idle monitor, so all access
// goes through the handle's mutex.

func (h *Handle) setTerminal(t hostTerminal) {
	h.mu.Lock()
	h.hostTerminal = t
	h.mu.Unlock()
}

func (h *Handle) terminal() hostTerminal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hostTerminal
}

func (h *Handle) setIdle(m *idleMonitor) {
	h.mu.Lock()
	h.idle = m
	h.mu.Unlock()
}

func (h *Handle) stopIdle() {
	h.mu.Lock()
	m := h.idle
	h.mu.Unlock()
	if m != nil {
		m.Stop()
	}
}

func (h *Handle) addUnsubscribe(fn func()) {
	h.mu.Lock()
	h.unsubscribe = append(h.unsubscribe, fn)
	h.mu.Unlock()
}

func (h *Handle) takeUnsubscribes() []func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.unsubscribe
	h.unsubscribe = nil
	return subs
}
