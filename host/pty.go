package host

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"

	"github.com/GriffinCanCode/AgentBridge/logging"
)

// Local is a Capability backed by a pseudo-terminal on the local machine.
// It has no UI: Show and Hide are no-ops, and the terminal's lifetime is
// the lifetime of the spawned process.
type Local struct {
	logger *logging.Logger
}

// NewLocal creates a local PTY capability.
func NewLocal(logger *logging.Logger) *Local {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Local{logger: logger.Named("host")}
}

// Create spawns opts.ShellPath under a PTY and returns its terminal handle
// and event descriptor. All three event subscriptions are supported.
func (l *Local) Create(ctx context.Context, opts CreateOptions) (Terminal, Events, error) {
	if opts.ShellPath == "" {
		return nil, Events{}, fmt.Errorf("shell path is required")
	}

	cmd := exec.Command(opts.ShellPath, opts.ShellArgs...)
	cmd.Dir = opts.Cwd
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	for key, value := range opts.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, Events{}, fmt.Errorf("failed to start PTY: %w", err)
	}

	t := &localTerminal{
		name:           opts.Name,
		cmd:            cmd,
		ptmx:           ptmx,
		logger:         l.logger,
		dataHandlers:   make(map[int]func(string)),
		endHandlers:    make(map[int]func(*int)),
		closedHandlers: make(map[int]func()),
	}

	go t.readLoop()
	go t.waitLoop()

	events := Events{
		OnData:           t.onData,
		OnExecutionEnded: t.onExecutionEnded,
		OnClosed:         t.onClosed,
	}
	return t, events, nil
}

// localTerminal is one PTY-backed terminal.
type localTerminal struct {
	name string
	cmd  *exec.Cmd
	ptmx *os.File

	logger *logging.Logger

	mu             sync.Mutex
	nextSub        int
	dataHandlers   map[int]func(string)
	endHandlers    map[int]func(*int)
	closedHandlers map[int]func()

	// Chunks read before the first data subscriber, replayed on subscribe.
	pending []string

	ended    bool
	exitCode *int
	closed   bool
	disposed bool
}

// readLoop pumps PTY output to data subscribers. A read error means the
// child's side of the PTY is gone (Linux reports EIO rather than EOF).
func (t *localTerminal) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := t.ptmx.Read(buf)
		if n > 0 {
			t.dispatchData(string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

// waitLoop reaps the child and fires execution-ended, then closed.
func (t *localTerminal) waitLoop() {
	_ = t.cmd.Wait()

	var exitCode *int
	if state := t.cmd.ProcessState; state != nil {
		if code := state.ExitCode(); code >= 0 {
			exitCode = &code
		}
	}

	t.mu.Lock()
	t.ended = true
	t.exitCode = exitCode
	handlers := collectValues(t.endHandlers)
	t.mu.Unlock()

	for _, handler := range handlers {
		handler(exitCode)
	}
	t.fireClosed()
}

func (t *localTerminal) dispatchData(chunk string) {
	t.mu.Lock()
	if len(t.dataHandlers) == 0 {
		t.pending = append(t.pending, chunk)
		t.mu.Unlock()
		return
	}
	handlers := collectValues(t.dataHandlers)
	t.mu.Unlock()

	for _, handler := range handlers {
		handler(chunk)
	}
}

func (t *localTerminal) fireClosed() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	handlers := collectValues(t.closedHandlers)
	t.mu.Unlock()

	for _, handler := range handlers {
		handler()
	}
}

func (t *localTerminal) onData(handler func(string)) func() {
	t.mu.Lock()
	key := t.nextSub
	t.nextSub++
	t.dataHandlers[key] = handler
	replay := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, chunk := range replay {
		handler(chunk)
	}
	return func() {
		t.mu.Lock()
		delete(t.dataHandlers, key)
		t.mu.Unlock()
	}
}

func (t *localTerminal) onExecutionEnded(handler func(*int)) func() {
	t.mu.Lock()
	if t.ended {
		exitCode := t.exitCode
		t.mu.Unlock()
		handler(exitCode)
		return func() {}
	}
	key := t.nextSub
	t.nextSub++
	t.endHandlers[key] = handler
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.endHandlers, key)
		t.mu.Unlock()
	}
}

func (t *localTerminal) onClosed(handler func()) func() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		handler()
		return func() {}
	}
	key := t.nextSub
	t.nextSub++
	t.closedHandlers[key] = handler
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.closedHandlers, key)
		t.mu.Unlock()
	}
}

// SendText writes to the PTY input. With execute, a newline is appended so
// the shell runs the text.
func (t *localTerminal) SendText(text string, execute bool) error {
	t.mu.Lock()
	disposed := t.disposed
	t.mu.Unlock()
	if disposed {
		return fmt.Errorf("terminal %q is disposed", t.name)
	}

	if execute {
		text += "\n"
	}
	_, err := t.ptmx.Write([]byte(text))
	return err
}

// Show is a no-op: a local PTY has no UI surface.
func (t *localTerminal) Show(preserveFocus bool) {}

// Hide is a no-op.
func (t *localTerminal) Hide() {}

// Dispose kills the child if still running and closes the PTY.
func (t *localTerminal) Dispose() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	t.disposed = true
	t.mu.Unlock()

	if t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	_ = t.ptmx.Close()
	t.fireClosed()
}

func collectValues[K comparable, V any](m map[K]V) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
