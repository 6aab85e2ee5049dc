package host

import "context"

// CreateOptions describes the terminal the host should spawn and display.
type CreateOptions struct {
	// Name is the human-readable label shown by the host UI.
	Name string
	// ShellPath is the executable to run. ShellArgs are its arguments.
	ShellPath string
	ShellArgs []string
	// Cwd is the working directory; empty means the host's default.
	Cwd string
	// Env is merged over the host's environment.
	Env map[string]string
}

// Terminal is one host-side terminal widget.
type Terminal interface {
	// SendText writes text to the terminal's input channel. When execute is
	// true the host appends a newline so the shell runs the text.
	SendText(text string, execute bool) error

	// Show reveals the terminal in the host UI.
	Show(preserveFocus bool)

	// Hide removes the terminal from view without destroying it.
	Hide()

	// Dispose destroys the host-side terminal object.
	Dispose()
}

// Events describes the event subscriptions a host exposes for one terminal.
// Each field may be nil: not every host version supports every event, and
// consumers must degrade accordingly. Each subscription returns an
// unsubscribe function.
type Events struct {
	// OnData fires for every chunk the terminal writes.
	OnData func(handler func(data string)) (unsubscribe func())

	// OnExecutionEnded fires when shell integration reports the command
	// finished. exitCode is nil when the host cannot determine it.
	OnExecutionEnded func(handler func(exitCode *int)) (unsubscribe func())

	// OnClosed fires when the terminal is closed, by the user or the host.
	OnClosed func(handler func()) (unsubscribe func())
}

// Capability is the surface the terminal subsystem consumes from the host
// environment. The event descriptor is resolved once at create time.
type Capability interface {
	Create(ctx context.Context, opts CreateOptions) (Terminal, Events, error)
}
