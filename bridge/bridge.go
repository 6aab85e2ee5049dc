// Package bridge adapts the terminal manager to the calling convention of
// the Agent Client Protocol: every request carries a session id, and
// results use the protocol's wire shapes. The bridge holds no state of its
// own: it is pure delegation plus shape conversion.
package bridge

import (
	"context"
	"fmt"
	"time"

	acp "github.com/coder/acp-go-sdk"

	"github.com/GriffinCanCode/AgentBridge/terminal"
)

// Bridge exposes the five ACP terminal primitives over a Manager.
type Bridge struct {
	manager     *terminal.Manager
	waitTimeout time.Duration
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithWaitTimeout overrides the default timeout applied to
// terminal/wait_for_exit calls (the protocol request carries none).
// Zero or negative waits indefinitely.
func WithWaitTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.waitTimeout = d }
}

// New creates a bridge over the given manager.
func New(manager *terminal.Manager, opts ...Option) *Bridge {
	b := &Bridge{
		manager:     manager,
		waitTimeout: terminal.DefaultWaitTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CreateTerminal handles terminal/create.
func (b *Bridge) CreateTerminal(ctx context.Context, params acp.CreateTerminalRequest) (acp.CreateTerminalResponse, error) {
	req := terminal.CreateRequest{
		SessionID: string(params.SessionId),
		Command:   params.Command,
		Args:      params.Args,
	}
	if params.Cwd != nil {
		req.Cwd = *params.Cwd
	}
	if len(params.Env) > 0 {
		req.Env = make(map[string]string, len(params.Env))
		for _, envVar := range params.Env {
			req.Env[envVar.Name] = envVar.Value
		}
	}
	if params.OutputByteLimit != nil {
		req.OutputByteLimit = max(0, *params.OutputByteLimit)
	}

	terminalID, err := b.manager.Create(ctx, req)
	if err != nil {
		return acp.CreateTerminalResponse{}, fmt.Errorf("failed to create terminal: %w", err)
	}
	return acp.CreateTerminalResponse{TerminalId: terminalID}, nil
}

// TerminalOutput handles terminal/output.
func (b *Bridge) TerminalOutput(ctx context.Context, params acp.TerminalOutputRequest) (acp.TerminalOutputResponse, error) {
	snap := b.manager.Output(params.TerminalId)
	return acp.TerminalOutputResponse{
		Output:     snap.Output,
		Truncated:  snap.Truncated,
		ExitStatus: toWireStatus(snap.ExitStatus),
	}, nil
}

// WaitForTerminalExit handles terminal/wait_for_exit. The bridge's default
// timeout bounds the wait; a timed-out wait returns an empty status, which
// the agent distinguishes from completion by re-polling terminal/output.
func (b *Bridge) WaitForTerminalExit(ctx context.Context, params acp.WaitForTerminalExitRequest) (acp.WaitForTerminalExitResponse, error) {
	status, err := b.manager.WaitForExit(ctx, params.TerminalId, b.waitTimeout)
	if err != nil {
		return acp.WaitForTerminalExitResponse{}, fmt.Errorf("wait interrupted: %w", err)
	}
	if status == nil {
		return acp.WaitForTerminalExitResponse{}, nil
	}
	return acp.WaitForTerminalExitResponse{
		ExitCode: status.ExitCode,
		Signal:   status.Signal,
	}, nil
}

// KillTerminalCommand handles terminal/kill.
func (b *Bridge) KillTerminalCommand(ctx context.Context, params acp.KillTerminalCommandRequest) (acp.KillTerminalCommandResponse, error) {
	if !b.manager.Kill(params.TerminalId, "") {
		return acp.KillTerminalCommandResponse{}, fmt.Errorf("terminal %s not found", params.TerminalId)
	}
	return acp.KillTerminalCommandResponse{}, nil
}

// ReleaseTerminal handles terminal/release.
func (b *Bridge) ReleaseTerminal(ctx context.Context, params acp.ReleaseTerminalRequest) (acp.ReleaseTerminalResponse, error) {
	if !b.manager.Release(params.TerminalId) {
		return acp.ReleaseTerminalResponse{}, fmt.Errorf("terminal %s not found", params.TerminalId)
	}
	return acp.ReleaseTerminalResponse{}, nil
}

// DisposeSession releases every terminal created under a session; used for
// cleanup when the agent conversation ends.
func (b *Bridge) DisposeSession(sessionID acp.SessionId) int {
	return b.manager.DisposeSession(string(sessionID))
}

func toWireStatus(status *terminal.ExitStatus) *acp.TerminalExitStatus {
	if status == nil {
		return nil
	}
	return &acp.TerminalExitStatus{
		ExitCode: status.ExitCode,
		Signal:   status.Signal,
	}
}
