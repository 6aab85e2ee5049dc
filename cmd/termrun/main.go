// termrun runs one command through the full terminal stack (local PTY
// host, manager, ACP bridge) and prints the captured output and exit
// status. Mainly a smoke-test and integration example.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	acp "github.com/coder/acp-go-sdk"

	"github.com/GriffinCanCode/AgentBridge/bridge"
	"github.com/GriffinCanCode/AgentBridge/config"
	"github.com/GriffinCanCode/AgentBridge/host"
	"github.com/GriffinCanCode/AgentBridge/internal/id"
	"github.com/GriffinCanCode/AgentBridge/logging"
	"github.com/GriffinCanCode/AgentBridge/terminal"
)

func main() {
	cwd := flag.String("cwd", "", "Working directory for the command")
	limit := flag.Int("limit", 0, "Output byte limit (0 uses the configured default)")
	timeout := flag.Duration("timeout", 0, "Wait timeout (0 uses the configured default)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: termrun [flags] command [args...]")
		os.Exit(2)
	}

	cfg := config.LoadOrDefault()
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	manager := terminal.NewManager(host.NewLocal(logger), terminal.Options{
		OutputByteLimit: cfg.Terminal.OutputByteLimit,
		IdleThreshold:   cfg.Terminal.IdleThreshold,
		Logger:          logger,
	})

	waitTimeout := cfg.Terminal.WaitTimeout
	if *timeout > 0 {
		waitTimeout = *timeout
	}
	b := bridge.New(manager, bridge.WithWaitTimeout(waitTimeout))

	sessionID := acp.SessionId(id.NewSessionID().String())
	createReq := acp.CreateTerminalRequest{
		SessionId: sessionID,
		Command:   args[0],
		Args:      args[1:],
	}
	if *cwd != "" {
		createReq.Cwd = cwd
	}
	if *limit > 0 {
		createReq.OutputByteLimit = limit
	}

	ctx := context.Background()
	created, err := b.CreateTerminal(ctx, createReq)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create failed: %v\n", err)
		os.Exit(1)
	}
	terminalID := created.TerminalId

	// Forward Ctrl-C as a soft kill so the child is interrupted too.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		_, _ = b.KillTerminalCommand(ctx, acp.KillTerminalCommandRequest{
			SessionId:  sessionID,
			TerminalId: terminalID,
		})
	}()

	exit, err := b.WaitForTerminalExit(ctx, acp.WaitForTerminalExitRequest{
		SessionId:  sessionID,
		TerminalId: terminalID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "wait failed: %v\n", err)
	}

	// Give the PTY reader a moment to drain trailing output.
	time.Sleep(50 * time.Millisecond)

	output, _ := b.TerminalOutput(ctx, acp.TerminalOutputRequest{
		SessionId:  sessionID,
		TerminalId: terminalID,
	})
	fmt.Print(output.Output)
	if output.Truncated {
		fmt.Fprintln(os.Stderr, "[output truncated]")
	}

	b.DisposeSession(sessionID)

	if exit.Signal != nil {
		fmt.Fprintf(os.Stderr, "terminated by signal %s\n", *exit.Signal)
		os.Exit(1)
	}
	if exit.ExitCode != nil {
		os.Exit(*exit.ExitCode)
	}
}
