// Package main provides the shipbridge CLI entrypoint.
//
// Usage:
//
//	shipbridge <command> [options]
//
// Exit codes for the flow commands (outbound, inbound):
//   - 0: success, every unit handled
//   - 1: run-level failure (bad config, aborted, unreachable state)
//   - 2: partial failure, at least one unit quarantined
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pelorus-io/shipbridge/cli/cmd"
	"github.com/pelorus-io/shipbridge/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "shipbridge",
		Usage:          "Shipment order reconciliation bridge",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.OutboundCommand(),
			cmd.InboundCommand(),
			cmd.StoresCommand(),
			cmd.CleanupCommand(),
			cmd.VersionCommand(commit),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit(), including wrapped
// ExitCoder errors.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
