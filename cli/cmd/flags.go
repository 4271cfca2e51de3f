// Package cmd provides CLI commands for the shipbridge binary.
package cmd

import "github.com/urfave/cli/v2"

// Exit codes shared by the flow commands.
//   - 0: success, every unit handled
//   - 1: run-level failure (bad config, unreachable state, aborted)
//   - 2: partial failure, at least one unit quarantined
const (
	exitSuccess = 0
	exitFailure = 1
	exitPartial = 2
)

// Shared flags for all commands.
var (
	// ConfigFlag locates the YAML config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to shipbridge YAML config file",
		Value:   "shipbridge.yaml",
		EnvVars: []string{"SHIPBRIDGE_CONFIG"},
	}

	// DryRunFlag evaluates a flow without mutating anything: no remote
	// writes, no file moves, no state changes.
	DryRunFlag = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Evaluate without creating orders, moving files, or saving state",
	}

	// NonInteractiveFlag replaces console prompts with fixed safe answers.
	NonInteractiveFlag = &cli.BoolFlag{
		Name:  "non-interactive",
		Usage: "Never prompt; take the safe default on every decision",
	}
)

// CommonFlags returns the flags every flow command carries.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		DryRunFlag,
		NonInteractiveFlag,
	}
}
