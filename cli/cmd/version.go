package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pelorus-io/shipbridge/types"
)

// VersionCommand returns the version command. It never touches config,
// network, or filesystem state.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(*cli.Context) error {
			fmt.Printf("shipbridge %s (commit: %s)\n", types.Version, commit)
			return nil
		},
	}
}
