package cmd

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pelorus-io/shipbridge/ledger"
	"github.com/pelorus-io/shipbridge/pipeline"
)

// CleanupCommand returns the cleanup command: audit the pending ledger for
// stale records and, on confirmation, delete them.
func CleanupCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "List and optionally purge stale pending records",
		Flags: append(CommonFlags(),
			&cli.IntFlag{
				Name:  "older-than",
				Usage: "Age threshold in days",
				Value: 30,
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Purge without confirmation (implies --non-interactive)",
			},
		),
		Action: cleanupAction,
	}
}

func cleanupAction(c *cli.Context) error {
	s, err := newSetup(c, "cleanup")
	if err != nil {
		return err
	}

	policy := s.policy(c)
	if c.Bool("force") {
		policy = pipeline.FixedPolicy{Continue: true, Purge: true}
	}

	flow := &pipeline.Cleanup{
		Ledger: ledger.New(s.cfg.Exchange.PendingDir),
		Policy: policy,
		DryRun: s.dryRun,
		Logger: s.logger,
	}

	olderThan := time.Duration(c.Int("older-than")) * 24 * time.Hour
	if _, _, err := flow.PurgeStale(olderThan); err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	return nil
}
