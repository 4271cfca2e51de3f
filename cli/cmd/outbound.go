package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pelorus-io/shipbridge/ledger"
	"github.com/pelorus-io/shipbridge/pipeline"
)

// OutboundCommand returns the outbound command: scan the exchange inbox and
// create remote orders for each work unit.
func OutboundCommand() *cli.Command {
	return &cli.Command{
		Name:   "outbound",
		Usage:  "Scan the exchange inbox and create remote orders",
		Flags:  CommonFlags(),
		Action: outboundAction,
	}
}

func outboundAction(c *cli.Context) error {
	s, err := newSetup(c, "outbound")
	if err != nil {
		return err
	}
	if s.cfg.Exchange.InboxDir == "" || s.cfg.Exchange.ProcessedDir == "" || s.cfg.Exchange.ErrorDir == "" {
		return cli.Exit("exchange.inbox_dir, processed_dir and error_dir are required for outbound", exitFailure)
	}

	primary, secondary, err := s.accounts()
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	flow := &pipeline.Outbound{
		Inbox:        s.cfg.Exchange.InboxDir,
		ProcessedDir: s.cfg.Exchange.ProcessedDir,
		ErrorDir:     s.cfg.Exchange.ErrorDir,
		Primary:      primary,
		Secondary:    secondary,
		Ledger:       ledger.New(s.cfg.Exchange.PendingDir),
		Policy:       s.policy(c),
		DryRun:       s.dryRun,
		Logger:       s.logger,
	}

	source, err := s.enricher()
	if err != nil {
		return cli.Exit(fmt.Sprintf("enrichment: %v", err), exitFailure)
	}
	if source != nil {
		defer func() { _ = source.Close() }()
		flow.Enrich = source
	}

	report, err := flow.Run(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	return reportExit(report)
}
