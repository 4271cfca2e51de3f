package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pelorus-io/shipbridge/ledger"
	"github.com/pelorus-io/shipbridge/pipeline"
)

// InboundCommand returns the inbound command: poll completed shipments and
// generate confirmation output for matched pending orders.
func InboundCommand() *cli.Command {
	return &cli.Command{
		Name:   "inbound",
		Usage:  "Poll completed shipments and write confirmation files",
		Flags:  CommonFlags(),
		Action: inboundAction,
	}
}

func inboundAction(c *cli.Context) error {
	s, err := newSetup(c, "inbound")
	if err != nil {
		return err
	}
	if s.cfg.Exchange.OutputDir == "" {
		return cli.Exit("exchange.output_dir is required for inbound", exitFailure)
	}

	primary, secondary, err := s.accounts()
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	accounts := []pipeline.Account{primary}
	if secondary != nil {
		accounts = append(accounts, *secondary)
	}

	flow := &pipeline.Inbound{
		Accounts:     accounts,
		Ledger:       ledger.New(s.cfg.Exchange.PendingDir),
		State:        s.stateStore(),
		OutputDir:    s.cfg.Exchange.OutputDir,
		ShipFrom:     s.shipFrom(),
		LookbackDays: s.cfg.State.LookbackDays,
		PageSize:     s.cfg.State.PageSize,
		DryRun:       s.dryRun,
		Logger:       s.logger,
	}

	report, err := flow.Run(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	return reportExit(report)
}
