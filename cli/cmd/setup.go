package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/pelorus-io/shipbridge/cli/config"
	"github.com/pelorus-io/shipbridge/codec"
	"github.com/pelorus-io/shipbridge/enrich"
	"github.com/pelorus-io/shipbridge/gateway"
	"github.com/pelorus-io/shipbridge/log"
	"github.com/pelorus-io/shipbridge/pipeline"
	"github.com/pelorus-io/shipbridge/runstate"
)

// setup is everything a flow command needs, built once per invocation.
type setup struct {
	cfg    *config.Config
	logger *log.SugaredLogger
	dryRun bool
}

// newSetup loads the config and builds the run logger. Each invocation gets
// a fresh run ID so log entries from overlapping runs stay attributable.
func newSetup(c *cli.Context, flow string) (*setup, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, cli.Exit(err.Error(), exitFailure)
	}

	dryRun := c.Bool("dry-run")
	logger := log.NewLogger(log.RunMeta{
		RunID:  uuid.NewString(),
		Flow:   flow,
		DryRun: dryRun,
	}).Sugar()

	return &setup{cfg: cfg, logger: logger, dryRun: dryRun}, nil
}

// accounts builds the gateway clients for the configured accounts.
func (s *setup) accounts() (primary pipeline.Account, secondary *pipeline.Account, err error) {
	primary, err = s.account("primary", s.cfg.Accounts.Primary)
	if err != nil {
		return primary, nil, err
	}
	if s.cfg.Accounts.Secondary != nil {
		sec, err := s.account("secondary", *s.cfg.Accounts.Secondary)
		if err != nil {
			return primary, nil, err
		}
		secondary = &sec
	}
	return primary, secondary, nil
}

func (s *setup) account(name string, ac config.AccountConfig) (pipeline.Account, error) {
	client, err := gateway.New(gateway.Config{
		BaseURL:       ac.BaseURL,
		APIKey:        ac.APIKey,
		APISecret:     ac.APISecret,
		RetryAttempts: s.cfg.Gateway.RetryAttempts,
		RetryDelay:    s.cfg.Gateway.RetryDelay.Duration,
		Timeout:       s.cfg.Gateway.Timeout.Duration,
	}, s.logger.With("account", name))
	if err != nil {
		return pipeline.Account{}, fmt.Errorf("%s account: %w", name, err)
	}
	return pipeline.Account{
		Name:    name,
		Client:  client,
		StoreID: ac.StoreID,
		Country: ac.Country,
	}, nil
}

// enricher opens the order-lines source, or returns nil when enrichment is
// not configured. The caller owns the close.
func (s *setup) enricher() (*enrich.Source, error) {
	if s.cfg.Enrichment.DSN == "" {
		return nil, nil
	}
	return enrich.Open(s.cfg.Enrichment.DSN, s.logger)
}

// policy picks the decision policy for this invocation. Non-interactive and
// dry runs take fixed answers; degrading to no-enrichment is allowed because
// it loses no data, everything else takes the conservative branch.
func (s *setup) policy(c *cli.Context) pipeline.DecisionPolicy {
	if c.Bool("non-interactive") || s.dryRun {
		return pipeline.FixedPolicy{Continue: true}
	}
	return pipeline.InteractivePolicy{In: os.Stdin, Out: os.Stdout}
}

// statePath resolves the run-state file location.
func (s *setup) statePath() string {
	if s.cfg.State.Path != "" {
		return s.cfg.State.Path
	}
	return filepath.Join(filepath.Dir(s.cfg.Exchange.PendingDir), "state.json")
}

func (s *setup) stateStore() *runstate.Store {
	return runstate.NewStore(s.statePath(), s.cfg.State.DedupCap)
}

func (s *setup) shipFrom() codec.ShipFrom {
	sf := s.cfg.ShipFrom
	return codec.ShipFrom{
		AccountNo: sf.AccountNo,
		Name:      sf.Name,
		Addr1:     sf.Addr1,
		Addr2:     sf.Addr2,
		Addr3:     sf.Addr3,
		Addr4:     sf.Addr4,
		City:      sf.City,
		State:     sf.State,
		Zip:       sf.Zip,
		Country:   sf.Country,
		Contact:   sf.Contact,
		Phone:     sf.Phone,
	}
}

// reportExit maps a flow report to the command exit code.
func reportExit(report *pipeline.Report) error {
	if report.Errors > 0 {
		return cli.Exit(fmt.Sprintf("%d unit(s) failed permanently", report.Errors), exitPartial)
	}
	return nil
}
