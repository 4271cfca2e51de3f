package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// StoresCommand returns the stores command: list the sub-stores of one
// destination account, for filling in store_id config values.
func StoresCommand() *cli.Command {
	return &cli.Command{
		Name:  "stores",
		Usage: "List a destination account's sub-stores",
		Flags: []cli.Flag{
			ConfigFlag,
			&cli.StringFlag{
				Name:  "account",
				Usage: "Which account to query: primary or secondary",
				Value: "primary",
			},
		},
		Action: storesAction,
	}
}

func storesAction(c *cli.Context) error {
	s, err := newSetup(c, "stores")
	if err != nil {
		return err
	}

	primary, secondary, err := s.accounts()
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	account := &primary
	switch c.String("account") {
	case "primary":
	case "secondary":
		if secondary == nil {
			return cli.Exit("no secondary account configured", exitFailure)
		}
		account = secondary
	default:
		return cli.Exit("--account must be primary or secondary", exitFailure)
	}

	stores, err := account.Client.ListStores(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	fmt.Printf("%-10s %-30s %s\n", "STORE ID", "NAME", "MARKETPLACE")
	for _, store := range stores {
		fmt.Printf("%-10d %-30s %s\n", store.StoreID, store.StoreName, store.MarketplaceName)
	}
	return nil
}
