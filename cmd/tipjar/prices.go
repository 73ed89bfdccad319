package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigweihq/tipjar/pkg/oracle"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Show current USD prices for ETH and SOL",
	Args:  cobra.NoArgs,
	RunE:  runPrices,
}

func runPrices(cmd *cobra.Command, _ []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	prices := newOracle(client.Prices)
	if err := prices.Refresh(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, chain := range []types.Chain{types.ChainEVM, types.ChainSVM} {
		rate, age, ok := prices.Rate(chain.Asset())
		if !ok {
			fmt.Fprintf(out, "%-4s unavailable\n", chain.Symbol())
			continue
		}
		fmt.Fprintf(out, "%-4s %s  (%s)\n", chain.Symbol(), utils.FormatUSD(rate), utils.FormatAge(age))
	}
	return nil
}

func newOracle(source oracle.PriceSource) *oracle.Client {
	return oracle.NewClient(source, oracle.Options{
		RefreshInterval: cfg.Prices.RefreshInterval,
		FreshnessWindow: cfg.Prices.FreshnessWindow,
		Logger:          logger,
		Metrics:         metricsRec,
	})
}
