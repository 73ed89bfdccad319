package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCmd = &cobra.Command{
	Use:   "wallet <walletID>",
	Short: "Show a streamer's destination wallet",
	Args:  cobra.ExactArgs(1),
	RunE:  runWallet,
}

func runWallet(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	wallet, err := client.Wallets.GetPublic(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wallet:   %s\n", wallet.ID)
	if wallet.OwnerDisplayName != "" {
		fmt.Fprintf(out, "Streamer: %s\n", wallet.OwnerDisplayName)
	}
	fmt.Fprintf(out, "Chain:    %s (%s)\n", wallet.Chain, wallet.Chain.Symbol())
	fmt.Fprintf(out, "Address:  %s\n", wallet.Address)
	return nil
}
