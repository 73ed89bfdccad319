package main

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var explorerCmd = &cobra.Command{
	Use:   "explorer <chain> <txHash>",
	Short: "Print the block explorer link for a transaction",
	Long: `Print the block explorer link for a transaction.

Chain accepts evm, svm or a wallet name such as metamask or phantom.`,
	Args: cobra.ExactArgs(2),
	RunE: runExplorer,
}

// chainNames are the spellings accepted for a chain argument
//
//nolint:gochecknoglobals // lookup table
var chainNames = []string{"evm", "svm", "metamask", "phantom", "ethereum", "solana", "eth", "sol"}

func runExplorer(cmd *cobra.Command, args []string) error {
	chain, err := parseChainArg(args[0])
	if err != nil {
		return err
	}

	url := utils.ExplorerTxURL(chain, cfg.Network, strings.TrimSpace(args[1]))
	if url == "" {
		return fmt.Errorf("no explorer for %s on %s", chain, cfg.Network)
	}
	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}

func parseChainArg(arg string) (types.Chain, error) {
	chain, err := types.ParseWalletProvider(arg)
	if err == nil {
		return chain, nil
	}
	if suggestion := suggestChain(arg); suggestion != "" {
		return "", fmt.Errorf("%w (did you mean %q?)", err, suggestion)
	}
	return "", err
}

// suggestChain returns the closest known chain name within two edits
func suggestChain(arg string) string {
	arg = strings.ToLower(strings.TrimSpace(arg))
	best, bestDist := "", 3
	for _, name := range chainNames {
		if d := levenshtein.ComputeDistance(arg, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}
