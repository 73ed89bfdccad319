package utils

import (
	"net/url"

	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/types"
)

// ExplorerTxURL returns the block explorer page for a transaction, or "" for an unknown chain or network
func ExplorerTxURL(chain types.Chain, network, txHash string) string {
	if txHash == "" {
		return ""
	}
	switch chain {
	case types.ChainEVM:
		base, ok := constants.EVMExplorerTxBase[network]
		if !ok {
			return ""
		}
		return base + txHash
	case types.ChainSVM:
		u := constants.SolanaExplorerTxBase + url.PathEscape(txHash)
		switch network {
		case constants.NetworkMainnet:
			return u
		case constants.NetworkTestnet:
			return u + "?cluster=devnet"
		default:
			return ""
		}
	default:
		return ""
	}
}
