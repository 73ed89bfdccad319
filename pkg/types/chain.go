package types

import (
	"fmt"
	"strings"

	"github.com/sigweihq/tipjar/pkg/constants"
)

// Chain identifies a blockchain family with its own address format and wallet protocol
type Chain string

const (
	ChainEVM Chain = "evm" // account-based EVM chains, EIP-1193 providers
	ChainSVM Chain = "svm" // Solana, Phantom-style providers
)

// ParseWalletProvider maps the backend wallet_provider field to a chain family
func ParseWalletProvider(provider string) (Chain, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "metamask", "ethereum", "eth", "evm":
		return ChainEVM, nil
	case "phantom", "solana", "sol", "svm":
		return ChainSVM, nil
	default:
		return "", fmt.Errorf("unsupported wallet provider: %q", provider)
	}
}

// Valid reports whether c is one of the supported chain families
func (c Chain) Valid() bool {
	return c == ChainEVM || c == ChainSVM
}

// Asset returns the price oracle key for the chain's native currency
func (c Chain) Asset() Asset {
	switch c {
	case ChainEVM:
		return AssetEthereum
	case ChainSVM:
		return AssetSolana
	default:
		return ""
	}
}

// Symbol returns the ticker of the chain's native currency
func (c Chain) Symbol() string {
	switch c {
	case ChainEVM:
		return constants.SymbolETH
	case ChainSVM:
		return constants.SymbolSOL
	default:
		return ""
	}
}

// Decimals returns the number of base units per whole native coin (wei, lamports)
func (c Chain) Decimals() int32 {
	switch c {
	case ChainEVM:
		return constants.EtherDecimals
	case ChainSVM:
		return constants.LamportsDecimals
	default:
		return 0
	}
}

func (c Chain) String() string {
	return string(c)
}

// Asset is a price oracle asset key
type Asset string

const (
	AssetEthereum Asset = constants.AssetEthereum
	AssetSolana   Asset = constants.AssetSolana
)

// Finality describes what the network has acknowledged for a returned transfer
type Finality string

const (
	// FinalityConfirmed means the transfer was observed in a block
	FinalityConfirmed Finality = "confirmed"
	// FinalitySent means the transfer was accepted for broadcast but not observed yet
	FinalitySent Finality = "sent"
)
