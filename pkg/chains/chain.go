package chains

import (
	"context"
	"log/slog"

	"github.com/sigweihq/tipjar/pkg/metrics"
	"github.com/sigweihq/tipjar/pkg/types"
)

// SigningAdapter presents one connect/transfer contract over a chain-specific wallet provider
type SigningAdapter interface {
	// Chain returns the chain family this adapter signs for
	Chain() types.Chain

	// Connect requests account access and returns the first exposed address.
	// The address is stored for subsequent transfers.
	Connect(ctx context.Context) (string, error)

	// Connection returns the stored connection, if any
	Connection() (types.WalletConnection, bool)

	// Transfer sends chainAmount of the native currency from the connected account to the destination.
	// Blocks until the provider answers; callers bound it through ctx.
	Transfer(ctx context.Context, chainAmount float64) (*types.ChainTransferResult, error)
}

// Environment carries what the host exposes to adapters
type Environment struct {
	// Network is constants.NetworkMainnet or constants.NetworkTestnet
	Network string

	// Providers holds the injected wallet provider per chain family (evm.Provider, svm.Provider).
	// A missing entry behaves like an extension that is not installed.
	Providers map[types.Chain]any

	// RPCEndpoints overrides the node endpoint per chain family
	RPCEndpoints map[types.Chain]string

	// Confirmations the EVM adapter waits for; 0 uses the default
	Confirmations uint64

	Logger  *slog.Logger
	Metrics metrics.Recorder
}

// Provider returns the injected provider for chain, or nil
func (e Environment) Provider(chain types.Chain) any {
	if e.Providers == nil {
		return nil
	}
	return e.Providers[chain]
}

// RPCEndpoint returns the configured endpoint for chain, or fallback
func (e Environment) RPCEndpoint(chain types.Chain, fallback string) string {
	if ep, ok := e.RPCEndpoints[chain]; ok && ep != "" {
		return ep
	}
	return fallback
}

// AdapterFactory builds the signing adapter for a destination wallet
type AdapterFactory func(wallet types.DestinationWallet, env Environment) (SigningAdapter, error)
