package evm

import (
	"github.com/sigweihq/tipjar/pkg/chains"
	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/types"
)

// InitEVMChains registers the EVM adapter factory with the global registry
func InitEVMChains() error {
	return chains.InitGlobalRegistry().Register(types.ChainEVM, NewAdapterFromEnvironment)
}

// NewAdapterFromEnvironment implements chains.AdapterFactory
func NewAdapterFromEnvironment(wallet types.DestinationWallet, env chains.Environment) (chains.SigningAdapter, error) {
	var chainID int64
	if env.Network != "" {
		id, ok := constants.NetworkToChainID[env.Network]
		if !ok {
			return nil, &UnsupportedNetworkError{Network: env.Network}
		}
		chainID = id
	}

	provider, _ := env.Provider(types.ChainEVM).(Provider)

	adapter, err := NewAdapter(wallet.Address, provider, AdapterOptions{
		ChainID:       chainID,
		Confirmations: env.Confirmations,
		Logger:        env.Logger,
		Metrics:       env.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return adapter, nil
}
