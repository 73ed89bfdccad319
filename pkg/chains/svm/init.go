package svm

import (
	"github.com/sigweihq/tipjar/pkg/chains"
	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/types"
)

// InitSVMChains registers the SVM adapter factory with the global registry
func InitSVMChains() error {
	return chains.InitGlobalRegistry().Register(types.ChainSVM, NewAdapterFromEnvironment)
}

// NewAdapterFromEnvironment implements chains.AdapterFactory.
// Blockhashes come from the configured endpoint or the official endpoint for env.Network.
func NewAdapterFromEnvironment(wallet types.DestinationWallet, env chains.Environment) (chains.SigningAdapter, error) {
	network := env.Network
	if network == "" {
		network = constants.NetworkMainnet
	}

	var endpoints []string
	if ep := env.RPCEndpoint(types.ChainSVM, ""); ep != "" {
		endpoints = append(endpoints, ep)
	}
	client, err := NewRPCClient(network, endpoints...)
	if err != nil {
		return nil, err
	}

	provider, _ := env.Provider(types.ChainSVM).(Provider)

	adapter, err := NewAdapter(wallet.Address, provider, client, AdapterOptions{
		Logger:  env.Logger,
		Metrics: env.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return adapter, nil
}
