package main

import (
	"context"
	"fmt"

	"github.com/sigweihq/tipjar/pkg/chains"
	"github.com/sigweihq/tipjar/pkg/chains/evm"
	"github.com/sigweihq/tipjar/pkg/chains/svm"
	"github.com/sigweihq/tipjar/pkg/config"
	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// buildEnvironment creates the key-backed provider for chain and the adapter environment.
// The returned func releases node connections.
func buildEnvironment(ctx context.Context, chain types.Chain, p *prompter, approver chains.Approver) (chains.Environment, func(), error) {
	env := chains.Environment{
		Network:       cfg.Network,
		Providers:     map[types.Chain]any{},
		RPCEndpoints:  map[types.Chain]string{},
		Confirmations: cfg.EVM.Confirmations,
		Logger:        logger,
		Metrics:       metricsRec,
	}

	switch chain {
	case types.ChainEVM:
		keyHex, err := loadKey(p, config.EnvEVMPrivateKey, "Ethereum private key (hex): ")
		if err != nil {
			return env, nil, err
		}
		key, err := utils.ParseEVMPrivateKey(keyHex)
		if err != nil {
			return env, nil, err
		}

		endpoints := cfg.EVMEndpoints()
		if len(endpoints) == 0 {
			endpoints = []string{constants.OfficialEVMRPCEndpoints[cfg.Network]}
		}
		client, endpoint, err := evm.DialHealthy(ctx, endpoints)
		if err != nil {
			return env, nil, err
		}
		logger.Debug("connected to EVM node", "endpoint", endpoint)

		env.Providers[types.ChainEVM] = evm.NewLocalProvider(client, key, approver, logger)
		return env, client.Close, nil

	case types.ChainSVM:
		encoded, err := loadKey(p, config.EnvSolanaPrivateKey, "Solana private key (base58 or hex): ")
		if err != nil {
			return env, nil, err
		}
		key, err := utils.ParseSolanaPrivateKey(encoded)
		if err != nil {
			return env, nil, err
		}

		endpoints := cfg.SolanaEndpoints()
		sender, err := svm.NewRPCClient(cfg.Network, endpoints...)
		if err != nil {
			return env, nil, err
		}
		if !sender.IsHealthy(ctx) {
			logger.Warn("no Solana RPC endpoint reports healthy, sends may fail", "network", cfg.Network, "endpoints", len(endpoints))
		}
		if len(endpoints) > 0 {
			env.RPCEndpoints[types.ChainSVM] = endpoints[0]
		}

		env.Providers[types.ChainSVM] = svm.NewLocalProvider(sender, key, approver, logger)
		return env, func() {}, nil

	default:
		return env, nil, fmt.Errorf("unsupported chain %q", chain)
	}
}

// newAdapter registers both chain families and selects the adapter for wallet
func newAdapter(wallet types.DestinationWallet, env chains.Environment) (chains.SigningAdapter, error) {
	if err := evm.InitEVMChains(); err != nil {
		return nil, err
	}
	if err := svm.InitSVMChains(); err != nil {
		return nil, err
	}
	return chains.NewAdapter(wallet, env)
}
