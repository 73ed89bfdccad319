package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sigweihq/tipjar/pkg/chains"
	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/metrics"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// AdapterOptions tunes an EVM adapter
type AdapterOptions struct {
	// ChainID the wallet must be on; 0 skips the check
	ChainID int64
	// Confirmations to wait for before a transfer returns; 0 means constants.RequiredConfirmations
	Confirmations uint64
	// PollInterval between receipt lookups; 0 means constants.ReceiptPollInterval
	PollInterval time.Duration

	Logger  *slog.Logger
	Metrics metrics.Recorder
}

// Adapter implements chains.SigningAdapter over an EIP-1193 provider
type Adapter struct {
	destination   common.Address
	provider      Provider
	chainID       int64
	confirmations uint64
	pollInterval  time.Duration
	logger        *slog.Logger
	metrics       metrics.Recorder

	mu   sync.RWMutex
	conn *types.WalletConnection
}

var _ chains.SigningAdapter = (*Adapter)(nil)

// NewAdapter creates an adapter sending to destination. A nil provider fails Connect with ProviderNotInstalled.
func NewAdapter(destination string, provider Provider, opts AdapterOptions) (*Adapter, error) {
	if err := utils.ValidateAddress(types.ChainEVM, destination); err != nil {
		return nil, err
	}
	if opts.Confirmations == 0 {
		opts.Confirmations = constants.RequiredConfirmations
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Adapter{
		destination:   common.HexToAddress(destination),
		provider:      provider,
		chainID:       opts.ChainID,
		confirmations: opts.Confirmations,
		pollInterval:  opts.PollInterval,
		logger:        opts.Logger.With("chain", types.ChainEVM.String()),
		metrics:       metrics.OrNoop(opts.Metrics),
	}, nil
}

// Chain implements chains.SigningAdapter
func (a *Adapter) Chain() types.Chain {
	return types.ChainEVM
}

// Connection implements chains.SigningAdapter
func (a *Adapter) Connection() (types.WalletConnection, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.conn == nil {
		return types.WalletConnection{}, false
	}
	return *a.conn, true
}

// Connect implements chains.SigningAdapter
func (a *Adapter) Connect(ctx context.Context) (string, error) {
	address, err := a.connect(ctx)
	a.count(metrics.EventWalletConnect, err)
	if err != nil {
		a.logger.Warn("wallet connect failed", "error", err)
		return "", err
	}

	a.mu.Lock()
	a.conn = &types.WalletConnection{Chain: types.ChainEVM, Address: address}
	a.mu.Unlock()

	a.logger.Info("wallet connected", "address", address)
	return address, nil
}

func (a *Adapter) connect(ctx context.Context) (string, error) {
	if a.provider == nil || !a.provider.IsMetaMask() {
		return "", chains.NewWalletError(chains.KindProviderNotInstalled, "MetaMask is not installed", nil)
	}

	raw, err := a.provider.Request(ctx, "eth_requestAccounts")
	if err != nil {
		return "", chains.Classify(err)
	}

	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return "", chains.NewWalletError(chains.KindNetworkError, "", fmt.Errorf("failed to decode accounts: %w", err))
	}
	if len(accounts) == 0 {
		return "", chains.NewWalletError(chains.KindNoAccountsFound, "", nil)
	}
	if !common.IsHexAddress(accounts[0]) {
		return "", chains.NewWalletError(chains.KindNetworkError, "", fmt.Errorf("provider returned invalid address %q", accounts[0]))
	}

	if a.chainID != 0 {
		if err := a.checkChainID(ctx); err != nil {
			return "", err
		}
	}

	return common.HexToAddress(accounts[0]).Hex(), nil
}

func (a *Adapter) checkChainID(ctx context.Context) error {
	raw, err := a.provider.Request(ctx, "eth_chainId")
	if err != nil {
		return chains.Classify(err)
	}

	var id hexutil.Big
	if err := json.Unmarshal(raw, &id); err != nil {
		return chains.NewWalletError(chains.KindNetworkError, "", fmt.Errorf("failed to decode chain ID: %w", err))
	}
	if got := id.ToInt(); !got.IsInt64() || got.Int64() != a.chainID {
		return chains.NewWalletError(chains.KindNetworkError,
			fmt.Sprintf("wallet is on chain %s, switch to chain %d", got.String(), a.chainID), nil)
	}
	return nil
}

// Transfer implements chains.SigningAdapter.
// Waits for the configured confirmations; if the wait fails after broadcast the hash is returned with FinalitySent.
func (a *Adapter) Transfer(ctx context.Context, chainAmount float64) (*types.ChainTransferResult, error) {
	start := time.Now()
	result, err := a.transfer(ctx, chainAmount)
	a.count(metrics.EventTransfer, err)
	a.metrics.ObserveLatency(metrics.EventTransfer, time.Since(start), map[string]string{metrics.LabelChain: types.ChainEVM.String()})
	return result, err
}

func (a *Adapter) transfer(ctx context.Context, chainAmount float64) (*types.ChainTransferResult, error) {
	conn, ok := a.Connection()
	if !ok {
		return nil, chains.NewWalletError(chains.KindProviderUnavailable, "wallet is not connected", nil)
	}
	if a.provider == nil {
		return nil, chains.NewWalletError(chains.KindProviderNotInstalled, "MetaMask is not installed", nil)
	}

	wei, err := utils.ToBaseUnits(chainAmount, constants.EtherDecimals)
	if err != nil {
		return nil, chains.NewWalletError(chains.KindInvalidAmount, "", err)
	}

	signer := NewSigner(a.provider, common.HexToAddress(conn.Address), a.pollInterval, a.logger)

	hash, err := signer.SendTransaction(ctx, a.destination, wei)
	if err != nil {
		a.logger.Warn("transfer failed", "error", err)
		return nil, chains.Classify(err)
	}

	result := &types.ChainTransferResult{
		TxHash:      hash.Hex(),
		FromAddress: signer.Address().Hex(),
		Chain:       types.ChainEVM,
		Finality:    types.FinalitySent,
	}
	a.logger.Info("transfer submitted", "txHash", result.TxHash, "wei", wei.String())

	// After broadcast only a reverted receipt is a failure
	receipt, err := signer.WaitForReceipt(ctx, hash, a.confirmations)
	if err != nil {
		a.logger.Warn("stopped waiting for confirmation", "txHash", result.TxHash, "error", err)
		return result, nil
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, chains.NewWalletError(chains.KindNetworkError,
			fmt.Sprintf("transaction %s reverted", result.TxHash), nil)
	}

	result.Finality = types.FinalityConfirmed
	a.logger.Info("transfer confirmed", "txHash", result.TxHash, "block", receipt.BlockNumber)
	return result, nil
}

func (a *Adapter) count(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if kind, ok := chains.KindOf(err); ok {
			outcome = string(kind)
		}
	}
	a.metrics.IncCounter(event, map[string]string{
		metrics.LabelChain:   types.ChainEVM.String(),
		metrics.LabelOutcome: outcome,
	})
}
