package svm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sigweihq/tipjar/pkg/chains"
	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/metrics"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// AdapterOptions tunes an SVM adapter
type AdapterOptions struct {
	// BlockhashTimeout bounds the blockhash lookup; 0 means constants.BlockhashTimeout
	BlockhashTimeout time.Duration

	Logger  *slog.Logger
	Metrics metrics.Recorder
}

// Adapter implements chains.SigningAdapter over a Phantom style provider.
// Transfers return on broadcast acceptance with types.FinalitySent.
type Adapter struct {
	destination      solana.PublicKey
	provider         Provider
	blockhashes      BlockhashSource
	blockhashTimeout time.Duration
	logger           *slog.Logger
	metrics          metrics.Recorder

	mu   sync.RWMutex
	conn *types.WalletConnection
}

var _ chains.SigningAdapter = (*Adapter)(nil)

// NewAdapter creates an adapter sending to destination. A nil provider fails Connect with ProviderNotInstalled.
func NewAdapter(destination string, provider Provider, blockhashes BlockhashSource, opts AdapterOptions) (*Adapter, error) {
	dest, err := solana.PublicKeyFromBase58(destination)
	if err != nil {
		return nil, fmt.Errorf("invalid destination address %q: %w", destination, err)
	}
	if blockhashes == nil {
		return nil, errors.New("blockhash source is required")
	}
	if opts.BlockhashTimeout <= 0 {
		opts.BlockhashTimeout = constants.BlockhashTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Adapter{
		destination:      dest,
		provider:         provider,
		blockhashes:      blockhashes,
		blockhashTimeout: opts.BlockhashTimeout,
		logger:           opts.Logger.With("chain", types.ChainSVM.String()),
		metrics:          metrics.OrNoop(opts.Metrics),
	}, nil
}

// Chain implements chains.SigningAdapter
func (a *Adapter) Chain() types.Chain {
	return types.ChainSVM
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
	a.conn = &types.WalletConnection{Chain: types.ChainSVM, Address: address}
	a.mu.Unlock()

	a.logger.Info("wallet connected", "address", address)
	return address, nil
}

func (a *Adapter) connect(ctx context.Context) (string, error) {
	if a.provider == nil || !a.provider.IsPhantom() {
		return "", chains.NewWalletError(chains.KindProviderNotInstalled, "Phantom is not installed", nil)
	}

	pub, err := a.provider.Connect(ctx)
	if err != nil {
		return "", classify(err)
	}
	if pub.IsZero() {
		return "", chains.NewWalletError(chains.KindNoAccountsFound, "", nil)
	}
	return pub.String(), nil
}

// Transfer implements chains.SigningAdapter
func (a *Adapter) Transfer(ctx context.Context, chainAmount float64) (*types.ChainTransferResult, error) {
	start := time.Now()
	result, err := a.transfer(ctx, chainAmount)
	a.count(metrics.EventTransfer, err)
	a.metrics.ObserveLatency(metrics.EventTransfer, time.Since(start), map[string]string{metrics.LabelChain: types.ChainSVM.String()})
	return result, err
}

func (a *Adapter) transfer(ctx context.Context, chainAmount float64) (*types.ChainTransferResult, error) {
	conn, ok := a.Connection()
	if !ok {
		return nil, chains.NewWalletError(chains.KindProviderUnavailable, "wallet is not connected", nil)
	}
	if a.provider == nil {
		return nil, chains.NewWalletError(chains.KindProviderNotInstalled, "Phantom is not installed", nil)
	}

	units, err := utils.ToBaseUnits(chainAmount, constants.LamportsDecimals)
	if err != nil {
		return nil, chains.NewWalletError(chains.KindInvalidAmount, "", err)
	}
	if !units.IsUint64() {
		return nil, chains.NewWalletError(chains.KindInvalidAmount, "", fmt.Errorf("%s lamports overflows", units))
	}
	lamports := units.Uint64()

	payer, err := solana.PublicKeyFromBase58(conn.Address)
	if err != nil {
		return nil, chains.NewWalletError(chains.KindProviderUnavailable, "", err)
	}

	blockhashCtx, cancel := context.WithTimeout(ctx, a.blockhashTimeout)
	recent, err := a.blockhashes.GetLatestBlockhash(blockhashCtx, rpc.CommitmentFinalized)
	cancel()
	if err != nil {
		return nil, chains.NewWalletError(chains.KindNetworkError, "", fmt.Errorf("failed to get latest blockhash: %w", err))
	}
	if recent == nil || recent.Value == nil {
		return nil, chains.NewWalletError(chains.KindNetworkError, "", errors.New("empty blockhash response"))
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(lamports, payer, a.destination).Build(),
		},
		recent.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, chains.NewWalletError(chains.KindNetworkError, "", fmt.Errorf("failed to build transaction: %w", err))
	}

	sig, err := a.provider.SignAndSendTransaction(ctx, tx)
	if err != nil {
		a.logger.Warn("transfer failed", "error", err)
		return nil, classify(err)
	}

	a.logger.Info("transfer sent", "signature", sig.String(), "lamports", lamports)
	return &types.ChainTransferResult{
		TxHash:      sig.String(),
		FromAddress: conn.Address,
		Chain:       types.ChainSVM,
		Finality:    types.FinalitySent,
	}, nil
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
		metrics.LabelChain:   types.ChainSVM.String(),
		metrics.LabelOutcome: outcome,
	})
}
