package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sigweihq/tipjar/pkg/constants"
)

const maxConsecutivePollErrors = 5

// Signer sends transactions for one account through a Provider and tracks their inclusion
type Signer struct {
	provider     Provider
	from         common.Address
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewSigner creates a signer for the given account
func NewSigner(provider Provider, from common.Address, pollInterval time.Duration, logger *slog.Logger) *Signer {
	if pollInterval <= 0 {
		pollInterval = constants.ReceiptPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		provider:     provider,
		from:         from,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Address returns the signing account
func (s *Signer) Address() common.Address {
	return s.from
}

// SendTransaction submits a native value transfer and returns its hash
func (s *Signer) SendTransaction(ctx context.Context, to common.Address, value *big.Int) (common.Hash, error) {
	args := TransactionArgs{
		From:  s.from,
		To:    &to,
		Value: (*hexutil.Big)(value),
	}

	raw, err := s.provider.Request(ctx, "eth_sendTransaction", args)
	if err != nil {
		return common.Hash{}, err
	}

	var hash common.Hash
	if err := json.Unmarshal(raw, &hash); err != nil {
		return common.Hash{}, fmt.Errorf("failed to decode transaction hash: %w", err)
	}
	return hash, nil
}

// WaitForReceipt polls eth_getTransactionReceipt until the transaction has the requested
// number of confirmations. Returns ctx.Err() when ctx ends first.
func (s *Signer) WaitForReceipt(ctx context.Context, hash common.Hash, confirmations uint64) (*ethtypes.Receipt, error) {
	if confirmations == 0 {
		confirmations = 1
	}

	failures := 0
	for {
		receipt, err := s.pollReceipt(ctx, hash, confirmations)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			s.logger.Warn("receipt lookup failed", "txHash", hash.Hex(), "attempt", failures, "error", err)
			if failures >= maxConsecutivePollErrors {
				return nil, fmt.Errorf("failed to get receipt for %s: %w", hash.Hex(), err)
			}
		} else {
			failures = 0
			if receipt != nil {
				return receipt, nil
			}
		}

		timer := time.NewTimer(s.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// pollReceipt returns (nil, nil) while the transaction is pending or not yet deep enough
func (s *Signer) pollReceipt(ctx context.Context, hash common.Hash, confirmations uint64) (*ethtypes.Receipt, error) {
	raw, err := s.provider.Request(ctx, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}

	receipt, err := decodeReceipt(raw)
	if err != nil || receipt == nil {
		return nil, err
	}

	if confirmations == 1 || receipt.BlockNumber == nil {
		return receipt, nil
	}

	raw, err = s.provider.Request(ctx, "eth_blockNumber")
	if err != nil {
		return nil, err
	}
	var head hexutil.Uint64
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("failed to decode block number: %w", err)
	}

	included := receipt.BlockNumber.Uint64()
	if uint64(head) < included || uint64(head)-included+1 < confirmations {
		return nil, nil
	}
	return receipt, nil
}
