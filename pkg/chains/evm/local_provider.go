package evm

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sigweihq/tipjar/pkg/chains"
	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

const codeInvalidParams = -32602

// Backend is the subset of *ethclient.Client used by LocalProvider
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	Client() *rpc.Client
}

// LocalProvider is a key-backed EIP-1193 provider: account and signing requests are
// answered locally, everything else is forwarded to the node.
type LocalProvider struct {
	backend  Backend
	key      *ecdsa.PrivateKey
	address  common.Address
	approver chains.Approver
	logger   *slog.Logger

	mu      sync.Mutex
	chainID *big.Int
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider creates a provider signing with key. A nil approver approves everything.
func NewLocalProvider(backend Backend, key *ecdsa.PrivateKey, approver chains.Approver, logger *slog.Logger) *LocalProvider {
	if approver == nil {
		approver = chains.AutoApprove
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalProvider{
		backend:  backend,
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		approver: approver,
		logger:   logger,
	}
}

// IsMetaMask implements Provider
func (p *LocalProvider) IsMetaMask() bool {
	return true
}

// Address returns the account the provider signs for
func (p *LocalProvider) Address() common.Address {
	return p.address
}

// Request implements Provider
func (p *LocalProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	switch method {
	case "eth_requestAccounts", "eth_accounts":
		return json.Marshal([]string{p.address.Hex()})
	case "eth_chainId":
		id, err := p.getChainID(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(hexutil.EncodeBig(id))
	case "eth_sendTransaction":
		return p.sendTransaction(ctx, params)
	case "eth_sign", "personal_sign", "eth_signTypedData_v4":
		return nil, errUnsupportedMethod(method)
	default:
		var raw json.RawMessage
		if err := p.backend.Client().CallContext(ctx, &raw, method, params...); err != nil {
			return nil, err
		}
		return raw, nil
	}
}

func (p *LocalProvider) getChainID(ctx context.Context) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.chainID != nil {
		return p.chainID, nil
	}
	id, err := p.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	p.chainID = id
	return id, nil
}

func (p *LocalProvider) sendTransaction(ctx context.Context, params []any) (json.RawMessage, error) {
	if len(params) != 1 {
		return nil, &ProviderError{Code: codeInvalidParams, Message: "eth_sendTransaction expects one transaction object"}
	}

	var args TransactionArgs
	encoded, err := json.Marshal(params[0])
	if err != nil {
		return nil, &ProviderError{Code: codeInvalidParams, Message: err.Error()}
	}
	if err := json.Unmarshal(encoded, &args); err != nil {
		return nil, &ProviderError{Code: codeInvalidParams, Message: err.Error()}
	}
	if args.From != p.address {
		return nil, &ProviderError{Code: chains.CodeUnauthorized, Message: fmt.Sprintf("account %s is not authorized", args.From.Hex())}
	}
	if args.To == nil {
		return nil, &ProviderError{Code: codeInvalidParams, Message: "contract creation is not supported"}
	}

	value := new(big.Int)
	if args.Value != nil {
		value = args.Value.ToInt()
	}

	approved, err := p.approver(ctx, chains.ApprovalRequest{
		Chain:  types.ChainEVM,
		From:   p.address.Hex(),
		To:     args.To.Hex(),
		Amount: utils.FromBaseUnits(value, constants.EtherDecimals).String(),
		Symbol: constants.SymbolETH,
	})
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, errUserRejected()
	}

	chainID, err := p.getChainID(ctx)
	if err != nil {
		return nil, err
	}

	nonce, err := p.backend.PendingNonceAt(ctx, p.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := p.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	var gasLimit uint64
	if args.Gas != nil {
		gasLimit = uint64(*args.Gas)
	} else {
		gasLimit, err = p.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:  p.address,
			To:    args.To,
			Value: value,
			Data:  args.Data,
		})
		if err != nil {
			return nil, err
		}
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       args.To,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     args.Data,
	})

	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(chainID), p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := p.backend.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}

	p.logger.Info("transaction broadcast", "txHash", signed.Hash().Hex(), "nonce", nonce, "to", args.To.Hex())
	return json.Marshal(signed.Hash())
}
