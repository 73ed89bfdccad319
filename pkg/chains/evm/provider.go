package evm

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Provider is an EIP-1193 wallet provider
type Provider interface {
	// IsMetaMask is the presence flag checked before any request
	IsMetaMask() bool

	// Request performs a JSON-RPC request through the wallet and returns the raw result
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// TransactionArgs is the eth_sendTransaction parameter object
type TransactionArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Gas   *hexutil.Uint64 `json:"gas,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
}
