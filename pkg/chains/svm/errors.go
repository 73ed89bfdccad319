package svm

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/sigweihq/tipjar/pkg/chains"
)

// ProviderError is a wallet provider error carrying an EIP-1193 style code
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

func (e *ProviderError) ErrorCode() int {
	return e.Code
}

// classify maps provider and Solana RPC failures to chains.WalletError
func classify(err error) error {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return chains.ClassifyWithCode(err, rpcErr.Code)
	}
	return chains.Classify(err)
}
