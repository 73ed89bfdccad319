package evm

import (
	"fmt"

	"github.com/sigweihq/tipjar/pkg/chains"
)

// UnsupportedNetworkError is returned when a network is not supported
type UnsupportedNetworkError struct {
	Network string
}

func (e *UnsupportedNetworkError) Error() string {
	return fmt.Sprintf("unsupported network: %s", e.Network)
}

// RPCError represents an RPC-related error
type RPCError struct {
	Endpoint string
	Err      error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error on %s: %v", e.Endpoint, e.Err)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}

// ProviderError is an EIP-1193 provider error
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// ErrorCode implements the go-ethereum rpc.Error interface
func (e *ProviderError) ErrorCode() int {
	return e.Code
}

func errUserRejected() *ProviderError {
	return &ProviderError{Code: chains.CodeUserRejectedRequest, Message: "User rejected the request."}
}

func errUnsupportedMethod(method string) *ProviderError {
	return &ProviderError{Code: chains.CodeUnsupportedMethod, Message: fmt.Sprintf("unsupported method: %s", method)}
}
