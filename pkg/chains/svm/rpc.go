package svm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/sigweihq/tipjar/pkg/constants"
)

// RPCClient spreads Solana RPC calls over several endpoints with failover
type RPCClient struct {
	clients []*rpc.Client
	names   []string
}

var (
	_ BlockhashSource   = (*RPCClient)(nil)
	_ TransactionSender = (*RPCClient)(nil)
)

// NewRPCClient creates a client over endpoints, falling back to the official endpoint for network
func NewRPCClient(network string, endpoints ...string) (*RPCClient, error) {
	if len(endpoints) == 0 {
		official, ok := constants.OfficialSolanaRPCEndpoints[network]
		if !ok {
			return nil, fmt.Errorf("no Solana RPC endpoint for network %q", network)
		}
		endpoints = []string{official}
	}

	c := &RPCClient{}
	for _, ep := range endpoints {
		c.clients = append(c.clients, rpc.New(ep))
		c.names = append(c.names, ep)
	}
	return c, nil
}

// GetLatestBlockhash implements BlockhashSource
func (c *RPCClient) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return withFailover(ctx, c, func(cl *rpc.Client) (*rpc.GetLatestBlockhashResult, error) {
		out, err := cl.GetLatestBlockhash(ctx, commitment)
		if err == nil && (out == nil || out.Value == nil) {
			err = errors.New("empty blockhash response")
		}
		return out, err
	})
}

// SendRawTransactionWithOpts implements TransactionSender.
// Rebroadcasting the same signed transaction to another endpoint cannot double spend.
func (c *RPCClient) SendRawTransactionWithOpts(ctx context.Context, txData []byte, opts rpc.TransactionOpts) (solana.Signature, error) {
	return withFailover(ctx, c, func(cl *rpc.Client) (solana.Signature, error) {
		return cl.SendRawTransactionWithOpts(ctx, txData, opts)
	})
}

// IsHealthy calls getHealth on every endpoint and reports whether any is healthy
func (c *RPCClient) IsHealthy(ctx context.Context) bool {
	for _, cl := range c.clients {
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		status, err := cl.GetHealth(checkCtx)
		cancel()
		if err == nil && status == rpc.HealthOk {
			return true
		}
	}
	return false
}

// withFailover tries each endpoint once, starting at a random position for load balancing.
// Node-level rejections (JSON-RPC errors) are returned immediately.
func withFailover[T any](ctx context.Context, c *RPCClient, call func(*rpc.Client) (T, error)) (T, error) {
	var zero T
	if len(c.clients) == 0 {
		return zero, errors.New("no Solana RPC endpoints configured")
	}

	startIdx := rand.Intn(len(c.clients))
	var lastErr error

	for i := 0; i < len(c.clients); i++ {
		if i > 0 {
			timer := time.NewTimer(time.Duration(i*constants.DelayBetweenRPCCalls) * time.Millisecond)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		idx := (startIdx + i) % len(c.clients)
		out, err := call(c.clients[idx])
		if err == nil {
			return out, nil
		}

		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) || ctx.Err() != nil {
			return zero, err
		}
		lastErr = fmt.Errorf("%s: %w", c.names[idx], err)
	}

	return zero, fmt.Errorf("all Solana RPC endpoints failed: %w", lastErr)
}
