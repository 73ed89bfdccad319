package svm

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Provider is a Phantom style wallet provider
type Provider interface {
	// IsPhantom is the presence flag checked before any request
	IsPhantom() bool

	// Connect requests account access and returns the wallet's public key
	Connect(ctx context.Context) (solana.PublicKey, error)

	// SignAndSendTransaction signs tx with the wallet key and broadcasts it
	SignAndSendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// BlockhashSource supplies recent blockhashes; *rpc.Client and *RPCClient implement it
type BlockhashSource interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

// TransactionSender broadcasts serialized transactions; *rpc.Client and *RPCClient implement it
type TransactionSender interface {
	SendRawTransactionWithOpts(ctx context.Context, txData []byte, opts rpc.TransactionOpts) (solana.Signature, error)
}
