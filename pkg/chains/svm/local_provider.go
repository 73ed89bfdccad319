package svm

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sigweihq/tipjar/pkg/chains"
	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// LocalProvider is a key-backed Phantom style provider
type LocalProvider struct {
	key      solana.PrivateKey
	sender   TransactionSender
	approver chains.Approver
	logger   *slog.Logger
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider creates a provider signing with key. A nil approver approves everything.
func NewLocalProvider(sender TransactionSender, key solana.PrivateKey, approver chains.Approver, logger *slog.Logger) *LocalProvider {
	if approver == nil {
		approver = chains.AutoApprove
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalProvider{
		key:      key,
		sender:   sender,
		approver: approver,
		logger:   logger,
	}
}

// IsPhantom implements Provider
func (p *LocalProvider) IsPhantom() bool {
	return true
}

// Connect implements Provider
func (p *LocalProvider) Connect(ctx context.Context) (solana.PublicKey, error) {
	return p.key.PublicKey(), nil
}

// SignAndSendTransaction implements Provider
func (p *LocalProvider) SignAndSendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	owner := p.key.PublicKey()

	payer, err := feePayer(tx)
	if err != nil {
		return solana.Signature{}, &ProviderError{Code: chains.CodeUnauthorized, Message: err.Error()}
	}
	if !payer.Equals(owner) {
		return solana.Signature{}, &ProviderError{Code: chains.CodeUnauthorized, Message: fmt.Sprintf("fee payer %s is not the connected account", payer)}
	}

	req := chains.ApprovalRequest{
		Chain:  types.ChainSVM,
		From:   owner.String(),
		Symbol: constants.SymbolSOL,
	}
	if to, lamports, ok := describeTransfer(tx); ok {
		req.To = to.String()
		req.Amount = utils.FromBaseUnits(new(big.Int).SetUint64(lamports), constants.LamportsDecimals).String()
	}

	approved, err := p.approver(ctx, req)
	if err != nil {
		return solana.Signature{}, err
	}
	if !approved {
		return solana.Signature{}, &ProviderError{Code: chains.CodeUserRejectedRequest, Message: "User rejected the request."}
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(owner) {
			return &p.key
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := tx.MarshalWithEncoder(bin.NewBinEncoder(buf)); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	sig, err := p.sender.SendRawTransactionWithOpts(ctx, buf.Bytes(), rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	p.logger.Info("transaction broadcast", "signature", sig.String())
	return sig, nil
}

func feePayer(tx *solana.Transaction) (solana.PublicKey, error) {
	if tx == nil || len(tx.Message.AccountKeys) == 0 {
		return solana.PublicKey{}, fmt.Errorf("transaction has no accounts")
	}
	return tx.Message.AccountKeys[0], nil
}

// describeTransfer finds the first system transfer in tx
func describeTransfer(tx *solana.Transaction) (solana.PublicKey, uint64, bool) {
	for _, inst := range tx.Message.Instructions {
		if int(inst.ProgramIDIndex) >= len(tx.Message.AccountKeys) {
			continue
		}
		if !tx.Message.AccountKeys[inst.ProgramIDIndex].Equals(solana.SystemProgramID) {
			continue
		}

		accountMetas, err := instructionAccounts(tx, inst)
		if err != nil {
			continue
		}

		sysInst, err := system.DecodeInstruction(accountMetas, inst.Data)
		if err != nil {
			continue
		}
		transfer, ok := sysInst.Impl.(*system.Transfer)
		if !ok || transfer.Lamports == nil || len(accountMetas) < 2 {
			continue
		}
		return accountMetas[1].PublicKey, *transfer.Lamports, true
	}
	return solana.PublicKey{}, 0, false
}

func instructionAccounts(tx *solana.Transaction, inst solana.CompiledInstruction) ([]*solana.AccountMeta, error) {
	accountMetas := make([]*solana.AccountMeta, len(inst.Accounts))
	for i, accIdx := range inst.Accounts {
		if int(accIdx) >= len(tx.Message.AccountKeys) {
			return nil, fmt.Errorf("account index %d out of range", accIdx)
		}
		pub := tx.Message.AccountKeys[accIdx]
		writable, err := tx.Message.IsWritable(pub)
		if err != nil {
			return nil, err
		}
		accountMetas[i] = &solana.AccountMeta{
			PublicKey:  pub,
			IsSigner:   tx.Message.IsSigner(pub),
			IsWritable: writable,
		}
	}
	return accountMetas, nil
}
