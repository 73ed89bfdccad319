package utils

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/sigweihq/tipjar/pkg/types"
)

// ValidateAddress checks that address is well-formed for the chain family
func ValidateAddress(chain types.Chain, address string) error {
	switch chain {
	case types.ChainEVM:
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid EVM address: %q", address)
		}
		return nil
	case types.ChainSVM:
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			return fmt.Errorf("invalid Solana address %q: %w", address, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported chain: %q", chain)
	}
}

// ParseEVMPrivateKey parses a hex secp256k1 key with or without the 0x prefix
func ParseEVMPrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// ParseSolanaPrivateKey accepts a base58 keypair (as exported by wallets), a 64-byte hex
// keypair or a 32-byte hex seed.
func ParseSolanaPrivateKey(encoded string) (solana.PrivateKey, error) {
	encoded = strings.TrimSpace(encoded)

	if hexKey := strings.TrimPrefix(encoded, "0x"); isHex(hexKey) {
		keyBytes, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, fmt.Errorf("invalid private key hex: %w", err)
		}
		switch len(keyBytes) {
		case ed25519.SeedSize:
			return solana.PrivateKey(ed25519.NewKeyFromSeed(keyBytes)), nil
		case ed25519.PrivateKeySize:
			return solana.PrivateKey(keyBytes), nil
		default:
			return nil, fmt.Errorf("invalid private key length: %d (expected 32 or 64 bytes)", len(keyBytes))
		}
	}

	key, err := solana.PrivateKeyFromBase58(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: %d (expected 64 bytes)", len(key))
	}
	return key, nil
}

func isHex(s string) bool {
	if s == "" || len(s)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
