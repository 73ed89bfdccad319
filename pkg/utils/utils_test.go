package utils

import (
	"encoding/hex"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test private key (DO NOT USE IN PRODUCTION)
const testPrivateKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestParseUSD(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "integer", input: "10", want: 10},
		{name: "decimal", input: "2.50", want: 2.5},
		{name: "dollar sign", input: "$5", want: 5},
		{name: "whitespace", input: "  7 ", want: 7},
		{name: "empty", input: "", wantErr: true},
		{name: "only dollar", input: "$", wantErr: true},
		{name: "letters", input: "ten", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUSD(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUSDToChain(t *testing.T) {
	assert.InDelta(t, 0.004, USDToChain(10, 2500), 1e-12)
	assert.InDelta(t, 0.05, USDToChain(5, 100), 1e-12)
	assert.Zero(t, USDToChain(5, 0))
	assert.Zero(t, USDToChain(5, -1))
	assert.Zero(t, USDToChain(5, math.NaN()))
	assert.Zero(t, USDToChain(0, 2500))
}

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		decimals int32
		want     string
		wantErr  error
	}{
		{name: "one ether", amount: 1, decimals: 18, want: "1000000000000000000"},
		{name: "fractional ether", amount: 0.004, decimals: 18, want: "4000000000000000"},
		{name: "lamports", amount: 0.05, decimals: 9, want: "50000000"},
		{name: "truncates below one lamport", amount: 0.0000000019, decimals: 9, want: "1"},
		{name: "below one lamport", amount: 0.0000000001, decimals: 9, wantErr: ErrAmountTooSmall},
		{name: "zero", amount: 0, decimals: 9, wantErr: ErrInvalidAmount},
		{name: "negative", amount: -1, decimals: 18, wantErr: ErrInvalidAmount},
		{name: "infinite", amount: math.Inf(1), decimals: 18, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.amount, tt.decimals)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	assert.Equal(t, "0.05", FromBaseUnits(big.NewInt(50_000_000), 9).String())
	assert.True(t, FromBaseUnits(nil, 18).IsZero())
}

func TestFormatChainAmount(t *testing.T) {
	assert.Equal(t, "0.004", FormatChainAmount(0.004, 18))
	assert.Equal(t, "0.123456", FormatChainAmount(0.1234567, 6))
	assert.Equal(t, "0", FormatChainAmount(math.NaN(), 6))
	assert.Equal(t, "$5.00", FormatUSD(5))
	assert.Equal(t, "$2.50", FormatUSD(2.5))
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "updated just now", FormatAge(300*time.Millisecond))
	assert.Equal(t, "updated 12s ago", FormatAge(12*time.Second+400*time.Millisecond))
	assert.Equal(t, "updated 3m ago", FormatAge(3*time.Minute+10*time.Second))
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		chain   types.Chain
		address string
		wantErr bool
	}{
		{name: "evm valid", chain: types.ChainEVM, address: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"},
		{name: "evm invalid", chain: types.ChainEVM, address: "0x1234", wantErr: true},
		{name: "svm valid", chain: types.ChainSVM, address: "11111111111111111111111111111111"},
		{name: "svm invalid", chain: types.ChainSVM, address: "0OIl", wantErr: true},
		{name: "unknown chain", chain: types.Chain("btc"), address: "bc1q", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.chain, tt.address)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseEVMPrivateKey(t *testing.T) {
	key, err := ParseEVMPrivateKey("0x" + testPrivateKeyHex)
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", crypto.PubkeyToAddress(key.PublicKey).Hex())

	_, err = ParseEVMPrivateKey("not-a-key")
	assert.Error(t, err)
}

func TestParseSolanaPrivateKey(t *testing.T) {
	wallet := solana.NewWallet()

	fromBase58, err := ParseSolanaPrivateKey(wallet.PrivateKey.String())
	require.NoError(t, err)
	assert.Equal(t, wallet.PublicKey(), fromBase58.PublicKey())

	seedHex := "0x" + hex.EncodeToString(wallet.PrivateKey[:32])
	fromSeed, err := ParseSolanaPrivateKey(seedHex)
	require.NoError(t, err)
	assert.Equal(t, wallet.PublicKey(), fromSeed.PublicKey())

	fromFull, err := ParseSolanaPrivateKey(hex.EncodeToString(wallet.PrivateKey))
	require.NoError(t, err)
	assert.Equal(t, wallet.PublicKey(), fromFull.PublicKey())

	_, err = ParseSolanaPrivateKey("abcd")
	assert.Error(t, err)
}

func TestExplorerTxURL(t *testing.T) {
	tests := []struct {
		name    string
		chain   types.Chain
		network string
		hash    string
		want    string
	}{
		{name: "evm mainnet", chain: types.ChainEVM, network: "mainnet", hash: "0xabc", want: "https://etherscan.io/tx/0xabc"},
		{name: "evm testnet", chain: types.ChainEVM, network: "testnet", hash: "0xabc", want: "https://sepolia.etherscan.io/tx/0xabc"},
		{name: "svm mainnet", chain: types.ChainSVM, network: "mainnet", hash: "5sig", want: "https://explorer.solana.com/tx/5sig"},
		{name: "svm devnet", chain: types.ChainSVM, network: "testnet", hash: "5sig", want: "https://explorer.solana.com/tx/5sig?cluster=devnet"},
		{name: "unknown network", chain: types.ChainEVM, network: "goerli", hash: "0xabc", want: ""},
		{name: "empty hash", chain: types.ChainSVM, network: "mainnet", hash: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExplorerTxURL(tt.chain, tt.network, tt.hash))
		})
	}
}
