package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWalletProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     Chain
		wantErr  bool
	}{
		{name: "metamask", provider: "metamask", want: ChainEVM},
		{name: "ethereum mixed case", provider: "Ethereum", want: ChainEVM},
		{name: "eth with whitespace", provider: " eth ", want: ChainEVM},
		{name: "phantom", provider: "phantom", want: ChainSVM},
		{name: "solana upper", provider: "SOLANA", want: ChainSVM},
		{name: "svm", provider: "svm", want: ChainSVM},
		{name: "unknown", provider: "bitcoin", wantErr: true},
		{name: "empty", provider: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWalletProvider(tt.provider)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChain_NativeCurrency(t *testing.T) {
	assert.Equal(t, AssetEthereum, ChainEVM.Asset())
	assert.Equal(t, "ETH", ChainEVM.Symbol())
	assert.Equal(t, int32(18), ChainEVM.Decimals())

	assert.Equal(t, AssetSolana, ChainSVM.Asset())
	assert.Equal(t, "SOL", ChainSVM.Symbol())
	assert.Equal(t, int32(9), ChainSVM.Decimals())

	unknown := Chain("btc")
	assert.False(t, unknown.Valid())
	assert.Empty(t, unknown.Asset())
	assert.Empty(t, unknown.Symbol())
	assert.Zero(t, unknown.Decimals())
}

func TestPublicWalletResponse_JSON(t *testing.T) {
	raw := `{"id":"w1","wallet_provider":"phantom","wallet_address":"addr","streamer_id":"s1"}`

	var resp PublicWalletResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	assert.Equal(t, "w1", resp.ID)
	assert.Equal(t, "phantom", resp.WalletProvider)
	assert.Nil(t, resp.StreamerName)
}

func TestDonationTransactionRequest_OmitsEmptyMessage(t *testing.T) {
	body, err := json.Marshal(DonationTransactionRequest{
		Amount:      "0.01",
		TxHash:      "0xabc",
		AddressFrom: "0xfrom",
		Currency:    "ETH",
	})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "message")
	assert.Contains(t, string(body), `"currency":"ETH"`)
}
