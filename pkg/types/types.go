package types

// DestinationWallet identifies where a donation goes. Loaded once before a flow starts.
type DestinationWallet struct {
	ID               string
	Chain            Chain
	Address          string
	StreamerID       string
	OwnerDisplayName string
}

// WalletConnection is the payer's connected account for one chain
type WalletConnection struct {
	Chain   Chain
	Address string
}

// DonationIntent is what the payer wants to send.
// ChainAmount is always derived from USDAmount and the current rate.
type DonationIntent struct {
	USDAmount   float64 `validate:"gt=0"`
	ChainAmount float64 `validate:"gt=0"`
	Message     string  `validate:"max=200"`
}

// ChainTransferResult is produced once per successful transfer
type ChainTransferResult struct {
	TxHash      string
	FromAddress string
	Chain       Chain
	Finality    Finality
}

// DonationRecord is submitted to the backend ledger after a transfer
type DonationRecord struct {
	WalletID string
	Intent   DonationIntent
	Transfer ChainTransferResult
}

// PublicWalletResponse is the body of GET /wallet/{walletId}/public
type PublicWalletResponse struct {
	ID             string  `json:"id"`
	WalletProvider string  `json:"wallet_provider"`
	WalletAddress  string  `json:"wallet_address"`
	StreamerID     string  `json:"streamer_id"`
	StreamerName   *string `json:"streamer_name,omitempty"`
}

// CryptoPricesResponse is the body of GET /crypto-prices
type CryptoPricesResponse map[string]AssetPrice

// AssetPrice is a single entry of CryptoPricesResponse
type AssetPrice struct {
	USD float64 `json:"usd"`
}

// DonationTransactionRequest is the body of POST /transaction/wallet/{walletId}
type DonationTransactionRequest struct {
	Amount      string `json:"amount"`
	Message     string `json:"message,omitempty"`
	TxHash      string `json:"tx_hash"`
	AddressFrom string `json:"address_from"`
	Currency    string `json:"currency"`
}
