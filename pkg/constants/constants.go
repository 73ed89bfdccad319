package constants

import "time"

const (
	DelayBetweenRPCCalls    = 200              // delay in milliseconds between RPC calls
	ReceiptPollInterval     = 2 * time.Second  // interval between receipt lookups while waiting for a confirmation
	BlockhashTimeout        = 10 * time.Second // timeout for fetching the latest blockhash
	APITimeout              = 30 * time.Second // timeout for backend API calls
	TLSHandshakeTimeout     = 10 * time.Second // timeout for TLS handshake
	ResponseHeaderTimeout   = 20 * time.Second // timeout for response header
	ExpectContinueTimeout   = 1 * time.Second  // timeout for expect continue
	MaxResponseBodySize     = 10 * 1024 * 1024 // maximum response body size in bytes (10MB)
	RequiredConfirmations   = 1                // confirmations the EVM adapter waits for
	PriceRefreshInterval    = 60 * time.Second // background price refresh cadence
	PriceFreshnessWindow    = 5 * time.Minute  // age after which a cached rate is no longer served
	PriceMaxAttempts        = 3                // attempts per price refresh (1 initial + 2 retries)
	PriceRetryBaseDelay     = 500 * time.Millisecond
	PriceRetryMaxDelay      = 4 * time.Second
	MaxDonationMessageRunes = 200 // payer message length bound
	RecorderQueueSize       = 64  // pending ledger writes before new ones are dropped
)

// Native asset decimals
const (
	EtherDecimals    = 18
	LamportsDecimals = 9
)

// Network environments
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// Price oracle asset keys as returned by GET /crypto-prices
const (
	AssetEthereum = "ethereum"
	AssetSolana   = "solana"
)

const (
	SymbolETH = "ETH"
	SymbolSOL = "SOL"
)

// mapping from network environment to the EVM chain ID the payer must be on
var NetworkToChainID = map[string]int64{
	NetworkMainnet: 1,
	NetworkTestnet: 11155111, // sepolia
}

var OfficialEVMRPCEndpoints = map[string]string{
	NetworkMainnet: "https://ethereum-rpc.publicnode.com",
	NetworkTestnet: "https://ethereum-sepolia-rpc.publicnode.com",
}

var OfficialSolanaRPCEndpoints = map[string]string{
	NetworkMainnet: "https://api.mainnet-beta.solana.com",
	NetworkTestnet: "https://api.devnet.solana.com",
}

var EVMExplorerTxBase = map[string]string{
	NetworkMainnet: "https://etherscan.io/tx/",
	NetworkTestnet: "https://sepolia.etherscan.io/tx/",
}

const SolanaExplorerTxBase = "https://explorer.solana.com/tx/"

// DefaultPresetsUSD are the quick-amount chips shown on the amount step
var DefaultPresetsUSD = []float64{1, 5, 10, 25}
