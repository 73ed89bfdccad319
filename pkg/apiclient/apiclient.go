package apiclient

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sigweihq/tipjar/pkg/utils"
)

// DefaultAPIURL is the default URL of the tipjar backend
const DefaultAPIURL = "https://api.tipjar.app"

// Config configures a Client
type Config struct {
	URL        string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client provides access to the tipjar backend.
// Wallets, Prices and Transactions share one HTTP client and base URL.
type Client struct {
	URL string

	// Wallets resolves public destination wallets
	// Endpoints: /wallet/{walletId}/public
	Wallets *WalletsClient

	// Prices reads USD quotes for native assets
	// Endpoints: /crypto-prices
	Prices *PricesClient

	// Transactions records completed donations
	// Endpoints: /transaction/wallet/{walletId}
	Transactions *TransactionsClient
}

// NewClient creates a client with all sub-clients initialized
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = &Config{}
	}

	baseURL := strings.TrimRight(config.URL, "/")
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if err := utils.ValidateAPIURL(baseURL); err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = utils.CreateHTTPClientWithTimeouts()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		URL:          baseURL,
		Wallets:      newWalletsClient(baseURL, httpClient, logger),
		Prices:       newPricesClient(baseURL, httpClient, logger),
		Transactions: newTransactionsClient(baseURL, httpClient, logger),
	}, nil
}
