package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// PricesClient reads USD quotes
type PricesClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func newPricesClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *PricesClient {
	return &PricesClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Get returns the USD price per unit of each known asset.
// GET /crypto-prices
// Unknown assets and unusable prices are skipped.
func (c *PricesClient) Get(ctx context.Context) (map[types.Asset]float64, error) {
	var resp types.CryptoPricesResponse
	if err := httpRequest(ctx, c.httpClient, http.MethodGet, c.baseURL+"/crypto-prices", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get crypto prices: %w", err)
	}

	rates := make(map[types.Asset]float64, len(resp))
	for _, asset := range []types.Asset{types.AssetEthereum, types.AssetSolana} {
		price, ok := resp[string(asset)]
		if !ok {
			continue
		}
		if !utils.IsPositiveFinite(price.USD) {
			c.logger.Warn("ignoring unusable price", "asset", asset, "usd", price.USD)
			continue
		}
		rates[asset] = price.USD
	}
	return rates, nil
}
