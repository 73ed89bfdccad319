package apiclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// ErrWalletNotFound is returned when the backend has no public wallet for an id
var ErrWalletNotFound = errors.New("wallet not found")

// WalletsClient resolves destination wallets
type WalletsClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func newWalletsClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *WalletsClient {
	return &WalletsClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GetPublic loads the public view of a destination wallet
// GET /wallet/{walletId}/public
func (c *WalletsClient) GetPublic(ctx context.Context, walletID string) (*types.DestinationWallet, error) {
	if walletID == "" {
		return nil, fmt.Errorf("wallet id is required")
	}

	var resp types.PublicWalletResponse
	endpoint := fmt.Sprintf("%s/wallet/%s/public", c.baseURL, url.PathEscape(walletID))
	if err := httpRequest(ctx, c.httpClient, http.MethodGet, endpoint, nil, &resp); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.IsNotFound() {
			return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, walletID)
		}
		return nil, fmt.Errorf("failed to get wallet %s: %w", walletID, err)
	}

	chain, err := types.ParseWalletProvider(resp.WalletProvider)
	if err != nil {
		return nil, fmt.Errorf("wallet %s: %w", walletID, err)
	}
	if err := utils.ValidateAddress(chain, resp.WalletAddress); err != nil {
		return nil, fmt.Errorf("wallet %s: %w", walletID, err)
	}

	wallet := &types.DestinationWallet{
		ID:         resp.ID,
		Chain:      chain,
		Address:    resp.WalletAddress,
		StreamerID: resp.StreamerID,
	}
	if wallet.ID == "" {
		wallet.ID = walletID
	}
	if resp.StreamerName != nil {
		wallet.OwnerDisplayName = *resp.StreamerName
	}

	c.logger.Debug("wallet loaded", "walletID", wallet.ID, "chain", wallet.Chain)
	return wallet, nil
}
