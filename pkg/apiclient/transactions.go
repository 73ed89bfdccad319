package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sigweihq/tipjar/pkg/types"
)

// TransactionsClient records donations in the backend ledger
type TransactionsClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func newTransactionsClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *TransactionsClient {
	return &TransactionsClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Submit posts one donation for walletID
// POST /transaction/wallet/{walletId}
func (c *TransactionsClient) Submit(ctx context.Context, walletID string, req *types.DonationTransactionRequest) error {
	if req == nil {
		return fmt.Errorf("transaction request is required")
	}
	endpoint := fmt.Sprintf("%s/transaction/wallet/%s", c.baseURL, url.PathEscape(walletID))
	if err := httpRequest(ctx, c.httpClient, http.MethodPost, endpoint, req, nil); err != nil {
		return fmt.Errorf("failed to submit transaction %s: %w", req.TxHash, err)
	}
	c.logger.Debug("transaction submitted", "walletID", walletID, "txHash", req.TxHash)
	return nil
}
